// Package validation evaluates field rules and aggregates them per step.
//
// Rules run in a fixed order for each field: the required check first, then
// the field type's own checks (length, range, pattern and any type-specific
// constraint). Evaluation stops at the first failure, so every invalid field
// carries exactly one message.
package validation

import (
	"fmt"

	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/model"
)

// Validator applies field rules using a strategy registry.
type Validator struct {
	strategies *fieldtypes.Registry
}

// Option customises a Validator.
type Option func(*Validator)

// WithStrategies overrides the strategy registry used for type checks.
func WithStrategies(reg *fieldtypes.Registry) Option {
	return func(v *Validator) {
		if reg != nil {
			v.strategies = reg
		}
	}
}

// New constructs a Validator backed by the shared strategy registry unless
// overridden.
func New(opts ...Option) *Validator {
	v := &Validator{strategies: fieldtypes.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Field returns the first failing rule for value, or nil.
func (v *Validator) Field(field model.Field, value any) error {
	if fieldtypes.IsEmpty(value) {
		if field.Required {
			return &fieldtypes.FieldError{Message: requiredMessage(field)}
		}
		return nil
	}
	return v.strategies.For(field).Validate(field, value)
}

// Step validates every field of step against values keyed by field name.
// It reports whether the step passed and the message of each failing field.
func (v *Validator) Step(step model.Step, values map[string]any) (bool, map[string]string) {
	errs := make(map[string]string)
	for _, field := range step.Fields {
		if err := v.Field(field, values[field.Name]); err != nil {
			errs[field.Name] = err.Error()
		}
	}
	return len(errs) == 0, errs
}

// All validates steps in order. It returns the index of the first failing
// step (-1 when all pass) together with the errors of every failing field.
func (v *Validator) All(steps []model.Step, values map[string]any) (int, bool, map[string]string) {
	first := -1
	errs := make(map[string]string)
	for idx, step := range steps {
		ok, stepErrs := v.Step(step, values)
		if ok {
			continue
		}
		if first < 0 {
			first = idx
		}
		for name, msg := range stepErrs {
			errs[name] = msg
		}
	}
	return first, first < 0, errs
}

func requiredMessage(field model.Field) string {
	for _, rule := range field.Validations {
		if rule.Kind == RuleRequired {
			if msg := rule.Params["message"]; msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("%s is required", field.DisplayLabel())
}

// RuleRequired lets a descriptor override the required message through
// a rule entry carrying Params["message"].
const RuleRequired = "required"

var defaultValidator = New()

// ValidateField validates a single value with the shared validator.
func ValidateField(field model.Field, value any) error {
	return defaultValidator.Field(field, value)
}

// ValidateStep validates a step with the shared validator.
func ValidateStep(step model.Step, values map[string]any) (bool, map[string]string) {
	return defaultValidator.Step(step, values)
}

// ValidateAll validates steps in order with the shared validator.
func ValidateAll(steps []model.Step, values map[string]any) (int, bool, map[string]string) {
	return defaultValidator.All(steps, values)
}
