package fieldtypes

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// Rules is the parsed form of a field's validation rules.
type Rules struct {
	Min     *float64
	Max     *float64
	MinLen  *int
	MaxLen  *int
	Pattern *regexp.Regexp
	Message string
}

var (
	patternMu    sync.RWMutex
	patternCache = make(map[string]*regexp.Regexp)
)

// ParseRules extracts numeric, length and pattern constraints from a field.
// Unparseable parameters and invalid expressions are ignored so a malformed
// descriptor degrades to fewer checks rather than a broken form. Parsed
// patterns are cached by expression.
func ParseRules(field model.Field) Rules {
	var rules Rules
	for _, rule := range field.Validations {
		switch rule.Kind {
		case model.ValidationRuleMin, model.ValidationRuleMax, model.ValidationRuleMinLength,
			model.ValidationRuleMaxLength, model.ValidationRulePattern:
			if msg := rule.Params["message"]; msg != "" && rules.Message == "" {
				rules.Message = msg
			}
		}
		switch rule.Kind {
		case model.ValidationRuleMin:
			if v, ok := parseFloat(rule.Params["value"]); ok {
				rules.Min = &v
			}
		case model.ValidationRuleMax:
			if v, ok := parseFloat(rule.Params["value"]); ok {
				rules.Max = &v
			}
		case model.ValidationRuleMinLength:
			if v, ok := parseInt(rule.Params["value"]); ok {
				rules.MinLen = &v
			}
		case model.ValidationRuleMaxLength:
			if v, ok := parseInt(rule.Params["value"]); ok {
				rules.MaxLen = &v
			}
		case model.ValidationRulePattern:
			rules.Pattern = compilePattern(rule.Params["pattern"])
		}
	}
	return rules
}

func compilePattern(expr string) *regexp.Regexp {
	if expr == "" {
		return nil
	}
	patternMu.RLock()
	cached, ok := patternCache[expr]
	patternMu.RUnlock()
	if ok {
		return cached
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	patternMu.Lock()
	patternCache[expr] = re
	patternMu.Unlock()
	return re
}

// checkLength validates a measured length (characters or items).
func (r Rules) checkLength(label string, n int, unit string) error {
	if r.MinLen != nil && n < *r.MinLen {
		return r.fail("%s must be at least %d %s", label, *r.MinLen, plural(*r.MinLen, unit))
	}
	if r.MaxLen != nil && n > *r.MaxLen {
		return r.fail("%s must be at most %d %s", label, *r.MaxLen, plural(*r.MaxLen, unit))
	}
	return nil
}

func (r Rules) checkRange(label string, v float64) error {
	if r.Min != nil && v < *r.Min {
		return r.fail("%s must be at least %s", label, formatNumber(*r.Min))
	}
	if r.Max != nil && v > *r.Max {
		return r.fail("%s must be at most %s", label, formatNumber(*r.Max))
	}
	return nil
}

func (r Rules) checkPattern(label, value string) error {
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return r.fail("%s has an invalid format", label)
	}
	return nil
}

func (r Rules) fail(format string, args ...any) error {
	if r.Message != "" {
		return &FieldError{Message: r.Message}
	}
	return &FieldError{Message: fmt.Sprintf(format, args...)}
}

// FieldError is a human-readable validation failure.
type FieldError struct {
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func failf(format string, args ...any) error {
	return &FieldError{Message: fmt.Sprintf(format, args...)}
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

func parseInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}
