package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation reports that a step or the whole form failed validation.
	ErrValidation = errors.New("form: validation failed")
	// ErrSubmitInFlight is returned by Submit and by every mutation while a
	// submission is running.
	ErrSubmitInFlight = errors.New("form: submission already in progress")
	// ErrSubmitted is returned by every mutation after a successful submit.
	ErrSubmitted = errors.New("form: already submitted")
	// ErrStepLocked is returned by GoTo for steps not yet reached.
	ErrStepLocked = errors.New("form: step not reached yet")
	// ErrStepOutOfRange is returned by GoTo for indexes outside the form.
	ErrStepOutOfRange = errors.New("form: step out of range")
	// ErrUnknownField is returned when a mutation names a field the schema
	// does not declare.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrFieldType is returned when a helper does not apply to the field's
	// type.
	ErrFieldType = errors.New("form: operation does not apply to field type")
	// ErrNoStore is returned by Submit when no record store is configured.
	ErrNoStore = errors.New("form: no record store configured")
)

// ValidationError lists the failing fields of a step or submission. It
// unwraps to ErrValidation.
type ValidationError struct {
	Step   int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("form: step %d has invalid fields: %s", e.Step, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SubmitError carries the record store's failure message verbatim.
type SubmitError struct {
	Message string
	Code    string
}

func (e *SubmitError) Error() string {
	return e.Message
}
