// Package fieldtypes maps every field type tag to a Strategy that owns the
// type's default value, extraction from rendered controls, hydration back
// into controls, normalisation of decoded JSON, and type-specific
// validation. Adding a type means registering one Strategy.
package fieldtypes

import (
	"errors"
	"sort"
	"sync"

	"github.com/goliatone/go-mythforms/pkg/model"
)

var (
	// ErrDuplicateTag is returned when a tag already exists (case-insensitive).
	ErrDuplicateTag = errors.New("fieldtypes: duplicate tag")
	// ErrDuplicateReference is returned when a reference id is already listed.
	ErrDuplicateReference = errors.New("fieldtypes: duplicate reference")
	// ErrIndexOutOfRange is returned by positional list helpers.
	ErrIndexOutOfRange = errors.New("fieldtypes: index out of range")
	// ErrUploadTooLarge is returned when an upload exceeds the field limit.
	ErrUploadTooLarge = errors.New("fieldtypes: upload too large")
	// ErrUploadType is returned when an upload's media type is not accepted.
	ErrUploadType = errors.New("fieldtypes: upload type not accepted")
	// ErrUnknownKey is returned when a fixed key-value field receives an
	// undeclared key.
	ErrUnknownKey = errors.New("fieldtypes: key not declared")
)

// Row is one rendered row of a composite control, keyed by column name.
type Row map[string]string

// Empty reports whether every column of the row is blank.
func (r Row) Empty() bool {
	for _, v := range r {
		if trimmed(v) != "" {
			return false
		}
	}
	return true
}

// Control is the live state a rendering layer holds for one field. Scalar
// controls use Text or Checked, composite controls use Rows and attachment
// controls use Upload (a new file) or Text (an existing URL).
type Control struct {
	Text    string
	Checked bool
	Rows    []Row
	Upload  *model.Upload
}

// Strategy implements the behaviour of one field type.
type Strategy interface {
	Type() model.FieldType
	// Default returns a type-correct empty value, honouring field.Default.
	Default(field model.Field) any
	// Extract reads the committed value out of a control.
	Extract(field model.Field, control Control) (any, error)
	// Control renders a value back into control state.
	Control(field model.Field, value any) Control
	// Normalize coerces a decoded JSON value into the typed shape.
	Normalize(field model.Field, raw any) any
	// Validate applies type-specific rules to a non-empty value.
	Validate(field model.Field, value any) error
}

// Registry resolves strategies by type tag. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[model.FieldType]Strategy
	fallback   Strategy
}

// NewRegistry returns a registry with every built-in strategy registered.
func NewRegistry() *Registry {
	reg := &Registry{strategies: make(map[model.FieldType]Strategy)}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces the strategy for its type.
func (r *Registry) Register(strategy Strategy) {
	if r == nil || strategy == nil || strategy.Type() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[strategy.Type()] = strategy
}

// Lookup returns the strategy for a type. Unknown types resolve to the text
// strategy and report false.
func (r *Registry) Lookup(fieldType model.FieldType) (Strategy, bool) {
	if r == nil {
		return textStrategy{kind: model.FieldTypeText}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if strategy, ok := r.strategies[fieldType]; ok {
		return strategy, true
	}
	return r.fallback, false
}

// For is Lookup without the found flag.
func (r *Registry) For(field model.Field) Strategy {
	strategy, _ := r.Lookup(field.Type)
	return strategy
}

// Types lists the registered type tags, sorted.
func (r *Registry) Types() []model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.FieldType, 0, len(r.strategies))
	for kind := range r.strategies {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) registerBuiltins() {
	text := textStrategy{kind: model.FieldTypeText}
	r.fallback = text
	r.Register(text)
	r.Register(textStrategy{kind: model.FieldTypeTextarea, multiline: true})
	r.Register(richTextStrategy{})
	r.Register(selectStrategy{})
	r.Register(dateStrategy{})
	r.Register(numberStrategy{})
	r.Register(booleanStrategy{})
	r.Register(tagsStrategy{})
	r.Register(listStrategy{})
	r.Register(keyValueStrategy{})
	r.Register(referencesStrategy{})
	r.Register(parallelsStrategy{})
	r.Register(sourcesStrategy{})
	r.Register(imageStrategy{})
	r.Register(coordinatesStrategy{})
}

var defaultRegistry = NewRegistry()

// Default returns the shared registry of built-in strategies.
func Default() *Registry {
	return defaultRegistry
}
