package model

// FieldType is the type tag used to pick a field strategy.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeRichText    FieldType = "richtext"
	FieldTypeSelect      FieldType = "select"
	FieldTypeNumber      FieldType = "number"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeTags        FieldType = "tags"
	FieldTypeList        FieldType = "list"
	FieldTypeKeyValue    FieldType = "keyvalue"
	FieldTypeReferences  FieldType = "references"
	FieldTypeParallels   FieldType = "parallels"
	FieldTypeSources     FieldType = "sources"
	FieldTypeImage       FieldType = "image"
	FieldTypeDate        FieldType = "date"
	FieldTypeCoordinates FieldType = "coordinates"
)

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single validation constraint applied to a field.
// Numeric bounds and length limits encode their threshold in Params["value"]
// while pattern rules keep the expression in Params["pattern"]. An optional
// Params["message"] overrides the generated error text.
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Choice is a selectable option of a select field.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// FieldOptions holds type-specific configuration. Only the members relevant
// to the field type are consulted.
type FieldOptions struct {
	Choices     []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Keys        []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Accept      []string `json:"accept,omitempty" yaml:"accept,omitempty"`
	MaxBytes    int64    `json:"maxBytes,omitempty" yaml:"maxBytes,omitempty"`
	EntityTypes []string `json:"entityTypes,omitempty" yaml:"entityTypes,omitempty"`
	Traditions  []string `json:"traditions,omitempty" yaml:"traditions,omitempty"`
}

// Field is the declarative definition of one form field.
type Field struct {
	Name        string           `json:"name" yaml:"name"`
	Label       string           `json:"label,omitempty" yaml:"label,omitempty"`
	Type        FieldType        `json:"type" yaml:"type"`
	Required    bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Group       string           `json:"group,omitempty" yaml:"group,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Default     any              `json:"default,omitempty" yaml:"default,omitempty"`
	Validations []ValidationRule `json:"validations,omitempty" yaml:"validations,omitempty"`
	Options     FieldOptions     `json:"options,omitempty" yaml:"options,omitempty"`
}

// DisplayLabel returns the label, falling back to a label derived from the
// last path segment of the name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return DefaultLabeler(lastSegment(f.Name))
}

// Rule returns the first validation rule of the given kind.
func (f Field) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// Step is an ordered group of fields presented together by the wizard.
type Step struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// FieldNames lists the names of the fields in the step.
func (s Step) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, field := range s.Fields {
		out[i] = field.Name
	}
	return out
}

func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
