package fieldtypes

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// numberStrategy stores float64 values, or nil when the control is blank.
// Unparseable input is kept as its raw string so validation can report it.
type numberStrategy struct{}

func (numberStrategy) Type() model.FieldType { return model.FieldTypeNumber }

func (numberStrategy) Default(field model.Field) any {
	if v, ok := toFloat(field.Default); ok {
		return v
	}
	return nil
}

func (numberStrategy) Extract(_ model.Field, control Control) (any, error) {
	text := strings.TrimSpace(control.Text)
	if text == "" {
		return nil, nil
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}
	return text, nil
}

func (numberStrategy) Control(_ model.Field, value any) Control {
	if v, ok := toFloat(value); ok {
		return Control{Text: formatNumber(v)}
	}
	return Control{Text: asString(value)}
}

func (s numberStrategy) Normalize(field model.Field, raw any) any {
	if raw == nil {
		return s.Default(field)
	}
	if v, ok := toFloat(raw); ok {
		return v
	}
	if str, ok := raw.(string); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			return v
		}
		return str
	}
	return s.Default(field)
}

func (numberStrategy) Validate(field model.Field, value any) error {
	v, ok := toFloat(value)
	if !ok {
		return failf("%s must be a number", field.DisplayLabel())
	}
	return ParseRules(field).checkRange(field.DisplayLabel(), v)
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	default:
		return 0, false
	}
}

type booleanStrategy struct{}

func (booleanStrategy) Type() model.FieldType { return model.FieldTypeBoolean }

func (booleanStrategy) Default(field model.Field) any {
	if b, ok := field.Default.(bool); ok {
		return b
	}
	return false
}

func (booleanStrategy) Extract(_ model.Field, control Control) (any, error) {
	return control.Checked, nil
}

func (booleanStrategy) Control(_ model.Field, value any) Control {
	b, _ := value.(bool)
	return Control{Checked: b}
}

func (s booleanStrategy) Normalize(field model.Field, raw any) any {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return truthy(v)
	default:
		return s.Default(field)
	}
}

func (booleanStrategy) Validate(field model.Field, value any) error {
	if _, ok := value.(bool); !ok {
		return failf("%s must be true or false", field.DisplayLabel())
	}
	return nil
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes", "y":
		return true
	default:
		return false
	}
}
