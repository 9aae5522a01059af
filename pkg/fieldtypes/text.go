package fieldtypes

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// DateLayout is the wire format of date fields.
const DateLayout = "2006-01-02"

type textStrategy struct {
	kind      model.FieldType
	multiline bool
}

func (s textStrategy) Type() model.FieldType { return s.kind }

func (s textStrategy) Default(field model.Field) any {
	return stringDefault(field)
}

func (s textStrategy) Extract(_ model.Field, control Control) (any, error) {
	return strings.TrimSpace(control.Text), nil
}

func (s textStrategy) Control(_ model.Field, value any) Control {
	return Control{Text: asString(value)}
}

func (s textStrategy) Normalize(field model.Field, raw any) any {
	if raw == nil {
		return s.Default(field)
	}
	return asString(raw)
}

func (s textStrategy) Validate(field model.Field, value any) error {
	str, ok := value.(string)
	if !ok {
		return failf("%s must be text", field.DisplayLabel())
	}
	rules := ParseRules(field)
	label := field.DisplayLabel()
	if err := rules.checkLength(label, utf8.RuneCountInString(str), "character"); err != nil {
		return err
	}
	return rules.checkPattern(label, str)
}

type richTextStrategy struct{}

func (richTextStrategy) Type() model.FieldType { return model.FieldTypeRichText }

func (richTextStrategy) Default(field model.Field) any {
	return stringDefault(field)
}

func (richTextStrategy) Extract(_ model.Field, control Control) (any, error) {
	return strings.TrimSpace(control.Text), nil
}

func (richTextStrategy) Control(_ model.Field, value any) Control {
	return Control{Text: asString(value)}
}

func (s richTextStrategy) Normalize(field model.Field, raw any) any {
	if raw == nil {
		return s.Default(field)
	}
	return asString(raw)
}

// Validate measures length on the text with markup stripped; patterns still
// apply to the stored markup.
func (richTextStrategy) Validate(field model.Field, value any) error {
	str, ok := value.(string)
	if !ok {
		return failf("%s must be text", field.DisplayLabel())
	}
	rules := ParseRules(field)
	label := field.DisplayLabel()
	if err := rules.checkLength(label, utf8.RuneCountInString(PlainText(str)), "character"); err != nil {
		return err
	}
	return rules.checkPattern(label, str)
}

var (
	stripOnce   sync.Once
	stripPolicy *bluemonday.Policy
)

// PlainText strips markup from rich text and decodes entities, returning the
// text a reader would see.
func PlainText(markup string) string {
	stripOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(markup)))
}

type selectStrategy struct{}

func (selectStrategy) Type() model.FieldType { return model.FieldTypeSelect }

func (selectStrategy) Default(field model.Field) any {
	return stringDefault(field)
}

func (selectStrategy) Extract(_ model.Field, control Control) (any, error) {
	return strings.TrimSpace(control.Text), nil
}

func (selectStrategy) Control(_ model.Field, value any) Control {
	return Control{Text: asString(value)}
}

func (s selectStrategy) Normalize(field model.Field, raw any) any {
	if raw == nil {
		return s.Default(field)
	}
	return asString(raw)
}

func (selectStrategy) Validate(field model.Field, value any) error {
	str, ok := value.(string)
	if !ok {
		return failf("%s must be one of the listed options", field.DisplayLabel())
	}
	if len(field.Options.Choices) == 0 {
		return nil
	}
	for _, choice := range field.Options.Choices {
		if choice.Value == str {
			return nil
		}
	}
	return failf("%s must be one of the listed options", field.DisplayLabel())
}

type dateStrategy struct{}

func (dateStrategy) Type() model.FieldType { return model.FieldTypeDate }

func (dateStrategy) Default(field model.Field) any {
	return stringDefault(field)
}

func (dateStrategy) Extract(_ model.Field, control Control) (any, error) {
	return strings.TrimSpace(control.Text), nil
}

func (dateStrategy) Control(_ model.Field, value any) Control {
	return Control{Text: asString(value)}
}

func (s dateStrategy) Normalize(field model.Field, raw any) any {
	switch v := raw.(type) {
	case nil:
		return s.Default(field)
	case time.Time:
		return v.Format(DateLayout)
	default:
		str := asString(v)
		if ts, err := time.Parse(time.RFC3339, str); err == nil {
			return ts.Format(DateLayout)
		}
		return str
	}
}

func (dateStrategy) Validate(field model.Field, value any) error {
	str, ok := value.(string)
	if !ok {
		return failf("%s must be a date", field.DisplayLabel())
	}
	if _, err := time.Parse(DateLayout, str); err != nil {
		return failf("%s must be a date (YYYY-MM-DD)", field.DisplayLabel())
	}
	return nil
}

func stringDefault(field model.Field) string {
	if field.Default == nil {
		return ""
	}
	return asString(field.Default)
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
