package form

import (
	"context"

	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/references"
)

// Suggest searches references for a reference field immediately. Fields
// limited to exactly one entity type pass it as the lookup filter.
func (e *Engine) Suggest(ctx context.Context, name, query string) ([]model.EntityReference, error) {
	field, ok := e.byName[name]
	if !ok {
		return nil, ErrUnknownField
	}
	if field.Type != model.FieldTypeReferences {
		return nil, ErrFieldType
	}
	if e.resolver == nil {
		return []model.EntityReference{}, nil
	}
	return e.resolver.Search(ctx, query, typeFilter(field)), nil
}

// SuggestLater debounces a search for a reference field. deliver only runs
// for the newest query of the field; the returned sequence can be checked
// with SuggestionCurrent before rendering late results.
func (e *Engine) SuggestLater(name, query string, deliver references.Deliver) (uint64, error) {
	field, ok := e.byName[name]
	if !ok {
		return 0, ErrUnknownField
	}
	if field.Type != model.FieldTypeReferences {
		return 0, ErrFieldType
	}
	if e.resolver == nil {
		if deliver != nil {
			deliver(0, []model.EntityReference{})
		}
		return 0, nil
	}
	return e.resolver.Schedule(name, query, typeFilter(field), deliver), nil
}

// SuggestionCurrent reports whether seq is the newest query for a field.
func (e *Engine) SuggestionCurrent(name string, seq uint64) bool {
	if e.resolver == nil {
		return false
	}
	return e.resolver.IsCurrent(name, seq)
}

func typeFilter(field model.Field) string {
	if len(field.Options.EntityTypes) == 1 {
		return field.Options.EntityTypes[0]
	}
	return ""
}
