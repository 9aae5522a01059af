package form

import (
	"errors"

	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/model"
)

// Set replaces a field value. The value is coerced into the field's shape.
func (e *Engine) Set(name string, value any) error {
	return e.mutate(name, nil, func(field model.Field, _ any) (any, error) {
		return e.strategies.For(field).Normalize(field, value), nil
	})
}

// Commit extracts a value from rendered control state and stores it. A
// control the field type refuses (an oversize upload, say) records a field
// error and leaves the value unchanged.
func (e *Engine) Commit(name string, control fieldtypes.Control) error {
	return e.mutate(name, nil, func(field model.Field, _ any) (any, error) {
		return e.strategies.For(field).Extract(field, control)
	})
}

// AddTag appends a tag; case-insensitive duplicates return
// fieldtypes.ErrDuplicateTag.
func (e *Engine) AddTag(name, tag string) error {
	return e.mutate(name, types(model.FieldTypeTags), func(_ model.Field, current any) (any, error) {
		return fieldtypes.AddTag(asStrings(current), tag)
	})
}

// RemoveTag removes a tag by value.
func (e *Engine) RemoveTag(name, tag string) error {
	return e.mutate(name, types(model.FieldTypeTags), func(_ model.Field, current any) (any, error) {
		return fieldtypes.RemoveTag(asStrings(current), tag), nil
	})
}

// AddItem appends to an ordered list.
func (e *Engine) AddItem(name, item string) error {
	return e.mutate(name, types(model.FieldTypeList), func(_ model.Field, current any) (any, error) {
		return fieldtypes.AddItem(asStrings(current), item), nil
	})
}

// UpdateItem replaces the list item at index.
func (e *Engine) UpdateItem(name string, index int, item string) error {
	return e.mutate(name, types(model.FieldTypeList), func(_ model.Field, current any) (any, error) {
		return fieldtypes.UpdateItem(asStrings(current), index, item)
	})
}

// RemoveItem removes the list item at index.
func (e *Engine) RemoveItem(name string, index int) error {
	return e.mutate(name, types(model.FieldTypeList), func(_ model.Field, current any) (any, error) {
		return fieldtypes.RemoveItem(asStrings(current), index)
	})
}

// MoveItem moves a list item from one position to another.
func (e *Engine) MoveItem(name string, from, to int) error {
	return e.mutate(name, types(model.FieldTypeList), func(_ model.Field, current any) (any, error) {
		return fieldtypes.MoveItem(asStrings(current), from, to)
	})
}

// SetKey writes one entry of a key-value field.
func (e *Engine) SetKey(name, key, value string) error {
	return e.mutate(name, types(model.FieldTypeKeyValue), func(field model.Field, current any) (any, error) {
		return fieldtypes.SetKey(field, asStringMap(current), key, value)
	})
}

// RemoveKey clears one entry of a key-value field.
func (e *Engine) RemoveKey(name, key string) error {
	return e.mutate(name, types(model.FieldTypeKeyValue), func(field model.Field, current any) (any, error) {
		return fieldtypes.RemoveKey(field, asStringMap(current), key), nil
	})
}

// AddReference appends an entity reference; an id already listed returns
// fieldtypes.ErrDuplicateReference.
func (e *Engine) AddReference(name string, ref model.EntityReference) error {
	return e.mutate(name, types(model.FieldTypeReferences), func(_ model.Field, current any) (any, error) {
		refs, _ := current.([]model.EntityReference)
		return fieldtypes.AppendReference(refs, ref)
	})
}

// RemoveReference removes the reference at index.
func (e *Engine) RemoveReference(name string, index int) error {
	return e.mutate(name, types(model.FieldTypeReferences), func(_ model.Field, current any) (any, error) {
		refs, _ := current.([]model.EntityReference)
		return fieldtypes.RemoveReference(refs, index)
	})
}

// Attach stores a pending upload for an image field once it passes the
// field's size and type limits. Any previous URL is replaced.
func (e *Engine) Attach(name string, upload model.Upload) error {
	return e.mutate(name, types(model.FieldTypeImage), func(field model.Field, _ any) (any, error) {
		return e.strategies.For(field).Extract(field, fieldtypes.Control{Upload: &upload})
	})
}

// Detach clears an image field.
func (e *Engine) Detach(name string) error {
	return e.mutate(name, types(model.FieldTypeImage), func(model.Field, any) (any, error) {
		return model.Attachment{}, nil
	})
}

func types(kinds ...model.FieldType) []model.FieldType {
	return kinds
}

// mutate applies fn to a field's current value under the lock. On success
// the value is stored, the session turns dirty, an existing error on the
// field is re-checked and the autosave timer is re-armed. Failures from fn
// that carry a user message become the field's error.
func (e *Engine) mutate(name string, allowed []model.FieldType, fn func(model.Field, any) (any, error)) error {
	field, ok := e.byName[name]
	if !ok {
		return ErrUnknownField
	}
	if len(allowed) > 0 && !containsType(allowed, field.Type) {
		return ErrFieldType
	}

	e.mu.Lock()
	if e.submitted {
		e.mu.Unlock()
		return ErrSubmitted
	}
	if e.submitting.Load() {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	next, err := fn(field, e.values[name])
	if err != nil {
		var uploadErr *fieldtypes.UploadError
		if errors.As(err, &uploadErr) {
			e.errors[name] = uploadErr.Message
		}
		e.mu.Unlock()
		return err
	}
	e.values[name] = next
	e.dirty = true
	if _, hadError := e.errors[name]; hadError {
		if verr := e.validator.Field(field, next); verr != nil {
			e.errors[name] = verr.Error()
		} else {
			delete(e.errors, name)
		}
	}
	e.mu.Unlock()

	e.autosave.Reschedule()
	return nil
}

func containsType(list []model.FieldType, kind model.FieldType) bool {
	for _, item := range list {
		if item == kind {
			return true
		}
	}
	return false
}

func asStrings(value any) []string {
	items, _ := value.([]string)
	return items
}

func asStringMap(value any) map[string]string {
	values, _ := value.(map[string]string)
	if values == nil {
		return map[string]string{}
	}
	return values
}
