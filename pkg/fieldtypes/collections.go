package fieldtypes

import (
	"sort"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/model"
)

const valueColumn = "value"

// tagsStrategy holds an ordered set of strings. Duplicates are detected
// case-insensitively and the first spelling wins.
type tagsStrategy struct{}

func (tagsStrategy) Type() model.FieldType { return model.FieldTypeTags }

func (tagsStrategy) Default(field model.Field) any {
	return dedupeTags(stringList(field.Default))
}

func (tagsStrategy) Extract(_ model.Field, control Control) (any, error) {
	return dedupeTags(rowValues(control)), nil
}

func (tagsStrategy) Control(_ model.Field, value any) Control {
	return valuesControl(stringList(value))
}

func (tagsStrategy) Normalize(_ model.Field, raw any) any {
	return dedupeTags(stringList(raw))
}

func (tagsStrategy) Validate(field model.Field, value any) error {
	return validateStrings(field, value)
}

// listStrategy holds strings in insertion order. It has no duplicate guard.
type listStrategy struct{}

func (listStrategy) Type() model.FieldType { return model.FieldTypeList }

func (listStrategy) Default(field model.Field) any {
	return stringList(field.Default)
}

func (listStrategy) Extract(_ model.Field, control Control) (any, error) {
	return rowValues(control), nil
}

func (listStrategy) Control(_ model.Field, value any) Control {
	return valuesControl(stringList(value))
}

func (listStrategy) Normalize(_ model.Field, raw any) any {
	return stringList(raw)
}

func (listStrategy) Validate(field model.Field, value any) error {
	return validateStrings(field, value)
}

func validateStrings(field model.Field, value any) error {
	items, ok := value.([]string)
	if !ok {
		return failf("%s must be a list", field.DisplayLabel())
	}
	rules := ParseRules(field)
	label := field.DisplayLabel()
	if err := rules.checkLength(label, len(items), "item"); err != nil {
		return err
	}
	for _, item := range items {
		if err := rules.checkPattern(label, item); err != nil {
			return err
		}
	}
	return nil
}

// keyValueStrategy holds map[string]string. With declared keys the map is
// limited to those keys; otherwise keys are free-form rows.
type keyValueStrategy struct{}

const (
	keyColumn = "key"
)

func (keyValueStrategy) Type() model.FieldType { return model.FieldTypeKeyValue }

func (keyValueStrategy) Default(field model.Field) any {
	out := make(map[string]string, len(field.Options.Keys))
	for _, key := range field.Options.Keys {
		out[key] = ""
	}
	for key, value := range stringMap(field.Default) {
		if fixedKeys(field) && !declaredKey(field, key) {
			continue
		}
		out[key] = value
	}
	return out
}

// Extract keeps every declared key of a fixed-key field, blank or not; open
// fields drop rows without a key or value. Blanks are stripped on Encode.
func (keyValueStrategy) Extract(field model.Field, control Control) (any, error) {
	out := make(map[string]string, len(field.Options.Keys))
	if fixedKeys(field) {
		for _, key := range field.Options.Keys {
			out[key] = ""
		}
	}
	for _, row := range control.Rows {
		key := strings.TrimSpace(row[keyColumn])
		value := strings.TrimSpace(row[valueColumn])
		if key == "" || value == "" {
			continue
		}
		if fixedKeys(field) && !declaredKey(field, key) {
			continue
		}
		out[key] = value
	}
	return out, nil
}

func (keyValueStrategy) Control(field model.Field, value any) Control {
	values := stringMap(value)
	if fixedKeys(field) {
		rows := make([]Row, 0, len(field.Options.Keys))
		for _, key := range field.Options.Keys {
			rows = append(rows, Row{keyColumn: key, valueColumn: values[key]})
		}
		return Control{Rows: rows}
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, Row{keyColumn: key, valueColumn: values[key]})
	}
	return Control{Rows: rows}
}

func (s keyValueStrategy) Normalize(field model.Field, raw any) any {
	out := s.Default(field).(map[string]string)
	for key, value := range stringMap(raw) {
		if fixedKeys(field) && !declaredKey(field, key) {
			continue
		}
		out[key] = value
	}
	return out
}

func (keyValueStrategy) Validate(field model.Field, value any) error {
	values, ok := value.(map[string]string)
	if !ok {
		return failf("%s must be a set of key/value pairs", field.DisplayLabel())
	}
	label := field.DisplayLabel()
	for key := range values {
		if fixedKeys(field) && !declaredKey(field, key) {
			return failf("%s does not accept the key %q", label, key)
		}
	}
	rules := ParseRules(field)
	for _, key := range sortedKeys(values) {
		if strings.TrimSpace(values[key]) == "" {
			continue
		}
		if err := rules.checkPattern(label, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// AddTag appends tag unless an entry matches it case-insensitively, in which
// case ErrDuplicateTag is returned with the list unchanged. Blank tags are
// ignored.
func AddTag(tags []string, tag string) ([]string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return cloneStrings(tags), nil
	}
	for _, existing := range tags {
		if strings.EqualFold(existing, tag) {
			return cloneStrings(tags), ErrDuplicateTag
		}
	}
	return append(cloneStrings(tags), tag), nil
}

// RemoveTag removes the entry equal to tag. Matching is by value, not index.
func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	removed := false
	for _, existing := range tags {
		if !removed && existing == tag {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	return out
}

// AddItem appends an item to an ordered list. Blank items are ignored.
func AddItem(items []string, item string) []string {
	item = strings.TrimSpace(item)
	out := cloneStrings(items)
	if item == "" {
		return out
	}
	return append(out, item)
}

// UpdateItem replaces the item at index.
func UpdateItem(items []string, index int, item string) ([]string, error) {
	if index < 0 || index >= len(items) {
		return cloneStrings(items), ErrIndexOutOfRange
	}
	out := cloneStrings(items)
	out[index] = strings.TrimSpace(item)
	return out, nil
}

// RemoveItem removes the item at index; later items shift down by one.
func RemoveItem(items []string, index int) ([]string, error) {
	if index < 0 || index >= len(items) {
		return cloneStrings(items), ErrIndexOutOfRange
	}
	out := make([]string, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...), nil
}

// MoveItem moves the item at from so it ends up at position to.
func MoveItem(items []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return cloneStrings(items), ErrIndexOutOfRange
	}
	out, _ := RemoveItem(items, from)
	out = append(out, "")
	copy(out[to+1:], out[to:])
	out[to] = items[from]
	return out, nil
}

// SetKey writes a key-value entry. Fields with declared keys reject others.
func SetKey(field model.Field, values map[string]string, key, value string) (map[string]string, error) {
	key = strings.TrimSpace(key)
	out := cloneStringMap(values)
	if key == "" {
		return out, nil
	}
	if fixedKeys(field) && !declaredKey(field, key) {
		return out, ErrUnknownKey
	}
	out[key] = strings.TrimSpace(value)
	return out, nil
}

// RemoveKey clears an entry. Declared keys are reset to the empty string so
// the fixed key set stays intact; open keys are deleted.
func RemoveKey(field model.Field, values map[string]string, key string) map[string]string {
	out := cloneStringMap(values)
	if fixedKeys(field) && declaredKey(field, key) {
		out[key] = ""
		return out
	}
	delete(out, key)
	return out
}

func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		next, err := AddTag(out, tag)
		if err == nil {
			out = next
		}
	}
	return out
}

// rowValues reads the value column of every non-blank row, falling back to a
// comma-separated Text when the control has no rows.
func rowValues(control Control) []string {
	out := make([]string, 0, len(control.Rows))
	if len(control.Rows) == 0 && strings.TrimSpace(control.Text) != "" {
		for _, part := range strings.Split(control.Text, ",") {
			if item := strings.TrimSpace(part); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	for _, row := range control.Rows {
		if item := strings.TrimSpace(row[valueColumn]); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func valuesControl(items []string) Control {
	rows := make([]Row, len(items))
	for i, item := range items {
		rows[i] = Row{valueColumn: item}
	}
	return Control{Rows: rows}
}

func stringList(raw any) []string {
	out := []string{}
	switch v := raw.(type) {
	case []string:
		for _, item := range v {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	case []any:
		for _, item := range v {
			if str := strings.TrimSpace(asString(item)); str != "" {
				out = append(out, str)
			}
		}
	case string:
		if str := strings.TrimSpace(v); str != "" {
			out = append(out, str)
		}
	}
	return out
}

func stringMap(raw any) map[string]string {
	out := make(map[string]string)
	switch v := raw.(type) {
	case map[string]string:
		for key, value := range v {
			out[key] = value
		}
	case map[string]any:
		for key, value := range v {
			out[key] = asString(value)
		}
	}
	return out
}

func fixedKeys(field model.Field) bool {
	return len(field.Options.Keys) > 0
}

func declaredKey(field model.Field, key string) bool {
	for _, declared := range field.Options.Keys {
		if declared == key {
			return true
		}
	}
	return false
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneStrings(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func cloneStringMap(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}

// Encode drops blank entries so only filled keys reach the record payload.
func (keyValueStrategy) Encode(_ model.Field, value any) any {
	out := make(map[string]string)
	for key, val := range stringMap(value) {
		if strings.TrimSpace(val) != "" {
			out[key] = val
		}
	}
	return out
}
