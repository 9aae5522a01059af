package fieldtypes

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// referencesStrategy holds []model.EntityReference. References are appended
// through the resolver and removed by index; rows are never edited in place.
type referencesStrategy struct{}

func (referencesStrategy) Type() model.FieldType { return model.FieldTypeReferences }

func (referencesStrategy) Default(model.Field) any {
	return []model.EntityReference{}
}

func (referencesStrategy) Extract(_ model.Field, control Control) (any, error) {
	out := []model.EntityReference{}
	for _, row := range control.Rows {
		if row.Empty() {
			continue
		}
		out = append(out, model.EntityReference{
			ID:   trimmed(row["id"]),
			Name: trimmed(row["name"]),
			Type: trimmed(row["type"]),
			Icon: trimmed(row["icon"]),
		})
	}
	return out, nil
}

func (referencesStrategy) Control(_ model.Field, value any) Control {
	refs, _ := value.([]model.EntityReference)
	rows := make([]Row, len(refs))
	for i, ref := range refs {
		rows[i] = Row{"id": ref.ID, "name": ref.Name, "type": ref.Type, "icon": ref.Icon}
	}
	return Control{Rows: rows}
}

func (referencesStrategy) Normalize(_ model.Field, raw any) any {
	out := []model.EntityReference{}
	switch v := raw.(type) {
	case []model.EntityReference:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			ref := model.EntityReference{
				ID:   asString(obj["id"]),
				Name: asString(obj["name"]),
				Type: asString(obj["type"]),
				Icon: asString(obj["icon"]),
			}
			if ref.ID == "" && ref.Name == "" {
				continue
			}
			out = append(out, ref)
		}
	}
	return out
}

func (referencesStrategy) Validate(field model.Field, value any) error {
	refs, ok := value.([]model.EntityReference)
	if !ok {
		return failf("%s must be a list of references", field.DisplayLabel())
	}
	label := field.DisplayLabel()
	if err := ParseRules(field).checkLength(label, len(refs), "item"); err != nil {
		return err
	}
	for i, ref := range refs {
		if ref.ID == "" {
			return failf("%s entry %d is missing an id", label, i+1)
		}
		if len(field.Options.EntityTypes) > 0 && !containsFold(field.Options.EntityTypes, ref.Type) {
			return failf("%s only accepts %s", label, strings.Join(field.Options.EntityTypes, ", "))
		}
	}
	return nil
}

// AppendReference appends ref. A reference whose id is already listed is
// rejected with ErrDuplicateReference.
func AppendReference(refs []model.EntityReference, ref model.EntityReference) ([]model.EntityReference, error) {
	out := append([]model.EntityReference{}, refs...)
	for _, existing := range refs {
		if existing.ID != "" && existing.ID == ref.ID {
			return out, ErrDuplicateReference
		}
	}
	return append(out, ref), nil
}

// RemoveReference removes the reference at index; later entries shift down.
func RemoveReference(refs []model.EntityReference, index int) ([]model.EntityReference, error) {
	if index < 0 || index >= len(refs) {
		return append([]model.EntityReference{}, refs...), ErrIndexOutOfRange
	}
	out := make([]model.EntityReference, 0, len(refs)-1)
	out = append(out, refs[:index]...)
	return append(out, refs[index+1:]...), nil
}

// parallelsStrategy holds cross-tradition parallels.
type parallelsStrategy struct{}

func (parallelsStrategy) Type() model.FieldType { return model.FieldTypeParallels }

func (parallelsStrategy) Default(model.Field) any {
	return []model.Parallel{}
}

func (parallelsStrategy) Extract(_ model.Field, control Control) (any, error) {
	out := []model.Parallel{}
	for _, row := range control.Rows {
		if row.Empty() {
			continue
		}
		out = append(out, model.Parallel{
			Tradition: trimmed(row["tradition"]),
			Name:      trimmed(row["name"]),
			Notes:     trimmed(row["notes"]),
		})
	}
	return out, nil
}

func (parallelsStrategy) Control(_ model.Field, value any) Control {
	items, _ := value.([]model.Parallel)
	rows := make([]Row, len(items))
	for i, item := range items {
		rows[i] = Row{"tradition": item.Tradition, "name": item.Name, "notes": item.Notes}
	}
	return Control{Rows: rows}
}

func (parallelsStrategy) Normalize(_ model.Field, raw any) any {
	out := []model.Parallel{}
	switch v := raw.(type) {
	case []model.Parallel:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, model.Parallel{
				Tradition: asString(obj["tradition"]),
				Name:      asString(obj["name"]),
				Notes:     asString(obj["notes"]),
			})
		}
	}
	return out
}

func (parallelsStrategy) Validate(field model.Field, value any) error {
	items, ok := value.([]model.Parallel)
	if !ok {
		return failf("%s must be a list of parallels", field.DisplayLabel())
	}
	label := field.DisplayLabel()
	if err := ParseRules(field).checkLength(label, len(items), "item"); err != nil {
		return err
	}
	for i, item := range items {
		if item.Tradition == "" || item.Name == "" {
			return failf("%s entry %d needs both a tradition and a name", label, i+1)
		}
		if len(field.Options.Traditions) > 0 && !containsFold(field.Options.Traditions, item.Tradition) {
			return failf("%s entry %d has an unknown tradition %q", label, i+1, item.Tradition)
		}
	}
	return nil
}

// sourcesStrategy holds source citations.
type sourcesStrategy struct{}

func (sourcesStrategy) Type() model.FieldType { return model.FieldTypeSources }

func (sourcesStrategy) Default(model.Field) any {
	return []model.SourceCitation{}
}

func (sourcesStrategy) Extract(_ model.Field, control Control) (any, error) {
	out := []model.SourceCitation{}
	for _, row := range control.Rows {
		if row.Empty() {
			continue
		}
		out = append(out, model.SourceCitation{
			Title:  trimmed(row["title"]),
			Author: trimmed(row["author"]),
			URL:    trimmed(row["url"]),
			Page:   trimmed(row["page"]),
		})
	}
	return out, nil
}

func (sourcesStrategy) Control(_ model.Field, value any) Control {
	items, _ := value.([]model.SourceCitation)
	rows := make([]Row, len(items))
	for i, item := range items {
		rows[i] = Row{"title": item.Title, "author": item.Author, "url": item.URL, "page": item.Page}
	}
	return Control{Rows: rows}
}

func (sourcesStrategy) Normalize(_ model.Field, raw any) any {
	out := []model.SourceCitation{}
	switch v := raw.(type) {
	case []model.SourceCitation:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			switch obj := item.(type) {
			case map[string]any:
				out = append(out, model.SourceCitation{
					Title:  asString(obj["title"]),
					Author: asString(obj["author"]),
					URL:    asString(obj["url"]),
					Page:   asString(obj["page"]),
				})
			case string:
				if obj = strings.TrimSpace(obj); obj != "" {
					out = append(out, model.SourceCitation{Title: obj})
				}
			}
		}
	}
	return out
}

func (sourcesStrategy) Validate(field model.Field, value any) error {
	items, ok := value.([]model.SourceCitation)
	if !ok {
		return failf("%s must be a list of sources", field.DisplayLabel())
	}
	label := field.DisplayLabel()
	if err := ParseRules(field).checkLength(label, len(items), "item"); err != nil {
		return err
	}
	for i, item := range items {
		if item.Title == "" {
			return failf("%s entry %d needs a title", label, i+1)
		}
		if item.URL != "" && !validURL(item.URL) {
			return failf("%s entry %d has an invalid URL", label, i+1)
		}
	}
	return nil
}

func validURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
