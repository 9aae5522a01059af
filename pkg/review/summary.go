// Package review turns a form session into a read-only summary of every
// step and renders it before submission, as plain text for terminals or as
// sanitised HTML for previews.
package review

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/form"
	"github.com/goliatone/go-mythforms/pkg/model"
)

// MaxExcerpt bounds the plain-text rendering of rich text values.
const MaxExcerpt = 160

// Entry is one field of a summary section. HTML holds the sanitised markup
// of rich text fields and is empty otherwise.
type Entry struct {
	Name  string
	Label string
	Value string
	HTML  string
	Error string
	Empty bool
}

// Section groups the entries of one wizard step.
type Section struct {
	Number  int
	Title   string
	Entries []Entry
}

// Summary is the data handed to the review templates.
type Summary struct {
	Title    string
	Category string
	RecordID string
	Sections []Section
	Problems int
}

// Input collects what Build needs from a session.
type Input struct {
	Title     string
	Category  string
	RecordID  string
	Steps     []model.Step
	Values    map[string]any
	Errors    map[string]string
	ShowEmpty bool
}

// FromEngine summarises the current state of a form session.
func FromEngine(engine *form.Engine, showEmpty bool) Summary {
	return Build(Input{
		Title:     model.DefaultLabeler(engine.Category()),
		Category:  engine.Category(),
		RecordID:  engine.RecordID(),
		Steps:     engine.Steps(),
		Values:    engine.Values(),
		Errors:    engine.Errors(),
		ShowEmpty: showEmpty,
	})
}

// Build lays the values out by step. Empty values are left out unless
// ShowEmpty is set; fields with an error are always listed.
func Build(in Input) Summary {
	out := Summary{
		Title:    in.Title,
		Category: in.Category,
		RecordID: in.RecordID,
	}
	for i, step := range in.Steps {
		section := Section{Number: i + 1, Title: step.Title}
		for _, field := range step.Fields {
			value := in.Values[field.Name]
			entry := Entry{
				Name:  field.Name,
				Label: field.DisplayLabel(),
				Error: in.Errors[field.Name],
				Empty: fieldtypes.IsEmpty(value),
			}
			if entry.Error != "" {
				out.Problems++
			}
			if entry.Empty && entry.Error == "" && !in.ShowEmpty {
				continue
			}
			entry.Value = Display(field, value)
			if field.Type == model.FieldTypeRichText && !entry.Empty {
				entry.HTML = sanitize(asString(value))
			}
			section.Entries = append(section.Entries, entry)
		}
		if len(section.Entries) > 0 {
			out.Sections = append(out.Sections, section)
		}
	}
	return out
}

// Display renders a value as a single line of plain text.
func Display(field model.Field, value any) string {
	if fieldtypes.IsEmpty(value) {
		return "(not set)"
	}
	switch v := value.(type) {
	case string:
		switch field.Type {
		case model.FieldTypeRichText:
			return excerpt(fieldtypes.PlainText(v), MaxExcerpt)
		case model.FieldTypeSelect:
			return choiceLabel(field, v)
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case []string:
		return strings.Join(v, ", ")
	case map[string]string:
		return joinPairs(field, v)
	case []model.EntityReference:
		names := make([]string, 0, len(v))
		for _, ref := range v {
			names = append(names, firstNonEmpty(ref.Name, ref.ID))
		}
		return strings.Join(names, ", ")
	case []model.Parallel:
		items := make([]string, 0, len(v))
		for _, p := range v {
			items = append(items, p.Tradition+": "+p.Name)
		}
		return strings.Join(items, "; ")
	case []model.SourceCitation:
		items := make([]string, 0, len(v))
		for _, src := range v {
			item := src.Title
			if src.Author != "" {
				item += " (" + src.Author + ")"
			}
			items = append(items, item)
		}
		return strings.Join(items, "; ")
	case model.Attachment:
		if v.Pending() {
			return "pending upload: " + v.Upload.Filename
		}
		return v.URL
	case *model.Coordinates:
		return fmt.Sprintf("%.4f, %.4f", v.Lat, v.Lng)
	}
	return fmt.Sprint(value)
}

func choiceLabel(field model.Field, value string) string {
	for _, choice := range field.Options.Choices {
		if choice.Value == value && choice.Label != "" {
			return choice.Label
		}
	}
	return value
}

// joinPairs lists declared keys in declaration order and open keys sorted.
func joinPairs(field model.Field, values map[string]string) string {
	keys := field.Options.Keys
	if len(keys) == 0 {
		keys = make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		if val := strings.TrimSpace(values[key]); val != "" {
			pairs = append(pairs, key+": "+val)
		}
	}
	return strings.Join(pairs, ", ")
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

var ugcPolicy = bluemonday.UGCPolicy()

func sanitize(markup string) string {
	return ugcPolicy.Sanitize(markup)
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
