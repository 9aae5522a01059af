package tui

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/form"
	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/review"
)

const noneOption = "(none)"

var (
	parallelColumns = []string{"tradition", "name", "notes"}
	sourceColumns   = []string{"title", "author", "url", "page"}
)

func (w *Wizard) promptField(ctx context.Context, engine *form.Engine, field model.Field) error {
	if msg := engine.Error(field.Name); msg != "" {
		w.warn(ctx, msg)
	}
	switch field.Type {
	case model.FieldTypeTextarea, model.FieldTypeRichText:
		return w.promptTextArea(ctx, engine, field)
	case model.FieldTypeSelect:
		return w.promptSelect(ctx, engine, field)
	case model.FieldTypeBoolean:
		return w.promptBoolean(ctx, engine, field)
	case model.FieldTypeNumber, model.FieldTypeTags, model.FieldTypeList, model.FieldTypeCoordinates:
		return w.promptCommitted(ctx, engine, field)
	case model.FieldTypeKeyValue:
		return w.promptKeyValue(ctx, engine, field)
	case model.FieldTypeReferences:
		return w.promptReferences(ctx, engine, field)
	case model.FieldTypeParallels:
		return w.promptRows(ctx, engine, field, parallelColumns)
	case model.FieldTypeSources:
		return w.promptRows(ctx, engine, field, sourceColumns)
	case model.FieldTypeImage:
		return w.promptImage(ctx, engine, field)
	default:
		return w.promptText(ctx, engine, field)
	}
}

func (w *Wizard) promptText(ctx context.Context, engine *form.Engine, field model.Field) error {
	current, _ := engine.Value(field.Name).(string)
	answer, err := w.driver.Input(ctx, InputConfig{
		Message: field.DisplayLabel(),
		Default: current,
		Help:    fieldHelp(field),
	})
	if err != nil {
		return err
	}
	return engine.Set(field.Name, strings.TrimSpace(answer))
}

func (w *Wizard) promptTextArea(ctx context.Context, engine *form.Engine, field model.Field) error {
	current, _ := engine.Value(field.Name).(string)
	answer, err := w.driver.TextArea(ctx, TextAreaConfig{
		Message: field.DisplayLabel(),
		Default: current,
		Help:    fieldHelp(field),
	})
	if err != nil {
		return err
	}
	return engine.Set(field.Name, answer)
}

func (w *Wizard) promptSelect(ctx context.Context, engine *form.Engine, field model.Field) error {
	current, _ := engine.Value(field.Name).(string)
	var options, values []string
	if !field.Required {
		options = append(options, noneOption)
		values = append(values, "")
	}
	for _, choice := range field.Options.Choices {
		label := choice.Label
		if label == "" {
			label = choice.Value
		}
		options = append(options, label)
		values = append(values, choice.Value)
	}
	choice, err := w.driver.Select(ctx, SelectConfig{
		Message:      field.DisplayLabel(),
		Options:      options,
		DefaultIndex: max(indexOf(values, current), 0),
		Help:         fieldHelp(field),
	})
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(values) {
		return nil
	}
	return engine.Set(field.Name, values[choice])
}

func (w *Wizard) promptBoolean(ctx context.Context, engine *form.Engine, field model.Field) error {
	current, _ := engine.Value(field.Name).(bool)
	answer, err := w.driver.Confirm(ctx, ConfirmConfig{
		Message: field.DisplayLabel(),
		Default: current,
		Help:    fieldHelp(field),
	})
	if err != nil {
		return err
	}
	return engine.Set(field.Name, answer)
}

// promptCommitted reads one line and lets the field's strategy parse it.
func (w *Wizard) promptCommitted(ctx context.Context, engine *form.Engine, field model.Field) error {
	help := fieldHelp(field)
	switch field.Type {
	case model.FieldTypeTags, model.FieldTypeList:
		help = joinHelp(help, "Separate entries with commas.")
		if len(field.Options.Suggestions) > 0 {
			help = joinHelp(help, "Suggestions: "+strings.Join(field.Options.Suggestions, ", "))
		}
	case model.FieldTypeCoordinates:
		help = joinHelp(help, "Latitude, longitude.")
	}
	answer, err := w.driver.Input(ctx, InputConfig{
		Message: field.DisplayLabel(),
		Default: controlText(engine, field),
		Help:    help,
	})
	if err != nil {
		return err
	}
	return engine.Commit(field.Name, fieldtypes.Control{Text: answer})
}

func (w *Wizard) promptKeyValue(ctx context.Context, engine *form.Engine, field model.Field) error {
	current, _ := engine.Value(field.Name).(map[string]string)
	if len(field.Options.Keys) > 0 {
		for _, key := range field.Options.Keys {
			answer, err := w.driver.Input(ctx, InputConfig{
				Message: field.DisplayLabel() + ": " + key,
				Default: current[key],
			})
			if err != nil {
				return err
			}
			if err := engine.SetKey(field.Name, key, answer); err != nil {
				return err
			}
		}
		return nil
	}

	answer, err := w.driver.Input(ctx, InputConfig{
		Message: field.DisplayLabel(),
		Default: formatPairs(current),
		Help:    joinHelp(fieldHelp(field), "Use key=value, separated by commas."),
	})
	if err != nil {
		return err
	}
	var rows []fieldtypes.Row
	for _, pair := range strings.Split(answer, ",") {
		key, value, _ := strings.Cut(pair, "=")
		if strings.TrimSpace(key) == "" {
			continue
		}
		rows = append(rows, fieldtypes.Row{"key": strings.TrimSpace(key), "value": strings.TrimSpace(value)})
	}
	return engine.Commit(field.Name, fieldtypes.Control{Rows: rows})
}

// promptReferences lets the user drop linked records, then search for more
// until an empty query.
func (w *Wizard) promptReferences(ctx context.Context, engine *form.Engine, field model.Field) error {
	label := field.DisplayLabel()
	current, _ := engine.Value(field.Name).([]model.EntityReference)
	if len(current) > 0 {
		options := make([]string, len(current))
		keep := make([]int, len(current))
		for i, ref := range current {
			options[i] = referenceOption(ref)
			keep[i] = i
		}
		chosen, err := w.driver.MultiSelect(ctx, SelectConfig{
			Message:  "Keep " + label,
			Options:  options,
			Defaults: keep,
		})
		if err != nil {
			return err
		}
		kept := make(map[int]bool, len(chosen))
		for _, idx := range chosen {
			kept[idx] = true
		}
		for i := len(current) - 1; i >= 0; i-- {
			if kept[i] {
				continue
			}
			if err := engine.RemoveReference(field.Name, i); err != nil {
				return err
			}
		}
	}

	for {
		query, err := w.driver.Input(ctx, InputConfig{
			Message: label + ": search",
			Help:    joinHelp(fieldHelp(field), "Leave blank to finish."),
		})
		if err != nil {
			return err
		}
		query = strings.TrimSpace(query)
		if query == "" {
			return nil
		}
		hits, err := engine.Suggest(ctx, field.Name, query)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			w.info(ctx, fmt.Sprintf("No matches for %q.", query))
			continue
		}
		options := make([]string, len(hits))
		for i, hit := range hits {
			options[i] = referenceOption(hit)
		}
		chosen, err := w.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: options})
		if err != nil {
			return err
		}
		sort.Ints(chosen)
		for _, idx := range chosen {
			if idx < 0 || idx >= len(hits) {
				continue
			}
			err := engine.AddReference(field.Name, hits[idx])
			if errors.Is(err, fieldtypes.ErrDuplicateReference) {
				w.info(ctx, hits[idx].Name+" is already linked.")
				continue
			}
			if err != nil {
				return err
			}
		}
	}
}

// promptRows edits record lists one "a | b | c" line per entry.
func (w *Wizard) promptRows(ctx context.Context, engine *form.Engine, field model.Field, columns []string) error {
	label := field.DisplayLabel()
	rows := engine.Strategies().For(field).Control(field, engine.Value(field.Name)).Rows
	if len(rows) > 0 {
		w.info(ctx, label+": "+review.Display(field, engine.Value(field.Name)))
		keep, err := w.driver.Confirm(ctx, ConfirmConfig{Message: "Keep existing " + strings.ToLower(label) + "?", Default: true})
		if err != nil {
			return err
		}
		if !keep {
			rows = nil
		}
	}
	for {
		answer, err := w.driver.Input(ctx, InputConfig{
			Message: label + ": add",
			Help:    joinHelp(fieldHelp(field), "Format: "+strings.Join(columns, " | ")+". Leave blank to finish."),
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(answer) == "" {
			break
		}
		parts := strings.Split(answer, "|")
		row := fieldtypes.Row{}
		for i, column := range columns {
			if i < len(parts) {
				row[column] = strings.TrimSpace(parts[i])
			}
		}
		rows = append(rows, row)
	}
	if err := engine.Commit(field.Name, fieldtypes.Control{Rows: rows}); err != nil {
		return err
	}
	if msg := engine.Error(field.Name); msg != "" {
		w.warn(ctx, msg)
	}
	return nil
}

// promptImage accepts a local path, an http(s) URL or "-" to clear. Rejected
// files are reported and asked for again.
func (w *Wizard) promptImage(ctx context.Context, engine *form.Engine, field model.Field) error {
	help := joinHelp(fieldHelp(field), "Path to a local file or an http(s) URL. Enter - to clear, blank to keep.")
	if len(field.Options.Accept) > 0 {
		help = joinHelp(help, "Accepted: "+strings.Join(field.Options.Accept, ", "))
	}
	for {
		if att, ok := engine.Value(field.Name).(model.Attachment); ok && !att.IsZero() {
			w.info(ctx, field.DisplayLabel()+": "+review.Display(field, att))
		}
		answer, err := w.driver.Input(ctx, InputConfig{Message: field.DisplayLabel(), Help: help})
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(answer)
		switch {
		case answer == "":
			return nil
		case answer == "-":
			return engine.Detach(field.Name)
		case strings.HasPrefix(answer, "http://"), strings.HasPrefix(answer, "https://"):
			return engine.Set(field.Name, answer)
		}

		data, err := w.readFile(answer)
		if err != nil {
			w.warn(ctx, fmt.Sprintf("Cannot read %s: %v", answer, err))
			continue
		}
		upload := model.Upload{
			Filename:    filepath.Base(answer),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(answer))),
			Data:        data,
		}
		err = engine.Attach(field.Name, upload)
		var uploadErr *fieldtypes.UploadError
		if errors.As(err, &uploadErr) {
			w.warn(ctx, uploadErr.Message)
			continue
		}
		return err
	}
}

func controlText(engine *form.Engine, field model.Field) string {
	control := engine.Strategies().For(field).Control(field, engine.Value(field.Name))
	if control.Text != "" || len(control.Rows) == 0 {
		return control.Text
	}
	items := make([]string, 0, len(control.Rows))
	for _, row := range control.Rows {
		if v := row["value"]; v != "" {
			items = append(items, v)
		}
	}
	return strings.Join(items, ", ")
}

func referenceOption(ref model.EntityReference) string {
	name := ref.Name
	if name == "" {
		name = ref.ID
	}
	if ref.Type != "" {
		return fmt.Sprintf("%s (%s)", name, ref.Type)
	}
	return name
}

func formatPairs(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for key, value := range values {
		if value != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, key := range keys {
		pairs[i] = key + "=" + values[key]
	}
	return strings.Join(pairs, ", ")
}

func fieldHelp(field model.Field) string {
	if field.Description != "" {
		return field.Description
	}
	return field.Placeholder
}

func joinHelp(parts ...string) string {
	var out []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, " ")
}
