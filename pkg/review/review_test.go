package review

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mythforms/pkg/form"
	"github.com/goliatone/go-mythforms/pkg/model"
)

func deityInput() Input {
	mythology := model.Field{
		Name:     "mythology",
		Type:     model.FieldTypeSelect,
		Required: true,
		Options:  model.FieldOptions{Choices: []model.Choice{{Value: "greek", Label: "Greek"}}},
	}
	return Input{
		Title: "Deities",
		Steps: []model.Step{
			{Title: "Basic Information", Fields: []model.Field{
				{Name: "name", Label: "Name", Type: model.FieldTypeText, Required: true},
				mythology,
				{Name: "icon", Type: model.FieldTypeText},
			}},
			{Title: "Details", Fields: []model.Field{
				{Name: "description", Type: model.FieldTypeRichText},
				{Name: "importance", Type: model.FieldTypeNumber},
			}},
			{Title: "Relationships", Fields: []model.Field{
				{Name: "parentage", Type: model.FieldTypeKeyValue, Options: model.FieldOptions{Keys: []string{"father", "mother"}}},
				{Name: "consorts", Type: model.FieldTypeReferences},
			}},
		},
		Values: map[string]any{
			"name":        "Zeus",
			"mythology":   "greek",
			"icon":        "",
			"description": "<p>God of the <b>sky</b><script>alert(1)</script></p>",
			"importance":  95.0,
			"parentage":   map[string]string{"mother": "Rhea", "father": "Cronus"},
			"consorts":    []model.EntityReference{{ID: "hera", Name: "Hera"}},
		},
		Errors: map[string]string{},
	}
}

func TestBuild_SkipsEmptyValues(t *testing.T) {
	summary := Build(deityInput())

	var got []string
	for _, section := range summary.Sections {
		for _, entry := range section.Entries {
			got = append(got, entry.Label+"="+entry.Value)
		}
	}
	want := []string{
		"Name=Zeus",
		"Mythology=Greek",
		"Description=God of the sky",
		"Importance=95",
		"Parentage=father: Cronus, mother: Rhea",
		"Consorts=Hera",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ShowsErrorsAndEmptyOnRequest(t *testing.T) {
	in := deityInput()
	in.Values["name"] = ""
	in.Errors["name"] = "Name is required"
	in.ShowEmpty = true

	summary := Build(in)
	if summary.Problems != 1 {
		t.Fatalf("expected one problem, got %d", summary.Problems)
	}
	first := summary.Sections[0].Entries
	if first[0].Error != "Name is required" || first[0].Value != "(not set)" {
		t.Fatalf("unexpected name entry %+v", first[0])
	}
	if len(first) != 3 {
		t.Fatalf("expected empty icon to be listed, got %d entries", len(first))
	}
}

func TestDisplay_Excerpt(t *testing.T) {
	long := "<p>" + strings.Repeat("thunder ", 40) + "</p>"
	got := Display(model.Field{Type: model.FieldTypeRichText}, long)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected truncated excerpt, got %q", got)
	}
	if n := len([]rune(got)); n > MaxExcerpt+1 {
		t.Fatalf("excerpt too long: %d runes", n)
	}
}

func TestRenderer_Text(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var buf bytes.Buffer
	out, err := renderer.Render(Build(deityInput()), FormatText, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != buf.String() {
		t.Fatalf("writer copy differs from result")
	}
	for _, want := range []string{
		"Review: Deities",
		"1. Basic Information",
		"Mythology: Greek",
		"Parentage: father: Cronus, mother: Rhea",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "&") || strings.Contains(out, "<b>") {
		t.Fatalf("text output must be plain:\n%s", out)
	}
}

func TestRenderer_HTMLSanitises(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	in := deityInput()
	in.Values["name"] = "Zeus <Olympian>"
	out, err := renderer.Render(Build(in), FormatHTML)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script survived sanitising:\n%s", out)
	}
	if !strings.Contains(out, "<b>sky</b>") {
		t.Fatalf("expected rich text markup to survive:\n%s", out)
	}
	if !strings.Contains(out, "Zeus &lt;Olympian&gt;") {
		t.Fatalf("expected plain values to be escaped:\n%s", out)
	}
}

func TestRenderer_UnknownFormat(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := renderer.Render(Summary{}, Format("pdf")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRenderer_CustomTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"summary.txt.tpl": {Data: []byte("{{ summary.Title }}:{% for s in summary.Sections %} {{ s.Title }}{% endfor %}")},
	}
	renderer, err := New(WithTemplates(fsys))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(Build(deityInput()), FormatText)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Deities: Basic Information Details Relationships" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFromEngine(t *testing.T) {
	engine, err := form.New(context.Background(), "deities")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer engine.Dispose()
	if err := engine.Set("name", "Zeus"); err != nil {
		t.Fatalf("set: %v", err)
	}

	summary := FromEngine(engine, false)
	if summary.Title != "Deities" || summary.Category != "deities" {
		t.Fatalf("unexpected header %+v", summary)
	}
	if len(summary.Sections) == 0 || summary.Sections[0].Entries[0].Value != "Zeus" {
		t.Fatalf("expected name in first section, got %+v", summary.Sections)
	}
}
