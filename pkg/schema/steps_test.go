package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mythforms/pkg/model"
)

func TestOrganize(t *testing.T) {
	fields := []model.Field{
		{Name: "metadata.status", Group: GroupSystem},
		{Name: "name", Group: GroupBasic},
		{Name: "mystery", Group: "unheard-of"},
		{Name: "summary", Group: GroupDetails},
		{Name: "noGroup"},
		{Name: "sources", Group: GroupSources},
	}

	steps := Organize(fields)

	type stepView struct {
		ID     string
		Title  string
		Fields []string
	}
	got := make([]stepView, len(steps))
	for i, step := range steps {
		got[i] = stepView{ID: step.ID, Title: step.Title, Fields: step.FieldNames()}
	}
	want := []stepView{
		{ID: GroupBasic, Title: "Basic Information", Fields: []string{"name"}},
		{ID: GroupDetails, Title: "Details", Fields: []string{"mystery", "summary", "noGroup"}},
		{ID: GroupSources, Title: "Sources", Fields: []string{"sources"}},
		{ID: GroupSystem, Title: "Publishing", Fields: []string{"metadata.status"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestOrganize_Deterministic(t *testing.T) {
	fields := MustRegistry().Schema("deities")
	first := Organize(fields)
	second := Organize(fields)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("organize is not deterministic:\n%s", diff)
	}
	ids := make([]string, len(first))
	for i, step := range first {
		ids[i] = step.ID
	}
	want := []string{GroupBasic, GroupDetails, GroupAttributes, GroupRelationships, GroupDomain, GroupSources, GroupSystem}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("deity steps mismatch (-want +got):\n%s", diff)
	}
}

func TestOrganize_Empty(t *testing.T) {
	if steps := Organize(nil); len(steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(steps))
	}
}
