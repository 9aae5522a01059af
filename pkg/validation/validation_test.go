package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mythforms/pkg/model"
)

func TestValidateField_RequiredEmptyShapes(t *testing.T) {
	cases := []struct {
		field model.Field
		empty any
		valid any
	}{
		{model.Field{Name: "name", Type: model.FieldTypeText, Required: true}, "  ", "Zeus"},
		{model.Field{Name: "domains", Type: model.FieldTypeTags, Required: true}, []string{}, []string{"sky"}},
		{model.Field{Name: "parentage", Type: model.FieldTypeKeyValue, Required: true}, map[string]string{}, map[string]string{"father": "Cronus"}},
		{model.Field{Name: "importance", Type: model.FieldTypeNumber, Required: true}, nil, 80.0},
		{model.Field{Name: "consorts", Type: model.FieldTypeReferences, Required: true}, []model.EntityReference{}, []model.EntityReference{{ID: "hera", Name: "Hera"}}},
		{model.Field{Name: "image", Type: model.FieldTypeImage, Required: true}, model.Attachment{}, model.Attachment{URL: "/img/zeus.png"}},
	}
	for _, tc := range cases {
		if err := ValidateField(tc.field, tc.empty); err == nil {
			t.Fatalf("%s: expected required error for %#v", tc.field.Name, tc.empty)
		}
		if err := ValidateField(tc.field, tc.valid); err != nil {
			t.Fatalf("%s: expected %#v to pass, got %v", tc.field.Name, tc.valid, err)
		}
	}
}

func TestValidateField_MessagesAndOrder(t *testing.T) {
	field := model.Field{
		Name:     "name",
		Type:     model.FieldTypeText,
		Required: true,
		Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "2"}},
		},
	}
	if err := ValidateField(field, ""); err == nil || err.Error() != "Name is required" {
		t.Fatalf("expected required message first, got %v", err)
	}
	if err := ValidateField(field, "Z"); err == nil || err.Error() != "Name must be at least 2 characters" {
		t.Fatalf("expected length message, got %v", err)
	}

	optional := field
	optional.Required = false
	if err := ValidateField(optional, ""); err != nil {
		t.Fatalf("expected empty optional field to skip rules, got %v", err)
	}
}

func TestValidateField_CustomRequiredMessage(t *testing.T) {
	field := model.Field{
		Name:     "mythology",
		Type:     model.FieldTypeSelect,
		Required: true,
		Validations: []model.ValidationRule{
			{Kind: RuleRequired, Params: map[string]string{"message": "Pick a tradition"}},
		},
	}
	if err := ValidateField(field, nil); err == nil || err.Error() != "Pick a tradition" {
		t.Fatalf("expected custom message, got %v", err)
	}
}

func TestValidateAll_FirstFailingStep(t *testing.T) {
	steps := []model.Step{
		{ID: "basic", Fields: []model.Field{{Name: "name", Type: model.FieldTypeText, Required: true}}},
		{ID: "details", Fields: []model.Field{{Name: "summary", Type: model.FieldTypeTextarea}}},
		{ID: "sources", Fields: []model.Field{{Name: "sources", Type: model.FieldTypeSources, Required: true}}},
	}
	values := map[string]any{"name": "Zeus", "summary": "", "sources": []model.SourceCitation{}}

	idx, ok, errs := ValidateAll(steps, values)
	if ok || idx != 2 {
		t.Fatalf("expected failure at step 2, got idx=%d ok=%v", idx, ok)
	}
	if diff := cmp.Diff(map[string]string{"sources": "Sources is required"}, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	delete(values, "name")
	idx, _, errs = ValidateAll(steps, values)
	if idx != 0 {
		t.Fatalf("expected earliest failing step, got %d", idx)
	}
	if len(errs) != 2 {
		t.Fatalf("expected errors for both failing fields, got %v", errs)
	}

	values["name"] = "Zeus"
	values["sources"] = []model.SourceCitation{{Title: "Theogony"}}
	if idx, ok, _ := ValidateAll(steps, values); !ok || idx != -1 {
		t.Fatalf("expected all steps to pass, got idx=%d ok=%v", idx, ok)
	}
}

func TestValidateStep(t *testing.T) {
	step := model.Step{Fields: []model.Field{
		{Name: "name", Type: model.FieldTypeText, Required: true},
		{Name: "importance", Type: model.FieldTypeNumber, Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "100"}},
		}},
	}}
	ok, errs := ValidateStep(step, map[string]any{"name": "Zeus", "importance": 120.0})
	if ok {
		t.Fatalf("expected step to fail")
	}
	if diff := cmp.Diff(map[string]string{"importance": "Importance must be at most 100"}, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}
