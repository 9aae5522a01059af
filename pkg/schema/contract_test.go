package schema

import (
	"encoding/json"
	"testing"

	"github.com/goliatone/go-mythforms/pkg/model"
)

func TestContract_NestsDottedFields(t *testing.T) {
	contract := MustRegistry().Contract("deities")

	metadata, ok := contract.Properties["metadata"]
	if !ok || metadata.Value == nil {
		t.Fatalf("expected nested metadata object")
	}
	if _, ok := metadata.Value.Properties["status"]; !ok {
		t.Fatalf("expected metadata.status property")
	}
	wantRequired := map[string]bool{"name": true, "mythology": true, "type": true}
	for _, name := range contract.Required {
		delete(wantRequired, name)
	}
	if len(wantRequired) != 0 {
		t.Fatalf("missing required properties: %v", wantRequired)
	}
}

func TestValidatePayload(t *testing.T) {
	contract := ContractFor([]model.Field{
		{Name: "name", Type: model.FieldTypeText, Required: true, Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "2"}},
		}},
		{Name: "importance", Type: model.FieldTypeNumber, Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "100"}},
		}},
		{Name: "domains", Type: model.FieldTypeTags},
		{Name: "consorts", Type: model.FieldTypeReferences},
		{Name: "metadata.status", Type: model.FieldTypeSelect, Options: model.FieldOptions{
			Choices: []model.Choice{{Value: "draft"}, {Value: "published"}},
		}},
	})

	valid := map[string]any{
		"name":       "Zeus",
		"importance": nil,
		"domains":    []string{"Sky"},
		"consorts":   []model.EntityReference{{ID: "hera", Name: "Hera"}},
		"metadata":   map[string]any{"status": ""},
	}
	if err := ValidatePayload(contract, valid); err != nil {
		t.Fatalf("expected payload to validate: %v", err)
	}

	invalid := map[string]any{
		"name":       "Z",
		"importance": 140.0,
		"metadata":   map[string]any{"status": "lost"},
	}
	if err := ValidatePayload(contract, invalid); err == nil {
		t.Fatalf("expected payload to be rejected")
	}
}

func TestContractJSON(t *testing.T) {
	raw, err := MustRegistry().ContractJSON("locations")
	if err != nil {
		t.Fatalf("contract json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode contract: %v", err)
	}
	if decoded["type"] != "object" {
		t.Fatalf("expected object contract, got %v", decoded["type"])
	}
}
