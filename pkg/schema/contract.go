package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-mythforms/pkg/fieldpath"
	"github.com/goliatone/go-mythforms/pkg/model"
)

// Contract builds the OpenAPI object schema a document store can publish for
// the category's records. Dotted field names become nested objects. Rules that
// the form only applies to non-empty values (minLength, pattern) are emitted
// for required fields only so optional blanks stay valid.
func (r *Registry) Contract(category string) *openapi3.Schema {
	return ContractFor(r.Schema(category))
}

// ContractFor builds an object schema from an arbitrary field list.
func ContractFor(fields []model.Field) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	for _, field := range fields {
		segments := fieldpath.Split(field.Name)
		if len(segments) == 0 {
			continue
		}
		parent := root
		for _, segment := range segments[:len(segments)-1] {
			parent = childObject(parent, segment)
		}
		leaf := segments[len(segments)-1]
		parent.WithProperty(leaf, fieldSchema(field))
		if field.Required {
			parent.Required = appendUnique(parent.Required, leaf)
		}
	}
	return root
}

// ContractJSON renders the category contract as indented JSON.
func (r *Registry) ContractJSON(category string) ([]byte, error) {
	payload, err := json.MarshalIndent(r.Contract(category), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal contract: %w", err)
	}
	return payload, nil
}

// ValidatePayload checks an assembled record against a contract. The payload
// is normalised through JSON first so typed Go values (slices of structs,
// map[string]string) are compared in their wire shape.
func ValidatePayload(contract *openapi3.Schema, payload map[string]any) error {
	if contract == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("schema: encode payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("schema: decode payload: %w", err)
	}
	if err := contract.VisitJSON(generic); err != nil {
		return fmt.Errorf("schema: payload rejected: %w", err)
	}
	return nil
}

func childObject(parent *openapi3.Schema, name string) *openapi3.Schema {
	if ref, ok := parent.Properties[name]; ok && ref != nil && ref.Value != nil {
		return ref.Value
	}
	child := openapi3.NewObjectSchema()
	parent.WithProperty(name, child)
	return child
}

func fieldSchema(field model.Field) *openapi3.Schema {
	var out *openapi3.Schema
	switch field.Type {
	case model.FieldTypeNumber:
		out = openapi3.NewFloat64Schema().WithNullable()
		if v, ok := ruleFloat(field, model.ValidationRuleMin); ok {
			out.WithMin(v)
		}
		if v, ok := ruleFloat(field, model.ValidationRuleMax); ok {
			out.WithMax(v)
		}
	case model.FieldTypeBoolean:
		out = openapi3.NewBoolSchema()
	case model.FieldTypeSelect:
		out = openapi3.NewStringSchema()
		if len(field.Options.Choices) > 0 {
			values := make([]any, 0, len(field.Options.Choices)+1)
			if !field.Required {
				values = append(values, "")
			}
			for _, choice := range field.Options.Choices {
				values = append(values, choice.Value)
			}
			out.WithEnum(values...)
		}
	case model.FieldTypeTags, model.FieldTypeList:
		out = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
		applyLength(out, field, true)
	case model.FieldTypeKeyValue:
		out = openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())
	case model.FieldTypeReferences:
		item := openapi3.NewObjectSchema().
			WithProperty("id", openapi3.NewStringSchema()).
			WithProperty("name", openapi3.NewStringSchema()).
			WithProperty("type", openapi3.NewStringSchema()).
			WithProperty("icon", openapi3.NewStringSchema())
		item.Required = []string{"id"}
		out = openapi3.NewArraySchema().WithItems(item)
	case model.FieldTypeParallels:
		item := openapi3.NewObjectSchema().
			WithProperty("tradition", openapi3.NewStringSchema()).
			WithProperty("name", openapi3.NewStringSchema()).
			WithProperty("notes", openapi3.NewStringSchema())
		out = openapi3.NewArraySchema().WithItems(item)
	case model.FieldTypeSources:
		item := openapi3.NewObjectSchema().
			WithProperty("title", openapi3.NewStringSchema()).
			WithProperty("author", openapi3.NewStringSchema()).
			WithProperty("url", openapi3.NewStringSchema()).
			WithProperty("page", openapi3.NewStringSchema())
		out = openapi3.NewArraySchema().WithItems(item)
	case model.FieldTypeImage:
		out = openapi3.NewStringSchema()
	case model.FieldTypeCoordinates:
		out = openapi3.NewObjectSchema().
			WithProperty("lat", openapi3.NewFloat64Schema().WithMin(-90).WithMax(90)).
			WithProperty("lng", openapi3.NewFloat64Schema().WithMin(-180).WithMax(180)).
			WithNullable()
	default:
		out = openapi3.NewStringSchema()
		if field.Type != model.FieldTypeRichText {
			applyLength(out, field, false)
		}
		if rule, ok := field.Rule(model.ValidationRulePattern); ok && field.Required {
			if expr := rule.Params["pattern"]; expr != "" {
				out.WithPattern(expr)
			}
		}
	}
	out.Title = field.DisplayLabel()
	out.Description = field.Description
	return out
}

func applyLength(schema *openapi3.Schema, field model.Field, items bool) {
	if v, ok := ruleInt(field, model.ValidationRuleMaxLength); ok {
		if items {
			schema.WithMaxItems(v)
		} else {
			schema.WithMaxLength(v)
		}
	}
	if !field.Required {
		return
	}
	if v, ok := ruleInt(field, model.ValidationRuleMinLength); ok {
		if items {
			schema.WithMinItems(v)
		} else {
			schema.WithMinLength(v)
		}
	}
}

func ruleFloat(field model.Field, kind string) (float64, bool) {
	rule, ok := field.Rule(kind)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(rule.Params["value"], 64)
	return v, err == nil
}

func ruleInt(field model.Field, kind string) (int64, bool) {
	rule, ok := field.Rule(kind)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(rule.Params["value"], 10, 64)
	return v, err == nil
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
