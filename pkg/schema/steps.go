package schema

import "github.com/goliatone/go-mythforms/pkg/model"

// Canonical group keys, in wizard order.
const (
	GroupBasic         = "basic"
	GroupDetails       = "details"
	GroupAttributes    = "attributes"
	GroupRelationships = "relationships"
	GroupDomain        = "domain"
	GroupSources       = "sources"
	GroupSystem        = "system"
)

// DefaultGroup receives fields whose group key is empty or unknown.
const DefaultGroup = GroupDetails

var groupOrder = []string{
	GroupBasic,
	GroupDetails,
	GroupAttributes,
	GroupRelationships,
	GroupDomain,
	GroupSources,
	GroupSystem,
}

var groupTitles = map[string]string{
	GroupBasic:         "Basic Information",
	GroupDetails:       "Details",
	GroupAttributes:    "Attributes",
	GroupRelationships: "Relationships",
	GroupDomain:        "Specifics",
	GroupSources:       "Sources",
	GroupSystem:        "Publishing",
}

// Organize partitions fields into steps following the canonical group order.
// Field order inside a step follows declaration order and empty groups are
// omitted.
func Organize(fields []model.Field) []model.Step {
	buckets := make(map[string][]model.Field, len(groupOrder))
	for _, field := range fields {
		group := field.Group
		if _, known := groupTitles[group]; !known {
			group = DefaultGroup
		}
		buckets[group] = append(buckets[group], field)
	}

	steps := make([]model.Step, 0, len(buckets))
	for _, group := range groupOrder {
		members := buckets[group]
		if len(members) == 0 {
			continue
		}
		steps = append(steps, model.Step{
			ID:     group,
			Title:  groupTitles[group],
			Fields: members,
		})
	}
	return steps
}

// GroupTitle returns the display title for a group key.
func GroupTitle(group string) string {
	if title, ok := groupTitles[group]; ok {
		return title
	}
	return groupTitles[DefaultGroup]
}
