package records

import (
	"sort"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/references"
)

// DefaultSearchLimit caps the number of hits a store search returns.
const DefaultSearchLimit = 20

// matchRecord reports whether a stored record matches a free-text query and
// an optional type filter. The filter matches the record's type field or its
// category.
func matchRecord(category string, data map[string]any, query, typeFilter string) bool {
	if typeFilter != "" {
		kind, _ := data["type"].(string)
		if !strings.EqualFold(kind, typeFilter) && !strings.EqualFold(category, typeFilter) {
			return false
		}
	}
	name, _ := data["name"].(string)
	return strings.Contains(strings.ToLower(name), strings.ToLower(strings.TrimSpace(query)))
}

func recordHit(category, id string, data map[string]any) references.Hit {
	hit := references.Hit{ID: id, Category: category}
	hit.Name, _ = data["name"].(string)
	hit.Type, _ = data["type"].(string)
	hit.Icon, _ = data["icon"].(string)
	return hit
}

func sortHits(hits []references.Hit, limit int) []references.Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := strings.ToLower(hits[i].Name), strings.ToLower(hits[j].Name)
		if a == b {
			return hits[i].ID < hits[j].ID
		}
		return a < b
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
