package fieldtypes

import (
	"strings"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// IsEmpty reports whether a value counts as missing for required checks:
// nil, blank strings, empty lists, maps whose values are all blank, and
// attachments holding neither URL nor upload.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case []model.EntityReference:
		return len(v) == 0
	case []model.Parallel:
		return len(v) == 0
	case []model.SourceCitation:
		return len(v) == 0
	case map[string]string:
		for _, val := range v {
			if strings.TrimSpace(val) != "" {
				return false
			}
		}
		return true
	case map[string]any:
		return len(v) == 0
	case model.Attachment:
		return v.IsZero()
	case *model.Attachment:
		return v == nil || v.IsZero()
	case *model.Coordinates:
		return v == nil
	case *float64:
		return v == nil
	default:
		return false
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
