package fieldtypes

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// CollectControls rebuilds per-field controls from flat-keyed form values.
// Composite fields are read from indexed keys ("sources.0.title",
// "parallels.2.tradition"), fixed key-value fields from "parentage.father",
// coordinates from "location.lat"/"location.lng", and tag or list fields
// from repeated values or indexed keys ("domains.0"). Index gaps are closed
// up so rows come back in index order.
func CollectControls(fields []model.Field, values url.Values) map[string]Control {
	out := make(map[string]Control, len(fields))
	for _, field := range fields {
		out[field.Name] = collectControl(field, values)
	}
	return out
}

func collectControl(field model.Field, values url.Values) Control {
	name := field.Name
	switch field.Type {
	case model.FieldTypeBoolean:
		return Control{Checked: truthy(lastValue(values, name))}
	case model.FieldTypeTags, model.FieldTypeList:
		rows := make([]Row, 0)
		for _, v := range values[name] {
			rows = append(rows, Row{valueColumn: v})
		}
		return Control{Rows: append(rows, indexedRows(values, name, true)...)}
	case model.FieldTypeKeyValue:
		if fixedKeys(field) {
			rows := make([]Row, 0, len(field.Options.Keys))
			for _, key := range field.Options.Keys {
				rows = append(rows, Row{keyColumn: key, valueColumn: lastValue(values, name+"."+key)})
			}
			return Control{Rows: rows}
		}
		return Control{Rows: indexedRows(values, name, false)}
	case model.FieldTypeReferences, model.FieldTypeParallels, model.FieldTypeSources:
		return Control{Rows: indexedRows(values, name, false)}
	case model.FieldTypeCoordinates:
		lat, lng := lastValue(values, name+".lat"), lastValue(values, name+".lng")
		if lat == "" && lng == "" {
			return Control{Text: lastValue(values, name)}
		}
		return Control{Rows: []Row{{"lat": lat, "lng": lng}}}
	default:
		return Control{Text: lastValue(values, name)}
	}
}

// indexedRows gathers "<name>.<i>.<column>" keys into rows. With scalar set,
// "<name>.<i>" keys are read into the value column instead.
func indexedRows(values url.Values, name string, scalar bool) []Row {
	prefix := name + "."
	byIndex := make(map[int]Row)
	for key := range values {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		indexPart, column, hasColumn := strings.Cut(rest, ".")
		index, err := strconv.Atoi(indexPart)
		if err != nil || index < 0 || hasColumn == scalar {
			continue
		}
		if scalar {
			column = valueColumn
		}
		row, exists := byIndex[index]
		if !exists {
			row = Row{}
			byIndex[index] = row
		}
		row[column] = lastValue(values, key)
	}
	indexes := make([]int, 0, len(byIndex))
	for index := range byIndex {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	rows := make([]Row, 0, len(indexes))
	for _, index := range indexes {
		rows = append(rows, byIndex[index])
	}
	return rows
}

func lastValue(values url.Values, key string) string {
	list := values[key]
	if len(list) == 0 {
		return ""
	}
	return list[len(list)-1]
}
