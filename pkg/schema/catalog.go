package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mythforms/pkg/model"
)

//go:embed catalog
var embeddedCatalog embed.FS

// DefaultCatalog returns the catalog shipped with the module.
func DefaultCatalog() fs.FS {
	sub, err := fs.Sub(embeddedCatalog, "catalog")
	if err != nil {
		panic(fmt.Sprintf("schema: embedded catalog: %v", err))
	}
	return sub
}

const (
	catalogKindBase     = "base"
	catalogKindSystem   = "system"
	catalogKindCategory = "category"
)

// Category describes one entity category and the fields specific to it.
type Category struct {
	Key        string        `json:"key"`
	Title      string        `json:"title"`
	EntityType string        `json:"entityType,omitempty"`
	Fields     []model.Field `json:"fields"`
	Source     string        `json:"-"`
}

type catalogFile struct {
	Kind       string        `yaml:"kind"`
	Category   string        `yaml:"category"`
	Title      string        `yaml:"title"`
	EntityType string        `yaml:"entityType"`
	Fields     []model.Field `yaml:"fields"`
}

type catalog struct {
	base       []model.Field
	system     []model.Field
	categories map[string]Category
}

// loadCatalog walks fsys and parses every YAML catalog file. Base and system
// files may be split across several files; they are concatenated in path
// order. Errors name the offending file.
func loadCatalog(fsys fs.FS) (catalog, error) {
	cat := catalog{categories: make(map[string]Category)}
	if fsys == nil {
		return cat, nil
	}

	var paths []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return catalog{}, fmt.Errorf("schema: walk catalog: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return catalog{}, fmt.Errorf("schema: read %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return catalog{}, fmt.Errorf("schema: file %s is empty", path)
		}
		var doc catalogFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return catalog{}, fmt.Errorf("schema: parse %s: %w", path, err)
		}
		fields, err := normaliseFields(doc.Fields, path)
		if err != nil {
			return catalog{}, err
		}

		switch strings.ToLower(strings.TrimSpace(doc.Kind)) {
		case catalogKindBase:
			cat.base = append(cat.base, fields...)
		case catalogKindSystem:
			cat.system = append(cat.system, fields...)
		case catalogKindCategory:
			key := normaliseCategory(doc.Category)
			if key == "" {
				return catalog{}, fmt.Errorf("schema: file %s declares a category without a key", path)
			}
			if existing, ok := cat.categories[key]; ok {
				return catalog{}, fmt.Errorf("schema: duplicate category %q (files %s and %s)", key, existing.Source, path)
			}
			title := strings.TrimSpace(doc.Title)
			if title == "" {
				title = model.DefaultLabeler(key)
			}
			cat.categories[key] = Category{
				Key:        key,
				Title:      title,
				EntityType: strings.TrimSpace(doc.EntityType),
				Fields:     fields,
				Source:     path,
			}
		default:
			return catalog{}, fmt.Errorf("schema: file %s has unknown kind %q", path, doc.Kind)
		}
	}

	return cat, nil
}

func normaliseFields(raw []model.Field, source string) ([]model.Field, error) {
	out := make([]model.Field, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for idx, field := range raw {
		field.Name = strings.Trim(strings.TrimSpace(field.Name), ".")
		if field.Name == "" {
			return nil, fmt.Errorf("schema: file %s field #%d has no name", source, idx)
		}
		if _, dup := seen[field.Name]; dup {
			return nil, fmt.Errorf("schema: file %s defines field %q twice", source, field.Name)
		}
		seen[field.Name] = struct{}{}
		if field.Type == "" {
			field.Type = model.FieldTypeText
		}
		field.Group = strings.ToLower(strings.TrimSpace(field.Group))
		if field.Label == "" {
			field.Label = field.DisplayLabel()
		}
		out = append(out, field)
	}
	return out, nil
}

func normaliseCategory(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
