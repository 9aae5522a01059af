package schema

import (
	"io/fs"
	"sort"
	"sync"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// Registry produces the ordered field list for an entity category. It is
// immutable after construction and safe for concurrent readers.
type Registry struct {
	base       []model.Field
	system     []model.Field
	categories map[string]Category
}

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	catalog fs.FS
	extra   []Category
}

// WithCatalog loads fields from the provided filesystem instead of the
// embedded catalog.
func WithCatalog(fsys fs.FS) Option {
	return func(cfg *registryConfig) {
		cfg.catalog = fsys
	}
}

// WithCategory registers an additional category programmatically. It wins
// over a catalog category with the same key.
func WithCategory(category Category) Option {
	return func(cfg *registryConfig) {
		cfg.extra = append(cfg.extra, category)
	}
}

// NewRegistry loads the catalog and returns a Registry.
func NewRegistry(options ...Option) (*Registry, error) {
	cfg := registryConfig{catalog: DefaultCatalog()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	cat, err := loadCatalog(cfg.catalog)
	if err != nil {
		return nil, err
	}
	for _, extra := range cfg.extra {
		key := normaliseCategory(extra.Key)
		if key == "" {
			continue
		}
		fields, err := normaliseFields(extra.Fields, "category "+key)
		if err != nil {
			return nil, err
		}
		extra.Key = key
		extra.Fields = fields
		cat.categories[key] = extra
	}

	return &Registry{
		base:       cat.base,
		system:     cat.system,
		categories: cat.categories,
	}, nil
}

// MustRegistry is NewRegistry for init-time wiring; it panics on failure.
func MustRegistry(options ...Option) *Registry {
	reg, err := NewRegistry(options...)
	if err != nil {
		panic(err)
	}
	return reg
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded catalog.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = MustRegistry()
	})
	return defaultRegistry
}

// Schema returns base, category-specific and system fields in that order.
// Unknown categories yield base and system fields only.
func (r *Registry) Schema(category string) []model.Field {
	if r == nil {
		return nil
	}
	specific := r.categories[normaliseCategory(category)].Fields
	out := make([]model.Field, 0, len(r.base)+len(specific)+len(r.system))
	out = append(out, cloneFields(r.base)...)
	out = append(out, cloneFields(specific)...)
	out = append(out, cloneFields(r.system)...)
	return out
}

// Category returns the metadata of a known category.
func (r *Registry) Category(key string) (Category, bool) {
	if r == nil {
		return Category{}, false
	}
	cat, ok := r.categories[normaliseCategory(key)]
	if !ok {
		return Category{}, false
	}
	cat.Fields = cloneFields(cat.Fields)
	return cat, true
}

// Categories returns the sorted list of known category keys.
func (r *Registry) Categories() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.categories))
	for key := range r.categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Known reports whether the category has a definition.
func (r *Registry) Known(category string) bool {
	if r == nil {
		return false
	}
	_, ok := r.categories[normaliseCategory(category)]
	return ok
}

func cloneFields(fields []model.Field) []model.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]model.Field, len(fields))
	for i, field := range fields {
		out[i] = cloneField(field)
	}
	return out
}

func cloneField(field model.Field) model.Field {
	if len(field.Validations) > 0 {
		rules := make([]model.ValidationRule, len(field.Validations))
		for i, rule := range field.Validations {
			rules[i] = model.ValidationRule{Kind: rule.Kind}
			if len(rule.Params) > 0 {
				rules[i].Params = make(map[string]string, len(rule.Params))
				for k, v := range rule.Params {
					rules[i].Params[k] = v
				}
			}
		}
		field.Validations = rules
	}
	opts := field.Options
	opts.Choices = append([]model.Choice(nil), opts.Choices...)
	opts.Suggestions = append([]string(nil), opts.Suggestions...)
	opts.Keys = append([]string(nil), opts.Keys...)
	opts.Accept = append([]string(nil), opts.Accept...)
	opts.EntityTypes = append([]string(nil), opts.EntityTypes...)
	opts.Traditions = append([]string(nil), opts.Traditions...)
	field.Options = opts
	return field
}
