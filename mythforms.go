// Package mythforms is the entry point for the schema-driven record editor:
// it re-exports the engine options and opens the record backends the
// binaries use.
package mythforms

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/form"
	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/records"
	"github.com/goliatone/go-mythforms/pkg/references"
	"github.com/goliatone/go-mythforms/pkg/schema"
)

// Engine is one editing session.
type Engine = form.Engine

// Option customises an Engine.
type Option = form.Option

// Result is the outcome of a record store call.
type Result = records.Result

// Field describes one form field.
type Field = model.Field

// Step is one wizard page.
type Step = model.Step

// Engine options, re-exported for callers that only import the root package.
var (
	WithRecordID       = form.WithRecordID
	WithStore          = form.WithStore
	WithAttachmentSink = form.WithAttachmentSink
	WithDrafts         = form.WithDrafts
	WithDraftDelay     = form.WithDraftDelay
	WithLookup         = form.WithLookup
	WithContractCheck  = form.WithContractCheck
	WithLogger         = form.WithLogger
)

// New starts an editing session for category. Pass WithRecordID to edit an
// existing record.
func New(ctx context.Context, category string, options ...Option) (*Engine, error) {
	return form.New(ctx, category, options...)
}

// WithCatalog loads the schema catalog from fsys instead of the embedded
// one.
func WithCatalog(fsys fs.FS) (Option, error) {
	reg, err := schema.NewRegistry(schema.WithCatalog(fsys))
	if err != nil {
		return nil, err
	}
	return form.WithRegistry(reg), nil
}

// Categories lists the categories of the embedded catalog.
func Categories() []string {
	return schema.Default().Categories()
}

// Contract returns the OpenAPI schema of a category's assembled record as
// indented JSON.
func Contract(category string) ([]byte, error) {
	return schema.Default().ContractJSON(category)
}

// Backend bundles the record collaborators of a session.
type Backend struct {
	Store  records.Store
	Lookup references.Lookup
	Sink   records.AttachmentSink
}

// Options returns the engine options that wire the backend in.
func (b Backend) Options() []Option {
	return []Option{
		form.WithStore(b.Store),
		form.WithLookup(b.Lookup),
		form.WithAttachmentSink(b.Sink),
	}
}

// OpenBackend connects to a remote store when baseURL is set and otherwise
// opens the JSON-file store in dir.
func OpenBackend(dir, baseURL string) (Backend, error) {
	if strings.TrimSpace(baseURL) != "" {
		client := records.NewClient(baseURL)
		return Backend{Store: client, Lookup: client, Sink: client}, nil
	}
	store, err := records.NewFileStore(dir)
	if err != nil {
		return Backend{}, fmt.Errorf("mythforms: open store: %w", err)
	}
	return Backend{Store: store, Lookup: store, Sink: store}, nil
}

// MemoryBackend returns a backend that keeps everything in memory.
func MemoryBackend() Backend {
	store := records.NewMemoryStore()
	return Backend{Store: store, Lookup: store, Sink: store}
}
