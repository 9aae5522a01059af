// Package form runs a multi-step editing session for one record: it holds
// the form state, gates step navigation on validation, autosaves drafts,
// resolves reference suggestions and submits the assembled record.
//
// All state lives behind one mutex. Timer callbacks read the state when they
// fire, so a debounced draft always captures the newest values. A running
// submission is guarded by its own flag and does not block editing.
package form

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-mythforms/pkg/debounce"
	"github.com/goliatone/go-mythforms/pkg/drafts"
	"github.com/goliatone/go-mythforms/pkg/fieldpath"
	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/records"
	"github.com/goliatone/go-mythforms/pkg/references"
	"github.com/goliatone/go-mythforms/pkg/schema"
	"github.com/goliatone/go-mythforms/pkg/validation"
)

// Engine is one editing session.
type Engine struct {
	category      string
	recordID      string
	registry      *schema.Registry
	strategies    *fieldtypes.Registry
	validator     *validation.Validator
	store         records.Store
	sink          records.AttachmentSink
	draftStore    drafts.Store
	draftDelay    time.Duration
	scheduler     debounce.Scheduler
	lookup        references.Lookup
	contractCheck bool
	logger        Logger
	now           func() time.Time

	fields   []model.Field
	steps    []model.Step
	byName   map[string]model.Field
	keeper   *drafts.Keeper
	draftKey string
	autosave *debounce.Timer
	resolver *references.Resolver

	mu         sync.Mutex
	values     map[string]any
	errors     map[string]string
	current    int
	highest    int
	dirty      bool
	submitted  bool
	disposed   bool
	base       map[string]any
	status     string
	restoredAt time.Time
	restored   bool

	// draftMu orders autosave writes against the draft removal that
	// follows a successful submit.
	draftMu    sync.Mutex
	submitting atomic.Bool
}

// New builds the session for category. In edit mode the record is read
// first and a matching draft is merged on top of it, field by field. A
// failed read is returned as an error; a missing or unreadable draft is not.
func New(ctx context.Context, category string, opts ...Option) (*Engine, error) {
	e := &Engine{
		category:   category,
		strategies: fieldtypes.Default(),
		draftDelay: DefaultDraftDelay,
		scheduler:  debounce.RealScheduler(),
		logger:     log.New(io.Discard, "", 0),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.registry == nil {
		e.registry = schema.Default()
	}
	if e.sink == nil {
		if sink, ok := e.store.(records.AttachmentSink); ok {
			e.sink = sink
		}
	}
	e.validator = validation.New(validation.WithStrategies(e.strategies))

	e.fields = e.registry.Schema(category)
	e.steps = schema.Organize(e.fields)
	e.byName = make(map[string]model.Field, len(e.fields))
	for _, field := range e.fields {
		e.byName[field.Name] = field
	}

	e.values = make(map[string]any, len(e.fields))
	e.errors = make(map[string]string)
	for _, field := range e.fields {
		e.values[field.Name] = e.strategies.For(field).Default(field)
	}

	if e.recordID != "" {
		if err := e.loadRecord(ctx); err != nil {
			return nil, err
		}
	}

	e.draftKey = drafts.Key(category, e.recordID)
	e.keeper = drafts.NewKeeper(e.draftStore, drafts.WithLogger(e.logger), drafts.WithClock(e.now))
	e.autosave = debounce.New(e.draftDelay, e.saveDraft, debounce.WithScheduler(e.scheduler))
	e.restoreDraft()

	if e.lookup != nil {
		e.resolver = references.New(e.lookup,
			references.WithScheduler(e.scheduler),
			references.WithLogger(e.logger),
		)
	}
	return e, nil
}

func (e *Engine) loadRecord(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	result := e.store.Read(ctx, e.category, e.recordID)
	if !result.Success {
		return fmt.Errorf("form: load %s/%s: %w", e.category, e.recordID, &SubmitError{Message: result.Error, Code: result.Code})
	}
	e.base = fieldpath.Clone(result.Data)
	if e.base == nil {
		e.base = map[string]any{}
	}
	for _, field := range e.fields {
		if raw, ok := fieldpath.Get(e.base, field.Name); ok {
			e.values[field.Name] = e.strategies.For(field).Normalize(field, raw)
		}
	}
	return nil
}

func (e *Engine) restoreDraft() {
	env, ok := e.keeper.Load(e.draftKey)
	if !ok {
		return
	}
	applied := 0
	for name, raw := range env.Values {
		field, known := e.byName[name]
		if !known {
			continue
		}
		e.values[name] = e.strategies.For(field).Normalize(field, raw)
		applied++
	}
	if applied == 0 {
		return
	}
	e.restored = true
	e.restoredAt = env.SavedAt
	e.dirty = true
	e.logger.Printf("form: restored draft %s (%d fields)", e.draftKey, applied)
}

// saveDraft runs on the autosave timer and snapshots the values current at
// call time.
func (e *Engine) saveDraft() {
	e.draftMu.Lock()
	defer e.draftMu.Unlock()
	e.mu.Lock()
	if e.disposed || e.submitted || !e.dirty {
		e.mu.Unlock()
		return
	}
	snapshot := cloneValues(e.values)
	key := e.draftKey
	e.mu.Unlock()
	e.keeper.Save(key, snapshot)
}

// FlushDraft writes a pending autosave immediately and reports whether one
// was pending.
func (e *Engine) FlushDraft() bool {
	return e.autosave.Flush()
}

// Dispose stops the autosave timer and any reference searches. A pending
// autosave is dropped; drafts already written stay in the store.
func (e *Engine) Dispose() {
	e.mu.Lock()
	e.disposed = true
	e.mu.Unlock()
	e.autosave.Stop()
	if e.resolver != nil {
		e.resolver.Close()
	}
}

// Category returns the entity category being edited.
func (e *Engine) Category() string { return e.category }

// RecordID returns the id of the record being edited, or "" before a new
// record is created.
func (e *Engine) RecordID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordID
}

// DraftKey returns the key drafts are stored under.
func (e *Engine) DraftKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draftKey
}

// Fields returns the schema fields in declaration order.
func (e *Engine) Fields() []model.Field {
	out := make([]model.Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Field returns a field by name.
func (e *Engine) Field(name string) (model.Field, bool) {
	field, ok := e.byName[name]
	return field, ok
}

// Steps returns the wizard steps.
func (e *Engine) Steps() []model.Step {
	out := make([]model.Step, len(e.steps))
	copy(out, e.steps)
	return out
}

// Strategies returns the field type registry in use.
func (e *Engine) Strategies() *fieldtypes.Registry { return e.strategies }

// Value returns the current value of a field.
func (e *Engine) Value(name string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[name]
}

// Values returns a copy of the current values keyed by field name.
func (e *Engine) Values() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneValues(e.values)
}

// Errors returns a copy of the current field errors.
func (e *Engine) Errors() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.errors))
	for name, msg := range e.errors {
		out[name] = msg
	}
	return out
}

// Error returns the current error of a field, or "".
func (e *Engine) Error(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errors[name]
}

// Attachments returns pending uploads keyed by field name.
func (e *Engine) Attachments() map[string]model.Upload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingUploadsLocked()
}

// IsDirty reports whether there are changes not yet submitted.
func (e *Engine) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Submitted reports whether the session reached its terminal state.
func (e *Engine) Submitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}

// Status returns the latest top-level status message.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// RestoredDraft reports whether a draft was merged at startup and when it
// was saved.
func (e *Engine) RestoredDraft() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restoredAt, e.restored
}

func (e *Engine) pendingUploadsLocked() map[string]model.Upload {
	out := make(map[string]model.Upload)
	for name, value := range e.values {
		if att, ok := value.(model.Attachment); ok && att.Pending() {
			out[name] = *att.Upload
		}
	}
	return out
}

func (e *Engine) sortedPendingLocked() []string {
	pending := e.pendingUploadsLocked()
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for name, value := range values {
		out[name] = value
	}
	return out
}
