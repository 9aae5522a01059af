package form

import (
	"time"

	"github.com/goliatone/go-mythforms/pkg/debounce"
	"github.com/goliatone/go-mythforms/pkg/drafts"
	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/records"
	"github.com/goliatone/go-mythforms/pkg/references"
	"github.com/goliatone/go-mythforms/pkg/schema"
)

// DefaultDraftDelay is the quiet period before a draft is written.
const DefaultDraftDelay = 3 * time.Second

// Logger receives swallowed failures and lifecycle notes.
type Logger interface {
	Printf(format string, args ...any)
}

// Option customises an Engine.
type Option func(*Engine)

// WithRegistry sets the schema registry. The embedded catalog is used when
// omitted.
func WithRegistry(reg *schema.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithRecordID puts the engine in edit mode for an existing record.
func WithRecordID(id string) Option {
	return func(e *Engine) {
		e.recordID = id
	}
}

// WithStore sets the record store used to load and submit.
func WithStore(store records.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithAttachmentSink sets where pending uploads go after a successful save.
// Stores implementing records.AttachmentSink are used automatically.
func WithAttachmentSink(sink records.AttachmentSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithDrafts enables draft persistence in store.
func WithDrafts(store drafts.Store) Option {
	return func(e *Engine) {
		e.draftStore = store
	}
}

// WithDraftDelay overrides the autosave quiet period.
func WithDraftDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.draftDelay = d
		}
	}
}

// WithScheduler drives the autosave and reference timers, typically with a
// debounce.Manual in tests.
func WithScheduler(s debounce.Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithLookup enables reference suggestions against lookup.
func WithLookup(lookup references.Lookup) Option {
	return func(e *Engine) {
		e.lookup = lookup
	}
}

// WithStrategies overrides the field type registry.
func WithStrategies(reg *fieldtypes.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.strategies = reg
		}
	}
}

// WithContractCheck validates assembled payloads against the category's
// OpenAPI contract before they are sent.
func WithContractCheck() Option {
	return func(e *Engine) {
		e.contractCheck = true
	}
}

// WithLogger routes swallowed failures to logger.
func WithLogger(logger Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for record and draft stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
