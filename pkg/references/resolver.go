// Package references resolves entity-reference suggestions against a lookup
// collaborator. Searches are debounced per field, cached for the session,
// and degrade to an empty list on failure.
package references

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-mythforms/pkg/debounce"
	"github.com/goliatone/go-mythforms/pkg/model"
)

const (
	// DefaultMinQuery is the shortest query that triggers a lookup.
	DefaultMinQuery = 2
	// DefaultDelay is how long a query must stay unchanged before it runs.
	DefaultDelay = 300 * time.Millisecond
)

// Hit is one lookup result.
type Hit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Category string `json:"category,omitempty"`
}

// Reference converts the hit into the value stored in reference fields.
func (h Hit) Reference() model.EntityReference {
	return model.EntityReference{ID: h.ID, Name: h.Name, Type: h.Type, Icon: h.Icon}
}

// Lookup searches records by free text, optionally limited to one entity
// type.
type Lookup interface {
	Search(ctx context.Context, query, typeFilter string) ([]Hit, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, query, typeFilter string) ([]Hit, error)

func (f LookupFunc) Search(ctx context.Context, query, typeFilter string) ([]Hit, error) {
	return f(ctx, query, typeFilter)
}

// Logger receives swallowed lookup failures.
type Logger interface {
	Printf(format string, args ...any)
}

// Deliver receives the results of a scheduled search along with the
// sequence number Schedule returned for it.
type Deliver func(seq uint64, refs []model.EntityReference)

// Option customises a Resolver.
type Option func(*Resolver)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithMinQuery sets the minimum query length in characters.
func WithMinQuery(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.minQuery = n
		}
	}
}

// WithScheduler swaps the debounce scheduler.
func WithScheduler(s debounce.Scheduler) Option {
	return func(r *Resolver) {
		if s != nil {
			r.scheduler = s
		}
	}
}

// WithLogger routes swallowed failures to logger.
func WithLogger(logger Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type cacheKey struct {
	filter string
	query  string
}

type fieldSearch struct {
	timer   *debounce.Timer
	query   string
	filter  string
	seq     uint64
	deliver Deliver
}

// Resolver is a session-scoped reference search. It is safe for concurrent
// use.
type Resolver struct {
	lookup    Lookup
	delay     time.Duration
	minQuery  int
	scheduler debounce.Scheduler
	logger    Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	cache  map[cacheKey][]model.EntityReference
	fields map[string]*fieldSearch
	closed bool
}

// New constructs a Resolver over lookup. A nil lookup always yields empty
// results.
func New(lookup Lookup, opts ...Option) *Resolver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		lookup:    lookup,
		delay:     DefaultDelay,
		minQuery:  DefaultMinQuery,
		scheduler: debounce.RealScheduler(),
		logger:    log.New(io.Discard, "", 0),
		ctx:       ctx,
		cancel:    cancel,
		cache:     make(map[cacheKey][]model.EntityReference),
		fields:    make(map[string]*fieldSearch),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Search runs a lookup immediately. Queries shorter than the minimum return
// an empty list without a lookup; repeated (filter, query) pairs are served
// from the cache; lookup errors yield an empty list and are not cached.
func (r *Resolver) Search(ctx context.Context, query, filter string) []model.EntityReference {
	query = strings.TrimSpace(query)
	filter = strings.TrimSpace(filter)
	if utf8.RuneCountInString(query) < r.minQuery || r.lookup == nil {
		return []model.EntityReference{}
	}
	key := cacheKey{filter: filter, query: query}

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cloneRefs(cached)
	}

	hits, err := r.lookup.Search(ctx, query, filter)
	if err != nil {
		r.logger.Printf("references: search %q (type %q): %v", query, filter, err)
		return []model.EntityReference{}
	}
	refs := make([]model.EntityReference, 0, len(hits))
	for _, hit := range hits {
		if hit.ID == "" {
			continue
		}
		refs = append(refs, hit.Reference())
	}

	r.mu.Lock()
	r.cache[key] = refs
	r.mu.Unlock()
	return cloneRefs(refs)
}

// Schedule debounces a search for field and returns the sequence number
// identifying this query. Each call supersedes the previous one for the same
// field; deliver only runs for the newest query. Short queries cancel any
// pending search and deliver an empty list straight away.
func (r *Resolver) Schedule(field, query, filter string, deliver Deliver) uint64 {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}
	state, ok := r.fields[field]
	if !ok {
		state = &fieldSearch{}
		state.timer = debounce.New(r.delay, func() { r.run(field) }, debounce.WithScheduler(r.scheduler))
		r.fields[field] = state
	}
	state.seq++
	state.query = strings.TrimSpace(query)
	state.filter = strings.TrimSpace(filter)
	state.deliver = deliver
	seq := state.seq
	short := utf8.RuneCountInString(state.query) < r.minQuery
	r.mu.Unlock()

	if short {
		state.timer.Cancel()
		if deliver != nil {
			deliver(seq, []model.EntityReference{})
		}
		return seq
	}
	state.timer.Reschedule()
	return seq
}

// IsCurrent reports whether seq is still the newest query for field.
func (r *Resolver) IsCurrent(field string, seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.fields[field]
	return ok && !r.closed && state.seq == seq
}

// Close cancels pending and in-flight searches. Results of searches that
// complete afterwards are dropped.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	timers := make([]*debounce.Timer, 0, len(r.fields))
	for _, state := range r.fields {
		timers = append(timers, state.timer)
	}
	r.mu.Unlock()
	for _, timer := range timers {
		timer.Stop()
	}
	r.cancel()
}

func (r *Resolver) run(field string) {
	r.mu.Lock()
	state, ok := r.fields[field]
	if !ok || r.closed {
		r.mu.Unlock()
		return
	}
	query, filter, seq, deliver := state.query, state.filter, state.seq, state.deliver
	r.mu.Unlock()

	refs := r.Search(r.ctx, query, filter)
	if deliver != nil && r.IsCurrent(field, seq) {
		deliver(seq, refs)
	}
}

func cloneRefs(refs []model.EntityReference) []model.EntityReference {
	out := make([]model.EntityReference, len(refs))
	copy(out, refs)
	return out
}
