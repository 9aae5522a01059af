package testsupport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/goliatone/go-mythforms/pkg/drafts"
	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/records"
	"github.com/goliatone/go-mythforms/pkg/references"
)

// DraftStore is a drafts.Store that records every write.
type DraftStore struct {
	*drafts.MemoryStore

	mu     sync.Mutex
	writes []string
	fail   error
}

// NewDraftStore returns an empty recording store.
func NewDraftStore() *DraftStore {
	return &DraftStore{MemoryStore: drafts.NewMemoryStore()}
}

// FailWith makes every subsequent call return err; nil restores normal
// behaviour.
func (s *DraftStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *DraftStore) Get(key string) (string, bool, error) {
	if err := s.failure(); err != nil {
		return "", false, err
	}
	return s.MemoryStore.Get(key)
}

func (s *DraftStore) Set(key, value string) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	s.writes = append(s.writes, value)
	s.mu.Unlock()
	return s.MemoryStore.Set(key, value)
}

func (s *DraftStore) Remove(key string) error {
	if err := s.failure(); err != nil {
		return err
	}
	return s.MemoryStore.Remove(key)
}

// Writes returns every value written, oldest first.
func (s *DraftStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *DraftStore) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail
}

// Call is one recorded collaborator call.
type Call struct {
	Op       string
	Category string
	ID       string
	Data     map[string]any
}

// RecordStore wraps records.MemoryStore, recording calls and optionally
// failing or blocking them.
type RecordStore struct {
	*records.MemoryStore

	mu      sync.Mutex
	calls   []Call
	failMsg string
	gate    chan struct{}
	entered chan struct{}
}

// NewRecordStore returns an empty recording store.
func NewRecordStore() *RecordStore {
	return &RecordStore{MemoryStore: records.NewMemoryStore()}
}

// FailWrites makes Create and Update return a failed result carrying msg.
// An empty msg restores normal behaviour.
func (s *RecordStore) FailWrites(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMsg = msg
}

// Block makes the next writes wait until the returned release function is
// called. The entered channel receives once per blocked call.
func (s *RecordStore) Block() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.entered = make(chan struct{}, 8)
	gate := s.gate
	var once sync.Once
	return s.entered, func() { once.Do(func() { close(gate) }) }
}

// Calls returns the recorded calls.
func (s *RecordStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls of one operation.
func (s *RecordStore) CallsTo(op string) []Call {
	var out []Call
	for _, call := range s.Calls() {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

func (s *RecordStore) Read(ctx context.Context, category, id string) records.Result {
	s.record(Call{Op: "read", Category: category, ID: id})
	return s.MemoryStore.Read(ctx, category, id)
}

func (s *RecordStore) Create(ctx context.Context, category string, data map[string]any) records.Result {
	s.record(Call{Op: "create", Category: category, Data: data})
	if msg := s.wait(); msg != "" {
		return records.Result{Error: msg, Code: records.CodeInvalid}
	}
	return s.MemoryStore.Create(ctx, category, data)
}

func (s *RecordStore) Update(ctx context.Context, category, id string, data map[string]any) records.Result {
	s.record(Call{Op: "update", Category: category, ID: id, Data: data})
	if msg := s.wait(); msg != "" {
		return records.Result{Error: msg, Code: records.CodeInvalid}
	}
	return s.MemoryStore.Update(ctx, category, id, data)
}

func (s *RecordStore) record(call Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *RecordStore) wait() string {
	s.mu.Lock()
	gate, entered := s.gate, s.entered
	s.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failMsg
}

// FailingSink is an AttachmentSink that always fails.
type FailingSink struct{}

func (FailingSink) Put(context.Context, string, string, string, model.Upload) (string, error) {
	return "", errors.New("sink offline")
}

// Lookup is a canned references.Lookup.
type Lookup struct {
	mu    sync.Mutex
	Hits  []references.Hit
	Err   error
	calls int
}

func (l *Lookup) Search(_ context.Context, query, typeFilter string) ([]references.Hit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.Err != nil {
		return nil, fmt.Errorf("lookup %q: %w", query, l.Err)
	}
	return append([]references.Hit(nil), l.Hits...), nil
}

// Calls reports how many searches ran.
func (l *Lookup) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// NewBufferLogger returns a logger writing unprefixed lines to w.
func NewBufferLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}
