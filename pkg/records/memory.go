package records

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/references"
)

// MemoryStore keeps records and attachments in process memory. Stored data is
// copied through JSON so callers never share maps with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string]map[string]map[string]any
	attachments map[string]model.Upload
	newID       func() string
}

// NewMemoryStore returns an empty MemoryStore that assigns UUID ids.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]map[string]map[string]any),
		attachments: make(map[string]model.Upload),
		newID:       func() string { return uuid.NewString() },
	}
}

func (s *MemoryStore) Read(_ context.Context, category, id string) Result {
	category, err := cleanCategory(category)
	if err != nil {
		return Fail(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[category][id]
	if !ok {
		return Fail(fmt.Errorf("%w: %s/%s", ErrNotFound, category, id))
	}
	out, err := copyData(data)
	if err != nil {
		return Fail(err)
	}
	return Ok(id, out)
}

func (s *MemoryStore) Create(_ context.Context, category string, data map[string]any) Result {
	category, err := cleanCategory(category)
	if err != nil {
		return Fail(err)
	}
	stored, err := copyData(data)
	if err != nil {
		return Fail(err)
	}
	id := s.newID()
	stored["id"] = id
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[category] == nil {
		s.records[category] = make(map[string]map[string]any)
	}
	s.records[category][id] = stored
	out, _ := copyData(stored)
	return Ok(id, out)
}

func (s *MemoryStore) Update(_ context.Context, category, id string, data map[string]any) Result {
	category, err := cleanCategory(category)
	if err != nil {
		return Fail(err)
	}
	stored, err := copyData(data)
	if err != nil {
		return Fail(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[category][id]; !ok {
		return Fail(fmt.Errorf("%w: %s/%s", ErrNotFound, category, id))
	}
	stored["id"] = id
	s.records[category][id] = stored
	out, _ := copyData(stored)
	return Ok(id, out)
}

// Search implements references.Lookup over every stored record.
func (s *MemoryStore) Search(_ context.Context, query, typeFilter string) ([]references.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hits []references.Hit
	for category, byID := range s.records {
		for id, data := range byID {
			if matchRecord(category, data, query, typeFilter) {
				hits = append(hits, recordHit(category, id, data))
			}
		}
	}
	return sortHits(hits, DefaultSearchLimit), nil
}

// Put implements AttachmentSink. The payload is kept in memory and addressed
// by the returned URL.
func (s *MemoryStore) Put(_ context.Context, category, id, field string, upload model.Upload) (string, error) {
	category, err := cleanCategory(category)
	if err != nil {
		return "", err
	}
	if id, err = cleanID(id); err != nil {
		return "", err
	}
	if field, err = cleanID(field); err != nil {
		return "", err
	}
	url := attachmentURL(category, id, field, upload.Filename)
	s.mu.Lock()
	defer s.mu.Unlock()
	upload.Data = append([]byte(nil), upload.Data...)
	s.attachments[url] = upload
	return url, nil
}

// Attachment returns a stored payload by URL.
func (s *MemoryStore) Attachment(url string) (model.Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	upload, ok := s.attachments[url]
	return upload, ok
}

// Len reports how many records a category holds.
func (s *MemoryStore) Len(category string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[category])
}

func attachmentURL(category, id, field, filename string) string {
	return "/attachments/" + category + "/" + id + "/" + field + path.Ext(filename)
}

// copyData deep-copies a payload through JSON so stored records hold plain
// decoded values.
func copyData(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("records: encode payload: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("records: decode payload: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
