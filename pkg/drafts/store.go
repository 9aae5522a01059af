// Package drafts persists recoverable snapshots of unsaved form values in a
// local key-value store. Persistence is best effort: store failures are
// logged and never reach the editing session.
package drafts

import (
	"strings"
	"sync"
)

// Store is a string-keyed durable key-value store.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// NewKey is the identity segment used for records that do not exist yet.
const NewKey = "new"

// Key returns the draft key for a category and record id. An empty id maps
// to the "new" slot.
func Key(category, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewKey
	}
	return "draft:" + strings.ToLower(strings.TrimSpace(category)) + ":" + id
}

// MemoryStore keeps drafts in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys lists stored keys with the given prefix.
func (s *MemoryStore) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}
