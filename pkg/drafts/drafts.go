package drafts

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"
)

// Logger receives swallowed persistence failures.
type Logger interface {
	Printf(format string, args ...any)
}

// Envelope is the stored form of a draft.
type Envelope struct {
	SavedAt time.Time      `json:"savedAt"`
	Values  map[string]any `json:"values"`
}

// Encode serialises values into an envelope stamped with savedAt.
func Encode(values map[string]any, savedAt time.Time) (string, error) {
	if values == nil {
		values = map[string]any{}
	}
	raw, err := json.Marshal(Envelope{SavedAt: savedAt.UTC(), Values: values})
	if err != nil {
		return "", fmt.Errorf("drafts: encode: %w", err)
	}
	return string(raw), nil
}

// Decode parses a stored draft. A bare JSON object without an envelope is
// read as the values themselves with a zero SavedAt.
func Decode(raw string) (Envelope, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return Envelope{}, fmt.Errorf("drafts: decode: %w", err)
	}
	if _, ok := probe["values"]; ok {
		var env Envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return Envelope{}, fmt.Errorf("drafts: decode: %w", err)
		}
		if env.Values == nil {
			env.Values = map[string]any{}
		}
		return env, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return Envelope{}, fmt.Errorf("drafts: decode: %w", err)
	}
	return Envelope{Values: values}, nil
}

// Keeper saves, loads and clears drafts against a Store, logging and
// swallowing every failure.
type Keeper struct {
	store  Store
	logger Logger
	now    func() time.Time
}

// Option customises a Keeper.
type Option func(*Keeper)

// WithLogger routes swallowed failures to logger.
func WithLogger(logger Logger) Option {
	return func(k *Keeper) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithClock overrides the time source used for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(k *Keeper) {
		if now != nil {
			k.now = now
		}
	}
}

// NewKeeper wraps store. A nil store disables persistence.
func NewKeeper(store Store, opts ...Option) *Keeper {
	k := &Keeper{
		store:  store,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	return k
}

// Save writes values under key and reports whether the write succeeded.
func (k *Keeper) Save(key string, values map[string]any) bool {
	if k == nil || k.store == nil {
		return false
	}
	raw, err := Encode(values, k.now())
	if err != nil {
		k.logger.Printf("drafts: save %s: %v", key, err)
		return false
	}
	if err := k.store.Set(key, raw); err != nil {
		k.logger.Printf("drafts: save %s: %v", key, err)
		return false
	}
	return true
}

// Load returns the draft stored under key. Missing, unreadable and corrupt
// drafts all report false.
func (k *Keeper) Load(key string) (Envelope, bool) {
	if k == nil || k.store == nil {
		return Envelope{}, false
	}
	raw, ok, err := k.store.Get(key)
	if err != nil {
		k.logger.Printf("drafts: load %s: %v", key, err)
		return Envelope{}, false
	}
	if !ok || raw == "" {
		return Envelope{}, false
	}
	env, err := Decode(raw)
	if err != nil {
		k.logger.Printf("drafts: load %s: %v", key, err)
		return Envelope{}, false
	}
	return env, true
}

// Clear deletes the draft under key.
func (k *Keeper) Clear(key string) {
	if k == nil || k.store == nil {
		return
	}
	if err := k.store.Remove(key); err != nil {
		k.logger.Printf("drafts: clear %s: %v", key, err)
	}
}
