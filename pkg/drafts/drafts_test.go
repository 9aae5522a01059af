package drafts

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestKey(t *testing.T) {
	if got := Key("Deities", ""); got != "draft:deities:new" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("deities", "zeus-1"); got != "draft:deities:zeus-1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestDecode_BareObject(t *testing.T) {
	env, err := Decode(`{"name":"Zeus"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.SavedAt.IsZero() {
		t.Fatalf("expected zero SavedAt, got %v", env.SavedAt)
	}
	if diff := cmp.Diff(map[string]any{"name": "Zeus"}, env.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if _, err := Decode("not json"); err == nil {
		t.Fatalf("expected corrupt draft to fail")
	}
}

func TestKeeper_RoundTrip(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	keeper := NewKeeper(NewMemoryStore(), WithClock(func() time.Time { return stamp }))
	values := map[string]any{
		"name":     "Zeus",
		"domains":  []any{"sky", "thunder"},
		"metadata": map[string]any{"featured": true},
	}
	if !keeper.Save("draft:deities:new", values) {
		t.Fatalf("expected save to succeed")
	}
	env, ok := keeper.Load("draft:deities:new")
	if !ok {
		t.Fatalf("expected draft to load")
	}
	if !env.SavedAt.Equal(stamp) {
		t.Fatalf("expected SavedAt %v, got %v", stamp, env.SavedAt)
	}
	if diff := cmp.Diff(values, env.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	keeper.Clear("draft:deities:new")
	if _, ok := keeper.Load("draft:deities:new"); ok {
		t.Fatalf("expected draft to be cleared")
	}
}

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("quota") }
func (failingStore) Set(string, string) error         { return errors.New("quota exceeded") }
func (failingStore) Remove(string) error              { return errors.New("unavailable") }

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestKeeper_SwallowsStoreFailures(t *testing.T) {
	logger := &recordingLogger{}
	keeper := NewKeeper(failingStore{}, WithLogger(logger))

	if keeper.Save("k", map[string]any{"name": "Zeus"}) {
		t.Fatalf("expected save to report failure")
	}
	if _, ok := keeper.Load("k"); ok {
		t.Fatalf("expected load to report missing")
	}
	keeper.Clear("k")
	if len(logger.lines) != 3 {
		t.Fatalf("expected three logged failures, got %v", logger.lines)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, ok, err := store.Get("draft:heroes:new"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := store.Set("draft:heroes:new", `{"values":{"name":"Heracles"}}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("draft:heroes:new", `{"values":{"name":"Hercules"}}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, ok, err := store.Get("draft:heroes:new")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != `{"values":{"name":"Hercules"}}` {
		t.Fatalf("expected latest payload, got %q", got)
	}
	if err := store.Remove("draft:heroes:new"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get("draft:heroes:new"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	if _, err := OpenSQLite(" "); err == nil {
		t.Fatalf("expected empty path to fail")
	}
}
