package config

import (
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseEnvDefaults(t *testing.T) {
	cfg, err := ParseEnv()
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	want := Config{
		StoreDir:   "data/records",
		DraftsDB:   "data/drafts.db",
		Addr:       ":8080",
		DraftDelay: 3 * time.Second,
		MaxUpload:  10485760,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("MYTHFORMS_DRAFT_DELAY", "soon")

	_, err := ParseEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MYTHFORMS_STORE_DIR", "/srv/records")
	t.Setenv("MYTHFORMS_ADDR", ":9000")

	cfg, err := Parse(newFlagSet(), []string{"-addr", ":7000", "-draft-delay", "500ms"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.StoreDir != "/srv/records" {
		t.Fatalf("expected env store dir, got %q", cfg.StoreDir)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("expected flag addr, got %q", cfg.Addr)
	}
	if cfg.DraftDelay != 500*time.Millisecond {
		t.Fatalf("expected flag delay, got %s", cfg.DraftDelay)
	}
}

func TestValidate(t *testing.T) {
	_, err := Parse(newFlagSet(), []string{"-store-dir", "", "-draft-delay", "1s"})
	if err == nil || !strings.Contains(err.Error(), "store directory or store URL") {
		t.Fatalf("expected missing store error, got %v", err)
	}
	if _, err := Parse(newFlagSet(), []string{"-draft-delay", "0s"}); err == nil {
		t.Fatal("expected non-positive delay to fail")
	}
}
