package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	mythforms "github.com/goliatone/go-mythforms"
	"github.com/goliatone/go-mythforms/internal/config"
	"github.com/goliatone/go-mythforms/pkg/drafts"
	"github.com/goliatone/go-mythforms/pkg/renderers/tui"
	"github.com/goliatone/go-mythforms/pkg/schema"
)

func main() {
	category := flag.String("category", "deities", "entity category to edit")
	recordID := flag.String("id", "", "record id to edit (a new record is created when empty)")
	list := flag.Bool("list", false, "list categories and exit")
	contract := flag.Bool("contract", false, "print the category's record contract and exit")
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	switch {
	case *list:
		for _, key := range mythforms.Categories() {
			fmt.Println(key)
		}
		return
	case *contract:
		raw, err := mythforms.Contract(*category)
		if err != nil {
			log.Fatalf("Failed to build contract: %v", err)
		}
		fmt.Println(string(raw))
		return
	}

	if err := run(*category, *recordID, cfg); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			fmt.Println("Draft saved. Run the same command again to continue.")
			return
		}
		log.Fatalf("%v", err)
	}
}

func run(category, recordID string, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.New(os.Stderr, "mythforms: ", log.LstdFlags)
	if !schema.Default().Known(category) {
		logger.Printf("unknown category %q: only common fields will be shown", category)
	}

	backend, err := mythforms.OpenBackend(cfg.StoreDir, cfg.StoreURL)
	if err != nil {
		return err
	}
	draftStore, err := openDrafts(cfg.DraftsDB)
	if err != nil {
		return err
	}
	defer draftStore.Close()

	options := append(backend.Options(),
		mythforms.WithDrafts(draftStore),
		mythforms.WithDraftDelay(cfg.DraftDelay),
		mythforms.WithRecordID(recordID),
		mythforms.WithLogger(logger),
	)
	engine, err := mythforms.New(ctx, category, options...)
	if err != nil {
		return fmt.Errorf("open form: %w", err)
	}
	defer engine.Dispose()

	wizard, err := tui.New()
	if err != nil {
		return err
	}
	result, err := wizard.Run(ctx, engine)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s/%s\n", category, result.ID)
	return nil
}

func openDrafts(path string) (*drafts.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create drafts dir: %w", err)
		}
	}
	return drafts.OpenSQLite(path)
}
