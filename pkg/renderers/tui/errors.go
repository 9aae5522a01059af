package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or chose to
	// leave the wizard. Pending draft changes are flushed first.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoEngine is returned by Run when no form session is given.
	ErrNoEngine = errors.New("tui: form engine is nil")
)
