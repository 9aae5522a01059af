package tui

import (
	"io"

	"github.com/goliatone/go-mythforms/pkg/review"
)

// Theme captures optional prefixes the wizard applies to printed messages.
type Theme struct {
	StepPrefix  string
	InfoPrefix  string
	ErrorPrefix string
}

// FileReader loads a local file for image fields.
type FileReader func(path string) ([]byte, error)

// Option configures the wizard.
type Option func(*Wizard)

// WithPromptDriver overrides the prompt driver used by the wizard.
func WithPromptDriver(driver PromptDriver) Option {
	return func(w *Wizard) {
		if driver != nil {
			w.driver = driver
		}
	}
}

// WithOutput sends the default driver's messages to out.
func WithOutput(out io.Writer) Option {
	return func(w *Wizard) {
		if out != nil {
			w.out = out
		}
	}
}

// WithReview overrides the renderer used for the summary shown before
// submission.
func WithReview(renderer *review.Renderer) Option {
	return func(w *Wizard) {
		if renderer != nil {
			w.review = renderer
		}
	}
}

// WithFileReader overrides how image paths are read.
func WithFileReader(read FileReader) Option {
	return func(w *Wizard) {
		if read != nil {
			w.readFile = read
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(w *Wizard) {
		w.theme = theme
	}
}
