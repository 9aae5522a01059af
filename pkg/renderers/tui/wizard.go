// Package tui drives a form session from the terminal: one prompt per field,
// step by step, with a review summary before the record is saved.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-mythforms/pkg/form"
	"github.com/goliatone/go-mythforms/pkg/records"
	"github.com/goliatone/go-mythforms/pkg/review"
)

// Step actions offered after the fields of a step.
const (
	ActionContinue = "Continue"
	ActionReview   = "Review and submit"
	ActionBack     = "Back"
	ActionQuit     = "Save draft and exit"
)

// Wizard walks a form.Engine in the terminal.
type Wizard struct {
	driver   PromptDriver
	out      io.Writer
	review   *review.Renderer
	readFile FileReader
	theme    Theme
}

// New constructs a wizard with defaults (survey driver, embedded review
// templates).
func New(options ...Option) (*Wizard, error) {
	w := &Wizard{readFile: os.ReadFile}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(w)
	}
	if w.driver == nil {
		w.driver = NewSurveyDriver(w.out)
	}
	if w.review == nil {
		renderer, err := review.New()
		if err != nil {
			return nil, err
		}
		w.review = renderer
	}
	return w, nil
}

// Run prompts until the record is saved or the user leaves. Leaving, by
// choice or interrupt, flushes the pending draft and returns ErrAborted. A
// store failure the user does not retry is returned as the engine's
// *form.SubmitError.
func (w *Wizard) Run(ctx context.Context, engine *form.Engine) (records.Result, error) {
	if engine == nil {
		return records.Result{}, ErrNoEngine
	}
	steps := engine.Steps()
	if len(steps) == 0 {
		return records.Result{}, errors.New("tui: form has no steps")
	}
	if at, ok := engine.RestoredDraft(); ok {
		msg := "Restored an unsaved draft."
		if !at.IsZero() {
			msg = fmt.Sprintf("Restored an unsaved draft from %s.", at.Local().Format("2006-01-02 15:04"))
		}
		w.info(ctx, msg)
	}

	for {
		if err := ctx.Err(); err != nil {
			return w.leave(engine, err)
		}
		idx := engine.CurrentStep()
		step := steps[idx]
		w.step(ctx, fmt.Sprintf("Step %d of %d: %s", idx+1, len(steps), step.Title))
		for _, field := range step.Fields {
			if err := w.promptField(ctx, engine, field); err != nil {
				return w.leave(engine, err)
			}
		}

		action, err := w.chooseAction(ctx, idx, len(steps))
		if err != nil {
			return w.leave(engine, err)
		}
		switch action {
		case ActionBack:
			if err := engine.Previous(); err != nil {
				return w.leave(engine, err)
			}
			continue
		case ActionQuit:
			return w.leave(engine, ErrAborted)
		}

		if err := engine.Next(); err != nil {
			var verr *form.ValidationError
			if errors.As(err, &verr) {
				w.reportErrors(ctx, engine, verr.Fields)
				continue
			}
			return w.leave(engine, err)
		}
		if action != ActionReview {
			continue
		}

		result, done, err := w.submit(ctx, engine)
		if err != nil {
			return w.leave(engine, err)
		}
		if done {
			return result, nil
		}
	}
}

func (w *Wizard) chooseAction(ctx context.Context, idx, total int) (string, error) {
	options := []string{ActionContinue}
	if idx == total-1 {
		options[0] = ActionReview
	}
	if idx > 0 {
		options = append(options, ActionBack)
	}
	options = append(options, ActionQuit)

	choice, err := w.driver.Select(ctx, SelectConfig{
		Message: "Next",
		Options: options,
	})
	if err != nil {
		return "", err
	}
	if choice < 0 || choice >= len(options) {
		return options[0], nil
	}
	return options[choice], nil
}

// submit shows the review summary, confirms and saves. done reports whether
// the record was saved; a false done with a nil error returns the user to the
// form.
func (w *Wizard) submit(ctx context.Context, engine *form.Engine) (result records.Result, done bool, err error) {
	text, err := w.review.Render(review.FromEngine(engine, false), review.FormatText)
	if err != nil {
		return records.Result{}, false, err
	}
	w.info(ctx, text)

	ok, err := w.driver.Confirm(ctx, ConfirmConfig{Message: "Submit this record?", Default: true})
	if err != nil || !ok {
		return records.Result{}, false, err
	}

	result, err = engine.Submit(ctx)
	if err == nil {
		w.info(ctx, engine.Status())
		return result, true, nil
	}

	var verr *form.ValidationError
	if errors.As(err, &verr) {
		w.reportErrors(ctx, engine, verr.Fields)
		return records.Result{}, false, nil
	}
	var serr *form.SubmitError
	if !errors.As(err, &serr) {
		return records.Result{}, false, err
	}
	w.warn(ctx, "Save failed: "+serr.Message)
	retry, cerr := w.driver.Confirm(ctx, ConfirmConfig{Message: "Keep editing and try again?", Default: true})
	if cerr != nil {
		return records.Result{}, false, cerr
	}
	if !retry {
		return result, false, err
	}
	return records.Result{}, false, nil
}

func (w *Wizard) reportErrors(ctx context.Context, engine *form.Engine, errs map[string]string) {
	w.warn(ctx, "Please correct the following fields:")
	for _, field := range engine.Fields() {
		if msg, ok := errs[field.Name]; ok {
			w.warn(ctx, fmt.Sprintf("  %s: %s", field.DisplayLabel(), msg))
		}
	}
}

func (w *Wizard) leave(engine *form.Engine, err error) (records.Result, error) {
	engine.FlushDraft()
	return records.Result{}, err
}

func (w *Wizard) step(ctx context.Context, msg string) {
	_ = w.driver.Info(ctx, w.theme.StepPrefix+msg)
}

func (w *Wizard) info(ctx context.Context, msg string) {
	_ = w.driver.Info(ctx, w.theme.InfoPrefix+msg)
}

func (w *Wizard) warn(ctx context.Context, msg string) {
	_ = w.driver.Info(ctx, w.theme.ErrorPrefix+msg)
}
