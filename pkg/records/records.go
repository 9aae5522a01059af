// Package records defines the CRUD collaborator the form engine submits to,
// together with reference adapters: an in-memory store, a JSON-file store,
// an HTTP client, and a chi handler that serves a store over HTTP.
package records

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/model"
)

var (
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("records: not found")
	// ErrInvalidCategory reports a category key that cannot be stored.
	ErrInvalidCategory = errors.New("records: invalid category")
	// ErrInvalidID reports a record id that cannot be stored.
	ErrInvalidID = errors.New("records: invalid id")
)

// Result codes carried alongside failure messages.
const (
	CodeNotFound = "not_found"
	CodeInvalid  = "invalid"
	CodeInternal = "internal"
)

// Result is the tagged outcome of a CRUD call. Expected failures are
// reported through Success/Error rather than Go errors.
type Result struct {
	Success bool           `json:"success"`
	ID      string         `json:"id,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
}

// Ok builds a successful result.
func Ok(id string, data map[string]any) Result {
	return Result{Success: true, ID: id, Data: data}
}

// Fail builds a failed result from err, classifying the sentinel errors.
func Fail(err error) Result {
	if err == nil {
		return Result{Error: "unknown failure", Code: CodeInternal}
	}
	code := CodeInternal
	switch {
	case errors.Is(err, ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrInvalidID):
		code = CodeInvalid
	}
	return Result{Error: err.Error(), Code: code}
}

// Store is the CRUD collaborator.
type Store interface {
	Read(ctx context.Context, category, id string) Result
	Create(ctx context.Context, category string, data map[string]any) Result
	Update(ctx context.Context, category, id string, data map[string]any) Result
}

// AttachmentSink persists a binary payload for a stored record and returns
// a stable URL for it.
type AttachmentSink interface {
	Put(ctx context.Context, category, id, field string, upload model.Upload) (string, error)
}

var safeSegment = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func cleanCategory(category string) (string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if !safeSegment.MatchString(category) || strings.Contains(category, "..") {
		return "", ErrInvalidCategory
	}
	return category, nil
}

func cleanID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !safeSegment.MatchString(id) || strings.Contains(id, "..") {
		return "", ErrInvalidID
	}
	return id, nil
}
