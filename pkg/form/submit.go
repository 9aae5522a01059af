package form

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-mythforms/pkg/fieldpath"
	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/records"
	"github.com/goliatone/go-mythforms/pkg/schema"
)

// Record metadata written by Submit.
const (
	CreatedAtPath = "metadata.createdAt"
	UpdatedAtPath = "metadata.updatedAt"
	StatusPath    = "metadata.status"

	// StatusPendingReview is the publication status given to new records
	// that leave it blank.
	StatusPendingReview = "pending_review"
)

// Payload assembles the nested record from the current values, merged over
// the loaded record in edit mode. It does not stamp timestamps.
func (e *Engine) Payload() (map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payloadLocked()
}

func (e *Engine) payloadLocked() (map[string]any, error) {
	flat := make(map[string]any, len(e.fields))
	keys := make([]string, 0, len(e.fields))
	for _, field := range e.fields {
		value := e.values[field.Name]
		if encoder, ok := e.strategies.For(field).(fieldtypes.PayloadEncoder); ok {
			value = encoder.Encode(field, value)
		}
		flat[field.Name] = value
		keys = append(keys, field.Name)
	}
	payload, err := fieldpath.Assemble(e.base, keys, flat)
	if err != nil {
		return nil, fmt.Errorf("form: assemble payload: %w", err)
	}
	return payload, nil
}

// Submit validates every step, assembles and stamps the record, and creates
// or updates it. On validation failure the session jumps to the first
// failing step. On a store failure the message is returned verbatim as a
// *SubmitError and both the values and the draft are kept. On success the
// draft is removed, the session turns clean and further edits are refused.
// Edits made while the store call runs are refused with ErrSubmitInFlight.
// Pending uploads are stored after the record and their URLs are written
// back with a follow-up update; upload failures are reported in Status but
// do not undo the save.
func (e *Engine) Submit(ctx context.Context) (records.Result, error) {
	if !e.submitting.CompareAndSwap(false, true) {
		return records.Result{}, ErrSubmitInFlight
	}
	defer e.submitting.Store(false)

	e.mu.Lock()
	if e.submitted {
		e.mu.Unlock()
		return records.Result{}, ErrSubmitted
	}
	if e.store == nil {
		e.mu.Unlock()
		return records.Result{}, ErrNoStore
	}
	first, ok, errs := e.validator.All(e.steps, e.values)
	if !ok {
		e.errors = errs
		e.current = first
		e.status = "Please correct the highlighted fields."
		e.mu.Unlock()
		return records.Result{}, &ValidationError{Step: first, Fields: errs}
	}
	e.errors = make(map[string]string)

	payload, err := e.payloadLocked()
	if err != nil {
		e.mu.Unlock()
		return records.Result{}, err
	}
	creating := e.recordID == ""
	if err := stamp(payload, e.now(), creating); err != nil {
		e.mu.Unlock()
		return records.Result{}, err
	}
	recordID := e.recordID
	pending := e.sortedPendingLocked()
	uploads := e.pendingUploadsLocked()
	e.status = "Saving…"
	e.mu.Unlock()

	if e.contractCheck {
		if err := schema.ValidatePayload(schema.ContractFor(e.fields), payload); err != nil {
			e.setStatus(err.Error())
			return records.Result{}, err
		}
	}

	var result records.Result
	if creating {
		result = e.store.Create(ctx, e.category, payload)
	} else {
		result = e.store.Update(ctx, e.category, recordID, payload)
	}
	if !result.Success {
		e.setStatus(result.Error)
		return result, &SubmitError{Message: result.Error, Code: result.Code}
	}
	if result.ID == "" {
		result.ID = recordID
	}

	uploadNote := ""
	if len(pending) > 0 {
		result, uploadNote = e.storeUploads(ctx, result, payload, pending, uploads)
	}

	e.draftMu.Lock()
	defer e.draftMu.Unlock()
	e.mu.Lock()
	e.recordID = result.ID
	e.base = payload
	e.submitted = true
	e.dirty = false
	e.status = "Saved."
	if uploadNote != "" {
		e.status = "Saved. " + uploadNote
	}
	key := e.draftKey
	e.mu.Unlock()

	e.autosave.Stop()
	e.keeper.Clear(key)
	return result, nil
}

// storeUploads pushes pending uploads to the sink and writes their URLs back
// to the record. It returns the final result and a note describing any
// upload failure.
func (e *Engine) storeUploads(ctx context.Context, saved records.Result, payload map[string]any, names []string, uploads map[string]model.Upload) (records.Result, string) {
	if e.sink == nil {
		e.logger.Printf("form: %d pending uploads dropped: no attachment sink", len(names))
		return saved, "Images were not uploaded: no attachment storage configured."
	}
	var failed []string
	stored := 0
	for _, name := range names {
		url, err := e.sink.Put(ctx, e.category, saved.ID, name, uploads[name])
		if err != nil {
			e.logger.Printf("form: upload %s: %v", name, err)
			failed = append(failed, e.byName[name].DisplayLabel())
			continue
		}
		if err := fieldpath.Set(payload, name, url); err != nil {
			e.logger.Printf("form: upload %s: %v", name, err)
			failed = append(failed, e.byName[name].DisplayLabel())
			continue
		}
		e.mu.Lock()
		e.values[name] = model.Attachment{URL: url}
		e.mu.Unlock()
		stored++
	}
	if stored > 0 {
		update := e.store.Update(ctx, e.category, saved.ID, payload)
		if !update.Success {
			e.logger.Printf("form: write back upload URLs: %s", update.Error)
			return saved, "Uploaded images could not be linked: " + update.Error
		}
		if update.ID == "" {
			update.ID = saved.ID
		}
		saved = update
	}
	if len(failed) > 0 {
		return saved, "Upload failed for " + strings.Join(failed, ", ") + "."
	}
	return saved, ""
}

func stamp(payload map[string]any, now time.Time, creating bool) error {
	ts := now.UTC().Format(time.RFC3339)
	if err := fieldpath.Set(payload, UpdatedAtPath, ts); err != nil {
		return fmt.Errorf("form: stamp record: %w", err)
	}
	if !creating {
		return nil
	}
	if err := fieldpath.Set(payload, CreatedAtPath, ts); err != nil {
		return fmt.Errorf("form: stamp record: %w", err)
	}
	if status, _ := fieldpath.Get(payload, StatusPath); fieldtypes.IsEmpty(status) {
		if err := fieldpath.Set(payload, StatusPath, StatusPendingReview); err != nil {
			return fmt.Errorf("form: stamp record: %w", err)
		}
	}
	return nil
}

func (e *Engine) setStatus(msg string) {
	e.mu.Lock()
	e.status = msg
	e.mu.Unlock()
}
