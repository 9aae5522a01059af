package form_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mythforms/pkg/debounce"
	"github.com/goliatone/go-mythforms/pkg/drafts"
	"github.com/goliatone/go-mythforms/pkg/fieldtypes"
	"github.com/goliatone/go-mythforms/pkg/form"
	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/references"
	"github.com/goliatone/go-mythforms/pkg/testsupport"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	clock  *debounce.Manual
	drafts *testsupport.DraftStore
	store  *testsupport.RecordStore
}

func newHarness() *harness {
	return &harness{
		clock:  debounce.NewManual(),
		drafts: testsupport.NewDraftStore(),
		store:  testsupport.NewRecordStore(),
	}
}

func (h *harness) engine(t *testing.T, category string, opts ...form.Option) *form.Engine {
	t.Helper()
	base := []form.Option{
		form.WithStore(h.store),
		form.WithDrafts(h.drafts),
		form.WithScheduler(h.clock),
		form.WithClock(func() time.Time { return fixedNow }),
	}
	engine, err := form.New(context.Background(), category, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(engine.Dispose)
	return engine
}

func mustSet(t *testing.T, engine *form.Engine, name string, value any) {
	t.Helper()
	if err := engine.Set(name, value); err != nil {
		t.Fatalf("set %s: %v", name, err)
	}
}

func fillBasics(t *testing.T, engine *form.Engine) {
	t.Helper()
	mustSet(t, engine, "name", "Zeus")
	mustSet(t, engine, "mythology", "greek")
	mustSet(t, engine, "type", "deity")
}

func TestEngine_StepsFollowGroups(t *testing.T) {
	engine := newHarness().engine(t, "deities")

	var got []string
	for _, step := range engine.Steps() {
		got = append(got, step.ID)
	}
	want := []string{"basic", "details", "attributes", "relationships", "domain", "sources", "system"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if got := engine.Value("metadata.visibility"); got != "public" {
		t.Fatalf("expected default visibility, got %v", got)
	}
}

func TestEngine_NextBlocksOnInvalidStep(t *testing.T) {
	engine := newHarness().engine(t, "deities")

	err := engine.Next()
	var verr *form.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, form.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if engine.CurrentStep() != 0 {
		t.Fatalf("expected to stay on step 0, got %d", engine.CurrentStep())
	}
	if got := engine.Error("name"); got != "Name is required" {
		t.Fatalf("unexpected name error %q", got)
	}
	if engine.Error("mythology") == "" {
		t.Fatalf("expected mythology error")
	}

	mustSet(t, engine, "name", "Zeus")
	if got := engine.Error("name"); got != "" {
		t.Fatalf("expected name error cleared after fix, got %q", got)
	}
	if engine.Error("mythology") == "" {
		t.Fatalf("untouched field should keep its error")
	}
}

func TestEngine_EditsDoNotValidateCleanFields(t *testing.T) {
	engine := newHarness().engine(t, "deities")

	mustSet(t, engine, "name", "Z")
	if got := engine.Error("name"); got != "" {
		t.Fatalf("expected no error before the step is checked, got %q", got)
	}
}

func TestEngine_Navigation(t *testing.T) {
	engine := newHarness().engine(t, "deities")

	if err := engine.GoTo(2); !errors.Is(err, form.ErrStepLocked) {
		t.Fatalf("expected ErrStepLocked, got %v", err)
	}
	if err := engine.GoTo(99); !errors.Is(err, form.ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}

	fillBasics(t, engine)
	for i := 0; i < 2; i++ {
		if err := engine.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	if engine.CurrentStep() != 2 || engine.HighestStep() != 2 {
		t.Fatalf("expected step 2, got current=%d highest=%d", engine.CurrentStep(), engine.HighestStep())
	}

	if err := engine.Previous(); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if engine.CurrentStep() != 1 {
		t.Fatalf("expected step 1, got %d", engine.CurrentStep())
	}
	if err := engine.GoTo(2); err != nil {
		t.Fatalf("goto reached step: %v", err)
	}
	if err := engine.GoTo(0); err != nil {
		t.Fatalf("goto first step: %v", err)
	}
	if err := engine.Previous(); err != nil || engine.CurrentStep() != 0 {
		t.Fatalf("previous on first step should stay put, got %d (%v)", engine.CurrentStep(), err)
	}
	if err := engine.GoTo(3); !errors.Is(err, form.ErrStepLocked) {
		t.Fatalf("expected ErrStepLocked beyond highest step, got %v", err)
	}
}

func TestEngine_NextOnLastStepStays(t *testing.T) {
	engine := newHarness().engine(t, "deities")
	fillBasics(t, engine)

	last := len(engine.Steps()) - 1
	for engine.CurrentStep() < last {
		if err := engine.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if !engine.IsLastStep() {
		t.Fatalf("expected last step")
	}
	if err := engine.Next(); err != nil {
		t.Fatalf("next on last step: %v", err)
	}
	if engine.CurrentStep() != last {
		t.Fatalf("expected to stay on %d, got %d", last, engine.CurrentStep())
	}
}

func TestEngine_PayloadNestsDottedFields(t *testing.T) {
	engine := newHarness().engine(t, "deities")
	fillBasics(t, engine)
	mustSet(t, engine, "worship.centers", []string{"Olympia", "Dodona"})
	if err := engine.SetKey("parentage", "father", "Cronus"); err != nil {
		t.Fatalf("set key: %v", err)
	}
	if err := engine.AddTag("domains", "Thunder"); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	if err := engine.AddTag("domains", "thunder"); !errors.Is(err, fieldtypes.ErrDuplicateTag) {
		t.Fatalf("expected ErrDuplicateTag, got %v", err)
	}

	payload, err := engine.Payload()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	worship, ok := payload["worship"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested worship object, got %#v", payload["worship"])
	}
	if diff := cmp.Diff([]string{"Olympia", "Dodona"}, worship["centers"]); diff != "" {
		t.Fatalf("centers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"father": "Cronus"}, payload["parentage"]); diff != "" {
		t.Fatalf("parentage mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Thunder"}, payload["domains"]); diff != "" {
		t.Fatalf("domains mismatch (-want +got):\n%s", diff)
	}
	metadata, ok := payload["metadata"].(map[string]any)
	if !ok || metadata["visibility"] != "public" {
		t.Fatalf("expected nested metadata with visibility, got %#v", payload["metadata"])
	}
	if _, ok := payload["worship.centers"]; ok {
		t.Fatalf("dotted key leaked into payload")
	}
}

func TestEngine_AutosaveCoalescesEdits(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities")

	for i := 0; i < 10; i++ {
		mustSet(t, engine, "summary", strings.Repeat("a", i+1))
		h.clock.Advance(time.Second)
	}
	if got := len(h.drafts.Writes()); got != 0 {
		t.Fatalf("expected no writes during the burst, got %d", got)
	}

	h.clock.Advance(form.DefaultDraftDelay)
	writes := h.drafts.Writes()
	if len(writes) != 1 {
		t.Fatalf("expected one draft write, got %d", len(writes))
	}
	env, err := drafts.Decode(writes[0])
	if err != nil {
		t.Fatalf("decode draft: %v", err)
	}
	if got := env.Values["summary"]; got != strings.Repeat("a", 10) {
		t.Fatalf("expected final summary in draft, got %v", got)
	}
	if !env.SavedAt.Equal(fixedNow) {
		t.Fatalf("expected savedAt %v, got %v", fixedNow, env.SavedAt)
	}
}

func TestEngine_CleanSessionWritesNoDraft(t *testing.T) {
	h := newHarness()
	h.engine(t, "deities")

	h.clock.Advance(time.Hour)
	if got := len(h.drafts.Writes()); got != 0 {
		t.Fatalf("expected no draft for an untouched form, got %d", got)
	}
}

func TestEngine_DraftRestoresInFreshSession(t *testing.T) {
	h := newHarness()
	first := h.engine(t, "deities")
	fillBasics(t, first)
	mustSet(t, first, "epithets", []string{"Cloud-gatherer", "Father of gods"})
	if err := first.AddReference("consorts", model.EntityReference{ID: "hera", Name: "Hera", Type: "deity"}); err != nil {
		t.Fatalf("add reference: %v", err)
	}
	if !first.FlushDraft() {
		t.Fatalf("expected a pending draft to flush")
	}
	first.Dispose()

	if first.DraftKey() != "draft:deities:new" {
		t.Fatalf("unexpected draft key %q", first.DraftKey())
	}

	second := h.engine(t, "deities")
	if _, ok := second.RestoredDraft(); !ok {
		t.Fatalf("expected restored draft")
	}
	if !second.IsDirty() {
		t.Fatalf("restored session should be dirty")
	}
	for _, name := range []string{"name", "mythology", "type"} {
		if diff := cmp.Diff(first.Value(name), second.Value(name)); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
	if diff := cmp.Diff([]string{"Cloud-gatherer", "Father of gods"}, second.Value("epithets")); diff != "" {
		t.Fatalf("epithets mismatch (-want +got):\n%s", diff)
	}
	want := []model.EntityReference{{ID: "hera", Name: "Hera", Type: "deity"}}
	if diff := cmp.Diff(want, second.Value("consorts")); diff != "" {
		t.Fatalf("consorts mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_CorruptDraftIsIgnored(t *testing.T) {
	h := newHarness()
	if err := h.drafts.Set(drafts.Key("deities", ""), "{not json"); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	engine := h.engine(t, "deities")
	if _, ok := engine.RestoredDraft(); ok {
		t.Fatalf("corrupt draft should not restore")
	}
	if engine.IsDirty() {
		t.Fatalf("session should start clean")
	}
}

func TestEngine_DraftStoreFailureIsSwallowed(t *testing.T) {
	h := newHarness()
	h.drafts.FailWith(errors.New("quota exceeded"))
	var logs bytes.Buffer
	engine := h.engine(t, "deities", form.WithLogger(testsupport.NewBufferLogger(&logs)))

	mustSet(t, engine, "name", "Zeus")
	h.clock.Advance(form.DefaultDraftDelay)

	if !strings.Contains(logs.String(), "quota exceeded") {
		t.Fatalf("expected swallowed failure in logs, got %q", logs.String())
	}
	if got := engine.Value("name"); got != "Zeus" {
		t.Fatalf("edit lost after draft failure: %v", got)
	}
}

func TestEngine_SubmitCreatesRecord(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities")
	fillBasics(t, engine)
	h.clock.Advance(form.DefaultDraftDelay)
	if _, ok, _ := h.drafts.Get(engine.DraftKey()); !ok {
		t.Fatalf("expected draft before submit")
	}

	result, err := engine.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Success || result.ID == "" {
		t.Fatalf("unexpected result %+v", result)
	}

	creates := h.store.CallsTo("create")
	if len(creates) != 1 {
		t.Fatalf("expected one create call, got %d", len(creates))
	}
	data := creates[0].Data
	for key, want := range map[string]string{"name": "Zeus", "mythology": "greek", "type": "deity"} {
		if data[key] != want {
			t.Fatalf("expected %s=%q, got %v", key, want, data[key])
		}
	}
	metadata := data["metadata"].(map[string]any)
	stamp := fixedNow.Format(time.RFC3339)
	if metadata["createdAt"] != stamp || metadata["updatedAt"] != stamp {
		t.Fatalf("expected timestamps %s, got %#v", stamp, metadata)
	}
	if metadata["status"] != form.StatusPendingReview {
		t.Fatalf("expected pending review status, got %v", metadata["status"])
	}

	if _, ok, _ := h.drafts.Get(drafts.Key("deities", "")); ok {
		t.Fatalf("draft should be removed after submit")
	}
	if engine.IsDirty() {
		t.Fatalf("session should be clean after submit")
	}
	if !engine.Submitted() || engine.RecordID() != result.ID {
		t.Fatalf("expected submitted session for %s", result.ID)
	}
	if err := engine.Set("name", "Jupiter"); !errors.Is(err, form.ErrSubmitted) {
		t.Fatalf("expected ErrSubmitted, got %v", err)
	}
	if _, err := engine.Submit(context.Background()); !errors.Is(err, form.ErrSubmitted) {
		t.Fatalf("expected ErrSubmitted on second submit, got %v", err)
	}
}

func TestEngine_SubmitJumpsToFirstFailingStep(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities")
	fillBasics(t, engine)
	if err := engine.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := engine.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	mustSet(t, engine, "importance", 500)
	mustSet(t, engine, "mythology", "")

	_, err := engine.Submit(context.Background())
	var verr *form.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Step != 0 || engine.CurrentStep() != 0 {
		t.Fatalf("expected jump to step 0, got error step %d current %d", verr.Step, engine.CurrentStep())
	}
	if engine.Error("mythology") == "" || engine.Error("importance") == "" {
		t.Fatalf("expected errors on every failing field, got %v", engine.Errors())
	}
	if got := len(h.store.Calls()); got != 0 {
		t.Fatalf("store must not be called on invalid form, got %d calls", got)
	}
}

func TestEngine_UpdateFailureKeepsDraft(t *testing.T) {
	h := newHarness()
	seed := h.store.MemoryStore.Create(context.Background(), "deities", map[string]any{
		"name": "Zeus", "mythology": "greek", "type": "deity",
	})
	engine := h.engine(t, "deities", form.WithRecordID(seed.ID))
	if engine.IsDirty() {
		t.Fatalf("loaded record should start clean")
	}

	mustSet(t, engine, "summary", "King of the gods")
	h.clock.Advance(form.DefaultDraftDelay)
	h.store.FailWrites("Permission denied")

	_, err := engine.Submit(context.Background())
	var serr *form.SubmitError
	if !errors.As(err, &serr) || serr.Message != "Permission denied" {
		t.Fatalf("expected store message, got %v", err)
	}
	if engine.Status() != "Permission denied" {
		t.Fatalf("expected status to carry the store message, got %q", engine.Status())
	}
	if !engine.IsDirty() || engine.Submitted() {
		t.Fatalf("failed submit must keep the session editable and dirty")
	}
	if _, ok, _ := h.drafts.Get(drafts.Key("deities", seed.ID)); !ok {
		t.Fatalf("draft must survive a failed update")
	}
	if got := engine.Value("summary"); got != "King of the gods" {
		t.Fatalf("values lost after failure: %v", got)
	}

	h.store.FailWrites("")
	if _, err := engine.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	updates := h.store.CallsTo("update")
	if len(updates) != 2 {
		t.Fatalf("expected two update attempts, got %d", len(updates))
	}
	metadata := updates[1].Data["metadata"].(map[string]any)
	if _, ok := metadata["createdAt"]; ok {
		t.Fatalf("update must not stamp createdAt")
	}
}

func TestEngine_EditModeMergesDraftOverRecord(t *testing.T) {
	h := newHarness()
	seed := h.store.MemoryStore.Create(context.Background(), "deities", map[string]any{
		"name": "Zeus", "mythology": "greek", "type": "deity",
		"domains": []any{"Sky"},
		"worship": map[string]any{"centers": []any{"Olympia"}},
		"legacy":  "kept",
	})
	raw, err := drafts.Encode(map[string]any{"domains": []any{"Sky", "Thunder"}, "retired": "x"}, fixedNow)
	if err != nil {
		t.Fatalf("encode draft: %v", err)
	}
	if err := h.drafts.Set(drafts.Key("deities", seed.ID), raw); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	engine := h.engine(t, "deities", form.WithRecordID(seed.ID))
	if got := engine.Value("name"); got != "Zeus" {
		t.Fatalf("expected record value, got %v", got)
	}
	if diff := cmp.Diff([]string{"Sky", "Thunder"}, engine.Value("domains")); diff != "" {
		t.Fatalf("domains mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Olympia"}, engine.Value("worship.centers")); diff != "" {
		t.Fatalf("centers mismatch (-want +got):\n%s", diff)
	}
	if at, ok := engine.RestoredDraft(); !ok || !at.Equal(fixedNow) {
		t.Fatalf("expected restored draft at %v, got %v %v", fixedNow, at, ok)
	}

	payload, err := engine.Payload()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["legacy"] != "kept" {
		t.Fatalf("unknown record keys must survive, got %#v", payload)
	}
	if _, ok := payload["retired"]; ok {
		t.Fatalf("unknown draft keys must be dropped")
	}
}

func TestEngine_EditModeReadFailure(t *testing.T) {
	h := newHarness()
	_, err := form.New(context.Background(), "deities",
		form.WithStore(h.store),
		form.WithRecordID("missing"),
		form.WithScheduler(h.clock),
	)
	var serr *form.SubmitError
	if !errors.As(err, &serr) {
		t.Fatalf("expected wrapped store failure, got %v", err)
	}
}

func TestEngine_ConcurrentSubmitIsRejected(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities")
	fillBasics(t, engine)

	entered, release := h.store.Block()
	done := make(chan error, 1)
	go func() {
		_, err := engine.Submit(context.Background())
		done <- err
	}()
	<-entered

	if _, err := engine.Submit(context.Background()); !errors.Is(err, form.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if got := len(h.store.CallsTo("create")); got != 1 {
		t.Fatalf("expected one create, got %d", got)
	}
}

func TestEngine_EditsDuringSubmitAreRefused(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities")
	fillBasics(t, engine)

	entered, release := h.store.Block()
	done := make(chan error, 1)
	go func() {
		_, err := engine.Submit(context.Background())
		done <- err
	}()
	<-entered

	if err := engine.Set("summary", "King of the gods"); !errors.Is(err, form.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	if got := engine.Value("summary"); got != "" {
		t.Fatalf("expected summary unchanged, got %v", got)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	creates := h.store.CallsTo("create")
	if len(creates) != 1 {
		t.Fatalf("expected one create, got %d", len(creates))
	}
	if got := creates[0].Data["summary"]; got != "" {
		t.Fatalf("expected blank summary in the stored record, got %v", got)
	}
	if engine.IsDirty() {
		t.Fatalf("expected clean session after save")
	}
}

func TestEngine_AutosaveDuringSubmitDoesNotOutliveSave(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities")
	fillBasics(t, engine)

	entered, release := h.store.Block()
	done := make(chan error, 1)
	go func() {
		_, err := engine.Submit(context.Background())
		done <- err
	}()
	<-entered

	h.clock.Advance(form.DefaultDraftDelay)
	if _, ok, _ := h.drafts.Get(engine.DraftKey()); !ok {
		t.Fatalf("expected autosave while the store call runs")
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok, _ := h.drafts.Get(engine.DraftKey()); ok {
		t.Fatalf("expected draft removed after save")
	}
	h.clock.Advance(time.Hour)
	if _, ok, _ := h.drafts.Get(engine.DraftKey()); ok {
		t.Fatalf("expected no draft written after save")
	}
}

func TestEngine_UploadsAreStoredAfterSave(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities")
	fillBasics(t, engine)
	upload := model.Upload{Filename: "zeus.png", ContentType: "image/png", Data: []byte("\x89PNG")}
	if err := engine.Attach("image", upload); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, ok := engine.Attachments()["image"]; !ok {
		t.Fatalf("expected pending upload")
	}

	result, err := engine.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	att, ok := engine.Value("image").(model.Attachment)
	if !ok || att.Pending() {
		t.Fatalf("expected stored attachment, got %#v", engine.Value("image"))
	}
	wantURL := "/attachments/deities/" + result.ID + "/image.png"
	if att.URL != wantURL {
		t.Fatalf("expected url %s, got %s", wantURL, att.URL)
	}
	updates := h.store.CallsTo("update")
	if len(updates) != 1 || updates[0].Data["image"] != wantURL {
		t.Fatalf("expected url write-back, got %#v", updates)
	}
	stored, ok := h.store.Attachment(wantURL)
	if !ok || !bytes.Equal(stored.Data, upload.Data) {
		t.Fatalf("attachment not stored")
	}
}

func TestEngine_UploadFailureDoesNotUndoSave(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities", form.WithAttachmentSink(testsupport.FailingSink{}))
	fillBasics(t, engine)
	if err := engine.Attach("image", model.Upload{Filename: "zeus.png", ContentType: "image/png", Data: []byte("x")}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if _, err := engine.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !engine.Submitted() {
		t.Fatalf("record save should stand")
	}
	if !strings.Contains(engine.Status(), "Upload failed for Portrait") {
		t.Fatalf("expected upload note, got %q", engine.Status())
	}
}

func TestEngine_OversizeUploadSetsFieldError(t *testing.T) {
	engine := newHarness().engine(t, "deities")

	big := model.Upload{Filename: "huge.png", ContentType: "image/png", Data: make([]byte, 5*1024*1024+1)}
	err := engine.Attach("image", big)
	if !errors.Is(err, fieldtypes.ErrUploadTooLarge) {
		t.Fatalf("expected ErrUploadTooLarge, got %v", err)
	}
	if engine.Error("image") == "" {
		t.Fatalf("expected field error")
	}
	if att, _ := engine.Value("image").(model.Attachment); !att.IsZero() {
		t.Fatalf("value must stay unchanged, got %#v", att)
	}
}

func TestEngine_MutationGuards(t *testing.T) {
	engine := newHarness().engine(t, "deities")

	if err := engine.Set("nope", "x"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := engine.AddTag("name", "x"); !errors.Is(err, form.ErrFieldType) {
		t.Fatalf("expected ErrFieldType, got %v", err)
	}
	if err := engine.RemoveItem("epithets", 3); !errors.Is(err, fieldtypes.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestEngine_ListHelpers(t *testing.T) {
	engine := newHarness().engine(t, "deities")
	for _, item := range []string{"Cloud-gatherer", "Aegis-bearer", "Far-seeing"} {
		if err := engine.AddItem("epithets", item); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}
	if err := engine.MoveItem("epithets", 2, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := engine.RemoveItem("epithets", 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if diff := cmp.Diff([]string{"Far-seeing", "Aegis-bearer"}, engine.Value("epithets")); diff != "" {
		t.Fatalf("epithets mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ContractCheckAcceptsValidRecord(t *testing.T) {
	h := newHarness()
	engine := h.engine(t, "deities", form.WithContractCheck())
	fillBasics(t, engine)
	mustSet(t, engine, "importance", 90)

	if _, err := engine.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestEngine_Suggest(t *testing.T) {
	lookup := &testsupport.Lookup{Hits: []references.Hit{{ID: "hera", Name: "Hera", Type: "deity"}}}
	engine := newHarness().engine(t, "deities", form.WithLookup(lookup))

	refs, err := engine.Suggest(context.Background(), "consorts", "he")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	want := []model.EntityReference{{ID: "hera", Name: "Hera", Type: "deity"}}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Fatalf("suggestions mismatch (-want +got):\n%s", diff)
	}

	refs, err = engine.Suggest(context.Background(), "consorts", "h")
	if err != nil || len(refs) != 0 {
		t.Fatalf("short query should yield nothing, got %v (%v)", refs, err)
	}
	if _, err := engine.Suggest(context.Background(), "name", "he"); !errors.Is(err, form.ErrFieldType) {
		t.Fatalf("expected ErrFieldType, got %v", err)
	}
}

func TestEngine_SuggestLaterDeliversNewestQuery(t *testing.T) {
	h := newHarness()
	lookup := &testsupport.Lookup{Hits: []references.Hit{{ID: "hera", Name: "Hera", Type: "deity"}}}
	engine := h.engine(t, "deities", form.WithLookup(lookup))

	var delivered [][]model.EntityReference
	deliver := func(_ uint64, refs []model.EntityReference) {
		delivered = append(delivered, refs)
	}
	if _, err := engine.SuggestLater("consorts", "he", deliver); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	seq, err := engine.SuggestLater("consorts", "her", deliver)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	h.clock.Advance(references.DefaultDelay)

	if len(delivered) != 1 || len(delivered[0]) != 1 {
		t.Fatalf("expected one delivery with one hit, got %v", delivered)
	}
	if lookup.Calls() != 1 {
		t.Fatalf("expected one lookup, got %d", lookup.Calls())
	}
	if !engine.SuggestionCurrent("consorts", seq) {
		t.Fatalf("latest query should be current")
	}
}
