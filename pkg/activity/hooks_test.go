package activity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " contract.exported ",
		ActorID:    " actor ",
		TenantID:   " tenant ",
		ObjectType: " contract ",
		ObjectID:   " layout-contract ",
		Channel:    " contracts ",
		Schema:     " layout-contract ",
		Version:    " 1.1.0 ",
		Hash:       " sha256:abc ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "contract.exported" || got.ObjectType != "contract" || got.ObjectID != "layout-contract" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.TenantID != "tenant" || got.Channel != "contracts" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.Schema != "layout-contract" || got.Version != "1.1.0" || got.Hash != "sha256:abc" {
		t.Fatalf("unexpected contract fields: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: VerbExported}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return boom1 }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbImported, ObjectType: ObjectTypeContract, ObjectID: "layout-contract"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: VerbExported, ObjectType: ObjectTypeContract, ObjectID: "layout-contract"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	last, ok := capture.Last()
	if !ok {
		t.Fatalf("expected one event captured")
	}
	if last.Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", last.Channel)
	}
	if enabled.Channel() != DefaultChannel {
		t.Fatalf("expected emitter channel %q, got %q", DefaultChannel, enabled.Channel())
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	occurred := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbDraftSaved,
		ObjectType: ObjectTypeDraft,
		ObjectID:   "drafts/main",
		Channel:    "custom",
		OccurredAt: occurred,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(occurred) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestEmitterWithoutHooksIsDisabled(t *testing.T) {
	emitter := NewEmitter(Hooks{nil}, Config{Enabled: true})
	if emitter.Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}
	var nilEmitter *Emitter
	if err := nilEmitter.Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("expected nil emitter to be a no-op, got %v", err)
	}
}

func TestEmitterStampsDefaults(t *testing.T) {
	capture := &CaptureHook{}
	stamped := time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC)
	emitter := NewEmitter(Hooks{capture}, Config{
		Enabled: true,
		ActorID: " editor ",
		Now:     func() time.Time { return stamped },
	})

	emitter.Publish(context.Background(), BuildExportedEvent(ContractEventInput{Schema: "layout-contract"}))
	emitter.Publish(context.Background(), BuildImportedEvent(ContractEventInput{
		ActorID: "importer",
		Schema:  "layout-contract",
	}))

	if len(capture.Events) != 2 {
		t.Fatalf("expected two events, got %d", len(capture.Events))
	}
	first := capture.Events[0]
	if first.ActorID != "editor" || !first.OccurredAt.Equal(stamped) {
		t.Fatalf("expected actor and clock defaults, got %+v", first)
	}
	if capture.Events[1].ActorID != "importer" {
		t.Fatalf("expected explicit actor preserved, got %q", capture.Events[1].ActorID)
	}
}

func TestEmitterPublishLogsHookFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	failing := HookFunc(func(context.Context, Event) error {
		return errors.New("sink offline")
	})
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{failing, capture}, Config{Enabled: true, Logger: logger})

	emitter.Publish(context.Background(), BuildDraftSavedEvent(ContractEventInput{ObjectID: "drafts/main"}))

	if len(capture.Events) != 1 {
		t.Fatalf("expected remaining hooks notified, got %d events", len(capture.Events))
	}
	if !strings.Contains(buf.String(), "activity hook failed") || !strings.Contains(buf.String(), "sink offline") {
		t.Fatalf("expected hook failure logged, got %q", buf.String())
	}
}

func TestCompactHooks(t *testing.T) {
	if CompactHooks(Hooks{nil, nil}) != nil {
		t.Fatalf("expected nil when only nil hooks are given")
	}
	capture := &CaptureHook{}
	hooks := Hooks{nil, capture}
	compacted := CompactHooks(hooks)
	if len(compacted) != 1 {
		t.Fatalf("expected one hook, got %d", len(compacted))
	}
	compacted[0] = nil
	if hooks[1] == nil {
		t.Fatalf("expected CompactHooks to copy")
	}
}

func TestHooksNotifyStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	capture := &CaptureHook{}
	hooks := Hooks{
		HookFunc(func(context.Context, Event) error {
			cancel()
			return nil
		}),
		capture,
	}

	err := hooks.Notify(ctx, BuildExportedEvent(ContractEventInput{Schema: "layout-contract"}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected later hooks skipped, got %d events", len(capture.Events))
	}
}

func TestLogHookWritesEventGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := Hooks{LogHook(logger, slog.LevelDebug), LogHook(nil, slog.LevelInfo)}

	err := hooks.Notify(context.Background(), BuildArchiveSavedEvent(ContractEventInput{
		ActorID:  "editor",
		Schema:   "layout-contract",
		Version:  "1.1.0",
		Hash:     "sha256:abc",
		Metadata: map[string]any{"commit": "c0ffee"},
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"event.verb=contract.archive.saved",
		"event.object=contract:layout-contract",
		"event.actor=editor",
		"event.hash=sha256:abc",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "event.tenant") || strings.Contains(out, "event.channel") {
		t.Fatalf("expected empty fields omitted, got %q", out)
	}
}
