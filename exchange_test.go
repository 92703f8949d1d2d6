package contracts

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-contracts/pkg/activity"
)

func newTestExchange(t *testing.T, opts ...ExchangeOption) (*Exchange, *activity.CaptureHook, *bytes.Buffer) {
	t.Helper()
	capture := &activity.CaptureHook{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := []ExchangeOption{
		WithLogger(logger),
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityChannel("test"),
		WithActorID("user-1"),
		WithWrapOptions(WithClock(fixedClock)),
	}
	return NewExchange(append(base, opts...)...), capture, &logs
}

func TestExchangeExport(t *testing.T) {
	x, capture, logs := newTestExchange(t)
	doc := sampleLayoutDocument(t)

	env, warnings, err := x.Export(context.Background(), doc, SchemaLayoutContract, LayoutContractVersion)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(warnings) != 3 {
		t.Fatalf("expected three missing-region warnings, got %v", warnings)
	}
	digest, _ := Digest(doc)
	if env[MetaKeyHash] != digest {
		t.Fatalf("expected hash %s, got %v", digest, env[MetaKeyHash])
	}

	event, ok := capture.Last()
	if !ok {
		t.Fatalf("expected an activity event")
	}
	if event.Verb != activity.VerbExported || event.Schema != SchemaLayoutContract || event.Hash != digest {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Channel != "test" || event.ActorID != "user-1" || !event.OccurredAt.Equal(fixedNow) {
		t.Fatalf("unexpected event envelope %+v", event)
	}
	if event.Metadata["warnings"] != 3 {
		t.Fatalf("expected warning count in metadata, got %v", event.Metadata)
	}
	if !strings.Contains(logs.String(), "contract exported with warnings") {
		t.Fatalf("expected warning log, got %s", logs.String())
	}
}

func TestExchangeExportNormalizesRegistries(t *testing.T) {
	x, _, _ := newTestExchange(t)
	doc := Document{"components": map[string]any{
		"Button": map[string]any{"name": "Btn", "category": "action"},
	}}

	env, warnings, err := x.Export(context.Background(), doc, SchemaUIRegistryContract, RegistryContractVersion)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	button := env["components"].(map[string]any)["Button"].(map[string]any)
	if button["name"] != "Button" {
		t.Fatalf("expected normalized name, got %v", button["name"])
	}
	digest, _ := Digest(Normalize(doc))
	if env[MetaKeyHash] != digest {
		t.Fatalf("hash should cover the normalized document")
	}
}

func TestExchangeExportFailures(t *testing.T) {
	x, capture, _ := newTestExchange(t)
	if _, _, err := x.Export(context.Background(), nil, SchemaLayoutContract, "1.0.0"); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("nil document should be malformed, got %v", err)
	}
	if _, _, err := x.Export(context.Background(), Document{}, "theme-contract", "1.0.0"); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if _, _, err := x.Export(context.Background(), Document{}, SchemaLayoutContract, "latest"); !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("expected invalid version, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("failed exports should not emit events, got %v", capture.Verbs())
	}
}

func TestExchangeRoundTrip(t *testing.T) {
	x, capture, _ := newTestExchange(t)
	doc := sampleLayoutDocument(t)

	env, _, err := x.Export(context.Background(), doc, SchemaLayoutContract, LayoutContractVersion)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := MarshalEnvelope(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, meta, warnings, err := x.Import(context.Background(), data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("expected %v, got %v", doc, got)
	}
	if meta.Hash != env[MetaKeyHash] || meta.Version != LayoutContractVersion {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if len(warnings) != 3 {
		t.Fatalf("import should re-attach warnings, got %v", warnings)
	}
	if verbs := capture.Verbs(); !reflect.DeepEqual(verbs, []string{activity.VerbExported, activity.VerbImported}) {
		t.Fatalf("unexpected verbs %v", verbs)
	}
}

func TestExchangeImportUpgradesLegacyEnvelopes(t *testing.T) {
	x, _, _ := newTestExchange(t)
	data := []byte(`{
		"schema": "layout-contract",
		"version": "1.0.0",
		"hash": "sha256:0000000000000000000000000000000000000000000000000000000000000000",
		"generatedAt": "2023-01-01T00:00:00.000Z",
		"layout": {"headerElements": {"cta": {"label": "Buy", "href": "/buy"}}}
	}`)

	doc, meta, _, err := x.Import(context.Background(), data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if meta.Version != "1.0.0" {
		t.Fatalf("meta should be reported as written, got %s", meta.Version)
	}
	cta := doc["layout"].(map[string]any)["headerElements"].(map[string]any)["cta"].(map[string]any)
	if _, ok := cta["items"]; !ok {
		t.Fatalf("expected upgraded cta, got %v", cta)
	}

	plain, _, _ := newTestExchange(t, WithMigrator(nil))
	doc, _, _, err = plain.Import(context.Background(), data)
	if err != nil {
		t.Fatalf("import without migrator: %v", err)
	}
	cta = doc["layout"].(map[string]any)["headerElements"].(map[string]any)["cta"].(map[string]any)
	if _, ok := cta["items"]; ok {
		t.Fatalf("migrations should be disabled")
	}
}

func TestExchangeHashVerification(t *testing.T) {
	writer, _, _ := newTestExchange(t)
	env, _, err := writer.Export(context.Background(), sampleLayoutDocument(t), SchemaLayoutContract, LayoutContractVersion)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	env["pages"] = map[string]any{"other": map[string]any{"label": "Other", "route": "/other"}}

	lenient, _, _ := newTestExchange(t)
	if _, _, _, err := lenient.ImportEnvelope(context.Background(), env); err != nil {
		t.Fatalf("verification is off by default: %v", err)
	}

	strict, capture, _ := newTestExchange(t, WithHashVerification(true))
	_, meta, _, err := strict.ImportEnvelope(context.Background(), env)
	if !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("expected hash mismatch, got %v", err)
	}
	if meta.Schema != SchemaLayoutContract {
		t.Fatalf("meta should be returned with the mismatch, got %+v", meta)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("rejected imports should not emit events")
	}
}

func TestExchangeImportRejectsBadInput(t *testing.T) {
	x, _, _ := newTestExchange(t)
	if _, _, _, err := x.Import(context.Background(), []byte("not: [valid")); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
	if _, _, _, err := x.Import(context.Background(), []byte(`{"schema": "theme-contract"}`)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if _, _, _, err := x.Import(context.Background(), []byte(`{"layout": {}}`)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("missing schema should be a mismatch, got %v", err)
	}
}

func TestExchangeLinterWarnings(t *testing.T) {
	linter, err := NewLinter([]LintRule{
		{Code: "has-home", Path: "pages.home", Message: "home page required", Expr: `defined("pages.home")`},
		{Code: "has-about", Path: "pages.about", Message: "about page required", Expr: `defined("pages.about")`},
	})
	if err != nil {
		t.Fatalf("new linter: %v", err)
	}
	x, _, _ := newTestExchange(t, WithLinter(linter))

	env, warnings, err := x.Export(context.Background(), sampleLayoutDocument(t), SchemaLayoutContract, LayoutContractVersion)
	if err != nil {
		t.Fatalf("lint findings must not block export: %v", err)
	}
	if env == nil {
		t.Fatalf("expected an envelope")
	}
	last := warnings[len(warnings)-1]
	if last.Code != "has-about" || last.Path != "pages.about" {
		t.Fatalf("expected lint warning last, got %v", warnings)
	}
}

func TestExchangeHookFailureDoesNotBlock(t *testing.T) {
	failing := activity.HookFunc(func(context.Context, activity.Event) error {
		return errors.New("sink down")
	})
	x, _, logs := newTestExchange(t)
	x = NewExchange(WithLogger(slog.New(slog.NewTextHandler(logs, nil))), WithActivityHooks(activity.Hooks{failing}))

	if _, _, err := x.Export(context.Background(), sampleLayoutDocument(t), SchemaLayoutContract, LayoutContractVersion); err != nil {
		t.Fatalf("hook failures should be logged, not returned: %v", err)
	}
	if !strings.Contains(logs.String(), "activity hook failed") {
		t.Fatalf("expected hook failure log, got %s", logs.String())
	}
}

func TestExchangeActivityHooksCopy(t *testing.T) {
	capture := &activity.CaptureHook{}
	x := NewExchange(WithActivityHooks(activity.Hooks{nil, capture}))
	hooks := x.ActivityHooks()
	if len(hooks) != 1 {
		t.Fatalf("nil hooks should be dropped, got %d", len(hooks))
	}
	hooks[0] = nil
	if x.ActivityHooks()[0] == nil {
		t.Fatalf("returned hooks should be a copy")
	}
	if NewExchange().ActivityHooks() != nil {
		t.Fatalf("expected no hooks by default")
	}
}
