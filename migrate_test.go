package contracts

import (
	"errors"
	"reflect"
	"testing"
)

func TestMigrateExpandsLegacyCTA(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"layout": {
			"headerElements": {"cta": {"label": "Sign up", "href": "/signup", "variant": "ghost", "enabled": false}},
			"navigation": [{"id": "home", "label": "Home"}, {"label": "Reports", "children": [{"label": "Monthly"}]}]
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	upgraded, version, err := Migrate(doc, SchemaLayoutContract, "")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if version != LayoutContractVersion {
		t.Fatalf("expected %s, got %s", LayoutContractVersion, version)
	}

	layout := upgraded["layout"].(map[string]any)
	cta := layout["headerElements"].(map[string]any)["cta"].(map[string]any)
	if cta["enabled"] != false {
		t.Fatalf("enabled flag should be carried over, got %v", cta["enabled"])
	}
	item := cta["items"].([]any)[0].(map[string]any)
	want := map[string]any{"id": "primary", "label": "Sign up", "href": "/signup", "variant": "ghost"}
	if !reflect.DeepEqual(item, want) {
		t.Fatalf("expected %v, got %v", want, item)
	}

	nav := layout["navigation"].([]any)
	if nav[0].(map[string]any)["id"] != "home" {
		t.Fatalf("existing ids should be kept")
	}
	second := nav[1].(map[string]any)
	if second["id"] == "" || second["id"] == nil {
		t.Fatalf("missing ids should be assigned")
	}
	if child := second["children"].([]any)[0].(map[string]any); child["id"] == nil {
		t.Fatalf("nested items should get ids")
	}

	original := doc["layout"].(map[string]any)["headerElements"].(map[string]any)["cta"].(map[string]any)
	if _, ok := original["items"]; ok {
		t.Fatalf("input must not be modified")
	}
}

func TestMigrateLeavesCurrentDocumentsAlone(t *testing.T) {
	doc := Document{"layout": map[string]any{"headerElements": map[string]any{
		"cta": map[string]any{"enabled": true, "items": []any{}},
	}}}
	upgraded, version, err := Migrate(doc, SchemaLayoutContract, "1.0.0")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if version != "1.1.0" {
		t.Fatalf("expected 1.1.0, got %s", version)
	}
	if !reflect.DeepEqual(upgraded, doc) {
		t.Fatalf("cta with items should not change")
	}

	same, version, err := Migrate(doc, SchemaLayoutContract, "1.1.0")
	if err != nil || version != "1.1.0" {
		t.Fatalf("current version should be a no-op, got %s %v", version, err)
	}
	if reflect.ValueOf(same).Pointer() != reflect.ValueOf(doc).Pointer() {
		t.Fatalf("no-op migration should return the input")
	}

	registry, version, err := Migrate(Document{}, SchemaUIRegistryContract, "")
	if err != nil || version != "1.0.0" || len(registry) != 0 {
		t.Fatalf("registry without steps should stay at 1.0.0, got %s %v", version, err)
	}
}

func TestMigrateInvalidVersion(t *testing.T) {
	if _, _, err := Migrate(Document{}, SchemaLayoutContract, "one"); !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("expected invalid version, got %v", err)
	}
}

func TestMigratorChainsSteps(t *testing.T) {
	m := NewMigrator()
	step := func(key string) func(Document) (Document, error) {
		return func(doc Document) (Document, error) {
			doc[key] = true
			return doc, nil
		}
	}
	if err := m.Register("custom", Migration{From: "1.1.0", To: "2.0.0", Apply: step("second")}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register("custom", Migration{From: "1.0.0", To: "1.1.0", Apply: step("first")}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := m.Latest("custom"); got != "2.0.0" {
		t.Fatalf("expected latest 2.0.0, got %s", got)
	}

	doc, version, err := m.Migrate(Document{}, "custom", "1.0.0")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if version != "2.0.0" || doc["first"] != true || doc["second"] != true {
		t.Fatalf("expected both steps applied, got %s %v", version, doc)
	}

	partial, version, err := m.Migrate(Document{}, "custom", "1.1.0")
	if err != nil || version != "2.0.0" || partial["first"] != nil {
		t.Fatalf("expected only the second step, got %s %v %v", version, partial, err)
	}
}

func TestMigratorRegisterValidation(t *testing.T) {
	noop := func(doc Document) (Document, error) { return doc, nil }
	m := NewMigrator()
	cases := []struct {
		name string
		step Migration
	}{
		{name: "backwards", step: Migration{From: "2.0.0", To: "1.0.0", Apply: noop}},
		{name: "same version", step: Migration{From: "1.0.0", To: "1.0.0", Apply: noop}},
		{name: "invalid version", step: Migration{From: "1", To: "2.0.0", Apply: noop}},
		{name: "no apply", step: Migration{From: "1.0.0", To: "2.0.0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := m.Register("custom", tc.step); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if err := m.Register("custom", Migration{From: "1.0.0", To: "2.0.0", Apply: noop}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register("custom", Migration{From: "1.0.0", To: "3.0.0", Apply: noop}); err == nil {
		t.Fatalf("expected duplicate start version to fail")
	}
}

func TestMigratorStepFailure(t *testing.T) {
	m := NewMigrator()
	boom := errors.New("boom")
	_ = m.Register("custom", Migration{From: "1.0.0", To: "1.1.0", Apply: func(Document) (Document, error) {
		return nil, boom
	}})
	if _, _, err := m.Migrate(Document{}, "custom", ""); !errors.Is(err, boom) {
		t.Fatalf("expected step error, got %v", err)
	}

	var nilMigrator *Migrator
	doc := Document{"a": "b"}
	got, version, err := nilMigrator.Migrate(doc, "custom", "")
	if err != nil || version != "1.0.0" || !reflect.DeepEqual(got, doc) {
		t.Fatalf("nil migrator should be a no-op, got %v %s %v", got, version, err)
	}
}
