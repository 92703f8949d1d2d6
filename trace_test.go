package contracts

import (
	"reflect"
	"testing"

	"github.com/goliatone/go-contracts/layering"
)

func TestTraceOverride(t *testing.T) {
	base := baseLayout()
	override := LayoutOverride{
		Regions: map[string]RegionOverride{
			RegionSidebar: {Behavior: BehaviorOverride{Collapsible: layering.Set(true)}},
		},
	}

	trace := TraceOverride(base, "dashboard", override, "regions.sidebar.behavior.collapsible")
	if trace.Effective != true {
		t.Fatalf("expected effective true, got %v", trace.Effective)
	}
	if len(trace.Layers) != 2 {
		t.Fatalf("expected two layers, got %d", len(trace.Layers))
	}
	page, baseLayer := trace.Layers[0], trace.Layers[1]
	if page.Scope.Name != "page:dashboard" || !page.Found || page.Value != true {
		t.Fatalf("unexpected page layer %+v", page)
	}
	if page.Scope.Metadata["page_id"] != "dashboard" {
		t.Fatalf("page scope should carry the page id, got %v", page.Scope.Metadata)
	}
	if baseLayer.Scope.Name != "base" || !baseLayer.Found || baseLayer.Value != false {
		t.Fatalf("unexpected base layer %+v", baseLayer)
	}
	if !trace.Overridden() {
		t.Fatalf("expected the page layer to win")
	}

	inherited := TraceOverride(base, "dashboard", override, "regions.sidebar.behavior.fixed")
	if inherited.Overridden() || inherited.Effective != true || inherited.Layers[0].Found {
		t.Fatalf("expected inherited value, got %+v", inherited)
	}

	missing := TraceOverride(base, "dashboard", override, "regions.sidebar.behavior.sticky")
	if missing.Overridden() || missing.Effective != nil {
		t.Fatalf("expected missing path, got %+v", missing)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := TraceOverride(baseLayout(), "home", LayoutOverride{}, "regions.header.position")
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Path != trace.Path || decoded.Effective != "top" || len(decoded.Layers) != 2 {
		t.Fatalf("unexpected decoded trace %+v", decoded)
	}
	if _, err := TraceFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
}

func TestOverriddenPaths(t *testing.T) {
	override := LayoutOverride{
		Regions: map[string]RegionOverride{
			RegionSidebar: {
				Enabled:    layering.Set(false),
				Dimensions: map[string]any{"width": "$tokens.sizes.sm"},
			},
			RegionHeader: {Behavior: BehaviorOverride{Fixed: layering.Set(false)}},
		},
		HeaderElements: map[string]HeaderElement{HeaderSearch: {"enabled": false}},
	}
	want := []string{
		"headerElements.search.enabled",
		"regions.header.behavior.fixed",
		"regions.sidebar.dimensions.width",
		"regions.sidebar.enabled",
	}
	if got := OverriddenPaths(override); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := OverriddenPaths(LayoutOverride{}); len(got) != 0 {
		t.Fatalf("empty override should have no paths, got %v", got)
	}
}

func TestDescribeFields(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"b": {"c": true, "d": {}}, "a": [1, 2], "e": "x"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := DescribeFields(doc)
	want := []FieldDescriptor{
		{Path: "a", Type: "[]json.Number"},
		{Path: "b.c", Type: "bool"},
		{Path: "e", Type: "string"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := DescribeFields(Document{}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
