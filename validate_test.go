package contracts

import (
	"reflect"
	"testing"
)

func codesAndPaths(warnings []Warning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.Code + "@" + w.Path
	}
	return out
}

func TestValidateStructureLayout(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"tokens": {"spacing": {"md": {"value": 16, "unit": "px"}}},
		"layout": {
			"regions": {
				"sidebar": {"dimensions": {"width": "$tokens.sizes.sidebar"}, "padding": {"x": "$tokens.spacing.md"}},
				"header": {},
				"main": "wide"
			}
		},
		"pages": {
			"reports": {"label": "Reports", "route": "reports"},
			"empty": {"overrides": {"regions": {"header": {"padding": {"y": "$tokens.spacing.xl"}}}}}
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got := codesAndPaths(ValidateStructure(doc))
	want := []string{
		"missing-region@layout.regions.footer",
		"region-not-object@layout.regions.main",
		"unresolved-token@layout.regions.sidebar.dimensions.width",
		"page-missing-label@pages.empty",
		"page-missing-route@pages.empty",
		"unresolved-token@pages.empty.overrides.regions.header.padding.y",
		"page-route-not-absolute@pages.reports.route",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected warnings:\n got %v\nwant %v", got, want)
	}
}

func TestValidateStructureMissingRegions(t *testing.T) {
	got := ValidateStructure(Document{"layout": map[string]any{}})
	if len(got) != 1 || got[0].Code != WarnMissingRegions {
		t.Fatalf("expected missing-regions, got %v", got)
	}
}

func TestValidateStructureRegistry(t *testing.T) {
	doc := Document{
		"components": map[string]any{
			"Button": map[string]any{"name": "Button", "category": "action"},
			"Badge":  map[string]any{"name": "Badge"},
		},
	}
	got := ValidateStructure(doc)
	if len(got) != 1 || got[0].Code != WarnComponentMissingCategory || got[0].Path != "components.Badge" {
		t.Fatalf("unexpected warnings %v", got)
	}

	tagged := ValidateStructure(Document{MetaKeySchema: SchemaUIRegistryContract})
	if len(tagged) != 1 || tagged[0].Code != WarnMissingComponents {
		t.Fatalf("expected missing-components, got %v", tagged)
	}
}

func TestValidateAsForcesSchema(t *testing.T) {
	doc := Document{"components": map[string]any{}}
	got := ValidateAs(doc, SchemaLayoutContract)
	if len(got) != 1 || got[0].Code != WarnMissingRegions {
		t.Fatalf("expected layout checks, got %v", got)
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{Code: "missing-region", Path: "layout.regions.footer", Message: "region \"footer\" is not defined"}
	if got := w.String(); got != `missing-region (layout.regions.footer): region "footer" is not defined` {
		t.Fatalf("unexpected string %q", got)
	}
	if got := (Warning{Code: "x", Message: "y"}).String(); got != "x: y" {
		t.Fatalf("unexpected string %q", got)
	}
}
