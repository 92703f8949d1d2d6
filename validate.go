package contracts

import (
	"fmt"
	"sort"
	"strings"
)

// Warning is a non-fatal structural finding. Warnings are surfaced to the
// caller but never block a save.
type Warning struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s (%s): %s", w.Code, w.Path, w.Message)
}

// Warning codes produced by ValidateStructure.
const (
	WarnMissingRegions           = "missing-regions"
	WarnMissingRegion            = "missing-region"
	WarnRegionNotObject          = "region-not-object"
	WarnPageMissingRoute         = "page-missing-route"
	WarnPageRouteNotAbsolute     = "page-route-not-absolute"
	WarnPageMissingLabel         = "page-missing-label"
	WarnUnresolvedToken          = "unresolved-token"
	WarnMissingComponents        = "missing-components"
	WarnComponentMissingCategory = "component-missing-category"
)

// ValidateStructure runs advisory checks over a layout or registry document.
// The document is treated as duck-typed data: a registry is recognised by its
// "schema" tag or, without one, by a "components" member and no "layout".
// Everything else is checked as a layout. Results are sorted by path then code.
func ValidateStructure(doc Document) []Warning {
	schema, _ := doc[MetaKeySchema].(string)
	if schema == "" {
		_, hasComponents := doc["components"]
		if hasComponents && doc["layout"] == nil {
			schema = SchemaUIRegistryContract
		}
	}
	return ValidateAs(doc, schema)
}

// ValidateAs runs the checks for schema regardless of the document's shape.
// Unknown schemas get the layout checks.
func ValidateAs(doc Document, schema string) []Warning {
	var warnings []Warning
	if schema == SchemaUIRegistryContract {
		warnings = validateRegistry(doc)
	} else {
		warnings = validateLayout(doc)
	}
	sortWarnings(warnings)
	return warnings
}

func sortWarnings(warnings []Warning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Path == warnings[j].Path {
			return warnings[i].Code < warnings[j].Code
		}
		return warnings[i].Path < warnings[j].Path
	})
}

func validateLayout(doc Document) []Warning {
	var warnings []Warning
	tokens := TokensFromDocument(doc)

	layout, _ := doc["layout"].(map[string]any)
	regions, ok := layout["regions"].(map[string]any)
	if !ok {
		warnings = append(warnings, Warning{
			Code:    WarnMissingRegions,
			Path:    "layout.regions",
			Message: "layout has no regions",
		})
	} else {
		for _, name := range RegionNames {
			path := "layout.regions." + name
			raw, present := regions[name]
			if !present {
				warnings = append(warnings, Warning{
					Code:    WarnMissingRegion,
					Path:    path,
					Message: fmt.Sprintf("region %q is not defined", name),
				})
				continue
			}
			region, ok := raw.(map[string]any)
			if !ok {
				warnings = append(warnings, Warning{
					Code:    WarnRegionNotObject,
					Path:    path,
					Message: fmt.Sprintf("region %q is not an object", name),
				})
				continue
			}
			warnings = append(warnings, unresolvedRefs(region["dimensions"], path+".dimensions", tokens)...)
			warnings = append(warnings, unresolvedRefs(region["padding"], path+".padding", tokens)...)
		}
	}

	pages, _ := doc["pages"].(map[string]any)
	for id, raw := range pages {
		path := "pages." + id
		page, _ := raw.(map[string]any)
		route, _ := page["route"].(string)
		switch {
		case strings.TrimSpace(route) == "":
			warnings = append(warnings, Warning{
				Code:    WarnPageMissingRoute,
				Path:    path,
				Message: fmt.Sprintf("page %q has no route", id),
			})
		case !strings.HasPrefix(route, "/"):
			warnings = append(warnings, Warning{
				Code:    WarnPageRouteNotAbsolute,
				Path:    path + ".route",
				Message: fmt.Sprintf("page %q route %q should start with /", id, route),
			})
		}
		if label, _ := page["label"].(string); strings.TrimSpace(label) == "" {
			warnings = append(warnings, Warning{
				Code:    WarnPageMissingLabel,
				Path:    path,
				Message: fmt.Sprintf("page %q has no label", id),
			})
		}
		overrides, _ := page["overrides"].(map[string]any)
		overrideRegions, _ := overrides["regions"].(map[string]any)
		for name, rawRegion := range overrideRegions {
			region, _ := rawRegion.(map[string]any)
			regionPath := path + ".overrides.regions." + name
			warnings = append(warnings, unresolvedRefs(region["dimensions"], regionPath+".dimensions", tokens)...)
			warnings = append(warnings, unresolvedRefs(region["padding"], regionPath+".padding", tokens)...)
		}
	}
	return warnings
}

func unresolvedRefs(raw any, path string, tokens TokenTable) []Warning {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	var warnings []Warning
	for key, value := range entries {
		ref, ok := value.(string)
		if !ok || !strings.HasPrefix(ref, TokenPrefix) {
			continue
		}
		if _, found := tokens.Lookup(ref); found {
			continue
		}
		warnings = append(warnings, Warning{
			Code:    WarnUnresolvedToken,
			Path:    path + "." + key,
			Message: fmt.Sprintf("token reference %q does not resolve", ref),
		})
	}
	return warnings
}

func validateRegistry(doc Document) []Warning {
	components, ok := doc["components"].(map[string]any)
	if !ok {
		return []Warning{{
			Code:    WarnMissingComponents,
			Path:    "components",
			Message: "registry has no components",
		}}
	}
	var warnings []Warning
	for name, raw := range components {
		component, _ := raw.(map[string]any)
		if category, _ := component["category"].(string); strings.TrimSpace(category) == "" {
			warnings = append(warnings, Warning{
				Code:    WarnComponentMissingCategory,
				Path:    "components." + name,
				Message: fmt.Sprintf("component %q has no category", name),
			})
		}
	}
	return warnings
}
