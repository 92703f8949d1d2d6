package contracts

import (
	"encoding/json"
	"sort"
	"strings"
)

// Trace captures provenance for one dotted path across the cascade layers
// that produced the effective value.
type Trace struct {
	Path      string       `json:"path"`
	Effective any          `json:"effective,omitempty"`
	Layers    []Provenance `json:"layers"`
}

// Provenance details how a specific layer contributed to a traced path.
type Provenance struct {
	Scope Scope  `json:"scope"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// Overridden reports whether the strongest layer that holds the path is not
// the base layer.
func (t Trace) Overridden() bool {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer.Scope.Priority > ScopePriorityBase
		}
	}
	return false
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously generated via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// TraceOverride reports which layer supplies path (for example
// "regions.sidebar.behavior.collapsible") on page pageID. Layers are listed
// strongest first.
func TraceOverride(base Layout, pageID string, override LayoutOverride, path string) Trace {
	trace := Trace{Path: path}

	pageDoc, _ := ToDocument(override)
	pageValue, pageFound := lookupPath(pageDoc, path)
	baseDoc, _ := ToDocument(base)
	baseValue, baseFound := lookupPath(baseDoc, path)

	trace.Layers = []Provenance{
		{Scope: PageScope(pageID), Path: path, Value: pageValue, Found: pageFound},
		{Scope: BaseScope(), Path: path, Value: baseValue, Found: baseFound},
	}

	effectiveDoc, _ := ToDocument(EffectiveDocument(base, override))
	trace.Effective, _ = lookupPath(effectiveDoc, path)
	return trace
}

// OverriddenPaths lists the leaf paths an override sets, sorted.
func OverriddenPaths(override LayoutOverride) []string {
	doc, err := ToDocument(override)
	if err != nil {
		return nil
	}
	descriptors := deriveFieldDescriptors(doc, "")
	paths := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		paths = append(paths, descriptor.Path)
	}
	sort.Strings(paths)
	return paths
}

func lookupPath(doc map[string]any, path string) (any, bool) {
	if doc == nil || path == "" {
		return nil, false
	}
	var current any = doc
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
