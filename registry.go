package contracts

// Registry is the typed view of a "ui-registry-contract" document.
type Registry struct {
	Components map[string]Component `json:"components"`
}

// Component is one registry entry.
type Component struct {
	Name        string         `json:"name"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	Props       map[string]any `json:"props,omitempty"`
	Slots       map[string]any `json:"slots,omitempty"`
	Variants    []string       `json:"variants,omitempty"`
	Examples    []any          `json:"examples,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

// Normalized returns a copy of r in which every component's Name equals its
// key in the mapping. Mismatches are corrected silently.
func (r Registry) Normalized() Registry {
	if r.Components == nil {
		return r
	}
	components := make(map[string]Component, len(r.Components))
	for key, component := range r.Components {
		if component.Name != key {
			component.Name = key
		}
		components[key] = component
	}
	return Registry{Components: components}
}

// Normalize forces components.<key>.name to equal <key> in a registry
// document. Entries that already agree are kept as-is, mismatching entries are
// replaced by a shallow copy with the corrected name, and entries that are not
// objects pass through untouched. The input is never modified and the
// operation is idempotent.
func Normalize(doc Document) Document {
	components, ok := doc["components"].(map[string]any)
	if !ok {
		return doc
	}

	var fixed map[string]any
	for key, raw := range components {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := entry["name"].(string); name == key {
			continue
		}
		if fixed == nil {
			fixed = make(map[string]any, len(components))
			for k, v := range components {
				fixed[k] = v
			}
		}
		corrected := make(map[string]any, len(entry)+1)
		for k, v := range entry {
			corrected[k] = v
		}
		corrected["name"] = key
		fixed[key] = corrected
	}
	if fixed == nil {
		return doc
	}

	out := make(Document, len(doc))
	for key, value := range doc {
		out[key] = value
	}
	out["components"] = fixed
	return out
}
