package contracts

// Recommended priorities for the cascade layers. Higher numbers win.
const (
	ScopePriorityBase = 100
	ScopePriorityPage = 200
)

// Scope names one layer of the override cascade (the base layout or a page).
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches metadata to the scope. The map is copied so the
// resulting Scope stays immutable even if the caller mutates their reference.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		s.Metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope with the supplied configuration.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

// BaseScope is the weakest cascade layer.
func BaseScope() Scope {
	return NewScope("base", ScopePriorityBase, WithScopeLabel("Base Layout"))
}

// PageScope is the layer holding the overrides of pageID.
func PageScope(pageID string) Scope {
	return NewScope("page:"+pageID, ScopePriorityPage,
		WithScopeLabel("Page Override"),
		WithScopeMetadata(map[string]any{"page_id": pageID}),
	)
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
