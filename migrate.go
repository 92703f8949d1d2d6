package contracts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/goliatone/go-contracts/internal/hydrate"
	"github.com/goliatone/go-contracts/layering"
)

// Current document versions.
const (
	LayoutContractVersion   = "1.1.0"
	RegistryContractVersion = "1.0.0"
)

// initialVersion is assumed for documents that carry no version.
const initialVersion = "1.0.0"

// Migration upgrades a document of one schema from From to To. Apply receives
// a private copy of the document and returns the upgraded form.
type Migration struct {
	From  string
	To    string
	Apply func(Document) (Document, error)
}

// Migrator holds ordered migration steps per schema. The zero value has no
// steps; use DefaultMigrator for the built-in set.
type Migrator struct {
	mu    sync.RWMutex
	steps map[string][]Migration
}

// NewMigrator returns an empty Migrator.
func NewMigrator() *Migrator {
	return &Migrator{steps: map[string][]Migration{}}
}

// DefaultMigrator returns a Migrator loaded with the built-in steps.
func DefaultMigrator() *Migrator {
	m := NewMigrator()
	_ = m.Register(SchemaLayoutContract, Migration{
		From:  "1.0.0",
		To:    "1.1.0",
		Apply: migrateLayout110,
	})
	return m
}

// Register adds a step for schema. Steps must move forward and no two steps of
// one schema may start at the same version.
func (m *Migrator) Register(schema string, step Migration) error {
	if m == nil {
		return fmt.Errorf("contracts: migrator is nil")
	}
	if !ValidVersion(step.From) || !ValidVersion(step.To) {
		return fmt.Errorf("%w: migration %q -> %q", ErrInvalidVersion, step.From, step.To)
	}
	if compareVersions(step.From, step.To) >= 0 {
		return fmt.Errorf("contracts: migration %s -> %s does not move forward", step.From, step.To)
	}
	if step.Apply == nil {
		return fmt.Errorf("contracts: migration %s -> %s has no apply function", step.From, step.To)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.steps == nil {
		m.steps = map[string][]Migration{}
	}
	for _, existing := range m.steps[schema] {
		if existing.From == step.From {
			return fmt.Errorf("contracts: %s already has a migration from %s", schema, step.From)
		}
	}
	steps := append(m.steps[schema], step)
	sort.SliceStable(steps, func(i, j int) bool {
		return compareVersions(steps[i].From, steps[j].From) < 0
	})
	m.steps[schema] = steps
	return nil
}

// Latest returns the newest version reachable for schema, or "" when the
// schema has no steps.
func (m *Migrator) Latest(schema string) string {
	if m == nil {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := ""
	for _, step := range m.steps[schema] {
		if latest == "" || compareVersions(step.To, latest) > 0 {
			latest = step.To
		}
	}
	return latest
}

// Migrate upgrades doc from version from, applying steps in order until none
// starts at the reached version. An empty from is read as "1.0.0". The input
// is not modified; the result and the reached version are returned.
func (m *Migrator) Migrate(doc Document, schema, from string) (Document, string, error) {
	if from == "" {
		from = initialVersion
	}
	if !ValidVersion(from) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidVersion, from)
	}
	if m == nil {
		return doc, from, nil
	}

	m.mu.RLock()
	steps := append([]Migration(nil), m.steps[schema]...)
	m.mu.RUnlock()

	current := doc
	copied := false
	version := from
	for _, step := range steps {
		if compareVersions(step.From, version) != 0 {
			continue
		}
		if !copied {
			current = layering.Clone(doc)
			copied = true
		}
		next, err := step.Apply(current)
		if err != nil {
			return nil, "", fmt.Errorf("contracts: migrate %s %s -> %s: %w", schema, step.From, step.To, err)
		}
		if next != nil {
			current = next
		}
		version = step.To
	}
	return current, version, nil
}

// PreHook adapts the migrator to a hydrate pre-hook. The hook advances the
// decoding context to the reached version.
func (m *Migrator) PreHook() hydrate.PreHook {
	return func(ctx *hydrate.Context, payload map[string]any) (map[string]any, error) {
		upgraded, version, err := m.Migrate(payload, ctx.Schema, ctx.Version)
		if err != nil {
			return nil, err
		}
		ctx.Version = version
		return upgraded, nil
	}
}

// Migrate upgrades doc with the built-in steps.
func Migrate(doc Document, schema, from string) (Document, string, error) {
	return DefaultMigrator().Migrate(doc, schema, from)
}

func compareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

// migrateLayout110 expands the legacy single call-to-action header element and
// assigns ids to navigation items.
func migrateLayout110(doc Document) (Document, error) {
	layout, ok := doc["layout"].(map[string]any)
	if !ok {
		return doc, nil
	}

	if elements, ok := layout["headerElements"].(map[string]any); ok {
		if cta, ok := elements[HeaderCTA].(map[string]any); ok {
			elements[HeaderCTA] = expandLegacyCTA(cta)
		}
	}

	if navigation, ok := layout["navigation"].([]any); ok {
		assignNavigationIDs(navigation)
	}
	return doc, nil
}

func expandLegacyCTA(cta map[string]any) map[string]any {
	if _, hasItems := cta["items"]; hasItems {
		return cta
	}
	label, hasLabel := cta["label"]
	href, hasHref := cta["href"]
	if !hasLabel && !hasHref {
		return cta
	}

	item := map[string]any{
		"id":      "primary",
		"label":   label,
		"href":    href,
		"variant": "primary",
	}
	if variant, ok := cta["variant"].(string); ok && strings.TrimSpace(variant) != "" {
		item["variant"] = variant
	}

	expanded := map[string]any{"enabled": true, "items": []any{item}}
	if enabled, ok := cta["enabled"]; ok {
		expanded["enabled"] = enabled
	}
	return expanded
}

func assignNavigationIDs(items []any) {
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if id, _ := item["id"].(string); strings.TrimSpace(id) == "" {
			item["id"] = uuid.NewString()
		}
		if children, ok := item["children"].([]any); ok {
			assignNavigationIDs(children)
		}
	}
}
