package contracts

import (
	"github.com/goliatone/go-contracts/layering"
)

// EffectiveRegion merges override on top of base for a single region.
// Top-level fields present in override replace the base field wholesale;
// dimensions, padding and behavior merge key by key so sibling keys absent
// from the override keep their base values. Neither input is modified.
func EffectiveRegion(base Region, override RegionOverride) Region {
	out := Region{
		Enabled:    override.Enabled.Or(base.Enabled),
		Position:   override.Position.Or(base.Position),
		Dimensions: mergeShallow(base.Dimensions, override.Dimensions),
		Padding:    mergeShallow(base.Padding, override.Padding),
		Behavior: Behavior{
			Fixed:       override.Behavior.Fixed.Or(base.Behavior.Fixed),
			Collapsible: override.Behavior.Collapsible.Or(base.Behavior.Collapsible),
			Scrollable:  override.Behavior.Scrollable.Or(base.Behavior.Scrollable),
		},
	}
	if containers, ok := override.Containers.Get(); ok {
		out.Containers = layering.Clone(containers)
	} else {
		out.Containers = layering.Clone(base.Containers)
	}
	return out
}

// EffectiveDocument applies override to every region, header element and flat
// substructure of base. Anything the override does not mention passes through
// unchanged, so an empty override yields a value equal to base. The merge
// always targets base, which makes re-applying the same override a no-op.
func EffectiveDocument(base Layout, override LayoutOverride) Layout {
	out := layering.Clone(base)
	if override.IsEmpty() {
		return out
	}

	if len(override.Regions) > 0 {
		if out.Regions == nil {
			out.Regions = make(map[string]Region, len(override.Regions))
		}
		for name, regionOverride := range override.Regions {
			out.Regions[name] = EffectiveRegion(base.Regions[name], regionOverride)
		}
	}

	if len(override.HeaderElements) > 0 {
		if out.HeaderElements == nil {
			out.HeaderElements = make(map[string]HeaderElement, len(override.HeaderElements))
		}
		for name, element := range override.HeaderElements {
			if len(element) == 0 {
				continue
			}
			out.HeaderElements[name] = HeaderElement(mergeShallow(base.HeaderElements[name], element))
		}
	}

	out.Breadcrumbs = mergeShallow(base.Breadcrumbs, override.Breadcrumbs)
	out.Logo = mergeShallow(base.Logo, override.Logo)
	out.TableSeparator = mergeShallow(base.TableSeparator, override.TableSeparator)
	return out
}

// LookupEffectiveRegion resolves a single named region. A region with neither
// a base entry nor an override entry is reported as absent rather than being
// synthesized.
func LookupEffectiveRegion(base Layout, override LayoutOverride, name string) (Region, bool) {
	baseRegion, inBase := base.Regions[name]
	regionOverride, inOverride := override.Regions[name]
	if !inBase && !inOverride {
		return Region{}, false
	}
	return EffectiveRegion(baseRegion, regionOverride), true
}

// EffectivePage resolves the layout for pageID. Unknown pages resolve to a
// copy of the base layout.
func (c LayoutContract) EffectivePage(pageID string) Layout {
	page, ok := c.Pages[pageID]
	if !ok {
		return layering.Clone(c.Layout)
	}
	return EffectiveDocument(c.Layout, page.Overrides)
}

// ResolvedRegion is a region whose token references were replaced by values.
type ResolvedRegion struct {
	Region
	ResolvedDimensions map[string]any `json:"resolvedDimensions,omitempty"`
	ResolvedPadding    map[string]any `json:"resolvedPadding,omitempty"`
}

// ResolveRegion resolves the dimension and padding references of region
// against table. Unresolved entries are omitted.
func ResolveRegion(region Region, table TokenTable) ResolvedRegion {
	return ResolvedRegion{
		Region:             layering.Clone(region),
		ResolvedDimensions: resolveValues(region.Dimensions, table),
		ResolvedPadding:    resolveValues(region.Padding, table),
	}
}

// resolveValues resolves token references in values. Literals pass through;
// unresolved references are dropped.
func resolveValues(values map[string]any, table TokenTable) map[string]any {
	if len(values) == 0 {
		return nil
	}
	resolved := ResolveComposite(values, table)
	if len(resolved) == 0 {
		return nil
	}
	return resolved
}

// mergeShallow copies base and replaces every key present in override.
func mergeShallow[M ~map[string]any](base, override M) M {
	if len(override) == 0 {
		return layering.Clone(base)
	}
	out := make(M, len(base)+len(override))
	for key, value := range base {
		out[key] = layering.Clone(value)
	}
	for key, value := range override {
		out[key] = layering.Clone(value)
	}
	return out
}
