package contracts

import (
	"github.com/goliatone/go-contracts/layering"
)

// Region names used by the layout contract.
const (
	RegionSidebar = "sidebar"
	RegionHeader  = "header"
	RegionMain    = "main"
	RegionFooter  = "footer"
)

// RegionNames lists the regions in document order.
var RegionNames = []string{RegionSidebar, RegionHeader, RegionMain, RegionFooter}

// Header element names.
const (
	HeaderSearch = "search"
	HeaderCTA    = "cta"
	HeaderIcons  = "icons"
)

// LayoutContract is the typed view of a "layout-contract" document.
type LayoutContract struct {
	Tokens TokenTable                `json:"tokens,omitempty"`
	Styles map[string]map[string]any `json:"textStyles,omitempty"`
	Layout Layout                    `json:"layout"`
	Pages  map[string]PageOverride   `json:"pages,omitempty"`
}

// Layout is the base structural document.
type Layout struct {
	Regions        map[string]Region        `json:"regions,omitempty"`
	Breadcrumbs    map[string]any           `json:"breadcrumbs,omitempty"`
	Logo           map[string]any           `json:"logo,omitempty"`
	HeaderElements map[string]HeaderElement `json:"headerElements,omitempty"`
	TableSeparator map[string]any           `json:"tableSeparator,omitempty"`
	Navigation     []NavItem                `json:"navigation,omitempty"`
}

// Region describes one layout region.
type Region struct {
	Enabled    bool           `json:"enabled"`
	Position   string         `json:"position,omitempty"`
	Dimensions map[string]any `json:"dimensions,omitempty"`
	Padding    map[string]any `json:"padding,omitempty"`
	Containers []string       `json:"containers,omitempty"`
	Behavior   Behavior       `json:"behavior"`
}

// Behavior holds the three independent region switches.
type Behavior struct {
	Fixed       bool `json:"fixed"`
	Collapsible bool `json:"collapsible"`
	Scrollable  bool `json:"scrollable"`
}

// HeaderElement is an open property bag (enabled, placeholder, items, ...).
type HeaderElement map[string]any

// NavItem is an entry of the navigation tree.
type NavItem struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Route    string    `json:"route,omitempty"`
	Icon     string    `json:"icon,omitempty"`
	Children []NavItem `json:"children,omitempty"`
}

// PageOverride is a named page with its sparse override set.
type PageOverride struct {
	Label       string         `json:"label"`
	Route       string         `json:"route"`
	Description string         `json:"description,omitempty"`
	Overrides   LayoutOverride `json:"overrides"`
}

// LayoutOverride mirrors a sparse subset of Layout. Only present entries take
// effect; everything else inherits from the base layout.
type LayoutOverride struct {
	Regions        map[string]RegionOverride `json:"regions,omitempty"`
	HeaderElements map[string]HeaderElement  `json:"headerElements,omitempty"`
	Breadcrumbs    map[string]any            `json:"breadcrumbs,omitempty"`
	Logo           map[string]any            `json:"logo,omitempty"`
	TableSeparator map[string]any            `json:"tableSeparator,omitempty"`
}

// IsEmpty reports whether the override changes nothing.
func (o LayoutOverride) IsEmpty() bool {
	return len(o.Regions) == 0 && len(o.HeaderElements) == 0 &&
		len(o.Breadcrumbs) == 0 && len(o.Logo) == 0 && len(o.TableSeparator) == 0
}

// RegionOverride is the sparse form of Region. Scalar fields carry an explicit
// presence bit; dimensions and padding merge key by key.
type RegionOverride struct {
	Enabled    layering.Optional[bool]     `json:"enabled,omitzero"`
	Position   layering.Optional[string]   `json:"position,omitzero"`
	Dimensions map[string]any              `json:"dimensions,omitempty"`
	Padding    map[string]any              `json:"padding,omitempty"`
	Containers layering.Optional[[]string] `json:"containers,omitzero"`
	Behavior   BehaviorOverride            `json:"behavior,omitzero"`
}

// BehaviorOverride is the sparse form of Behavior.
type BehaviorOverride struct {
	Fixed       layering.Optional[bool] `json:"fixed,omitzero"`
	Collapsible layering.Optional[bool] `json:"collapsible,omitzero"`
	Scrollable  layering.Optional[bool] `json:"scrollable,omitzero"`
}

// IsZero reports whether no behavior switch is overridden.
func (b BehaviorOverride) IsZero() bool {
	return !b.Fixed.IsSet() && !b.Collapsible.IsSet() && !b.Scrollable.IsSet()
}
