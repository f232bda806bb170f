package usage

import (
	"fmt"
	"strings"

	"toolusage/internal/domain"
)

// Shape selects how a tool state is rendered as a usage id.
type Shape int

const (
	// ShapePlain renders kind.toolId.
	ShapePlain Shape = iota
	// ShapeListed renders kind.pluginId.toolId so equal tool ids from different plugins stay apart.
	ShapeListed
)

func (s Shape) String() string {
	switch s {
	case ShapePlain:
		return "plain"
	case ShapeListed:
		return "listed"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Identifier renders state in this shape.
func (s Shape) Identifier(state domain.ToolState) string {
	if s == ShapeListed {
		return state.Kind() + "." + state.PluginID() + "." + state.ToolID
	}
	return state.Kind() + "." + state.ToolID
}

// Category is a named predicate with its identifier shape.
type Category struct {
	Name    string
	GroupID string
	Match   Predicate
	Shape   Shape
}

// Usages filters states by the category predicate and builds its usage set.
func (c Category) Usages(m Membership, states []domain.ToolState) domain.UsageSet {
	matched := make([]domain.ToolState, 0, len(states))
	for _, state := range states {
		if c.Match(m, state) {
			matched = append(matched, state)
		}
	}
	return BuildDescriptors(matched, c.Shape)
}

const (
	CategoryAllBundled      = "all-bundled"
	CategoryAllListed       = "all-listed"
	CategoryEnabledBundled  = "enabled-bundled"
	CategoryEnabledListed   = "enabled-listed"
	CategoryDisabledBundled = "disabled-bundled"
	CategoryDisabledListed  = "disabled-listed"
)

var registry = []Category{
	{Name: CategoryAllBundled, GroupID: "statistics.all.bundled.tools", Match: Bundled, Shape: ShapePlain},
	{Name: CategoryAllListed, GroupID: "statistics.all.listed.tools", Match: CatalogListed, Shape: ShapeListed},
	{Name: CategoryEnabledBundled, GroupID: "statistics.enabled.bundled.tools", Match: And(EnabledNonDefault, Bundled), Shape: ShapePlain},
	{Name: CategoryEnabledListed, GroupID: "statistics.enabled.listed.tools", Match: And(EnabledNonDefault, CatalogListed), Shape: ShapeListed},
	{Name: CategoryDisabledBundled, GroupID: "statistics.disabled.bundled.tools", Match: And(DisabledDefault, Bundled), Shape: ShapePlain},
	{Name: CategoryDisabledListed, GroupID: "statistics.disabled.listed.tools", Match: And(DisabledDefault, CatalogListed), Shape: ShapeListed},
}

// Categories returns the registry in reporting order.
func Categories() []Category {
	out := make([]Category, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a category by name or group id.
func Lookup(name string) (Category, error) {
	key := strings.TrimSpace(name)
	for _, category := range registry {
		if category.Name == key || category.GroupID == key {
			return category, nil
		}
	}
	return Category{}, domain.E(domain.CodeNotFound, "usage.lookup", fmt.Sprintf("unknown category %q", name), domain.ErrUnknownCategory)
}
