// Package usage classifies workspace tool states into usage categories.
package usage

import "toolusage/internal/domain"

// Membership answers catalog membership for one classification pass.
type Membership interface {
	IsListed(origin *domain.PluginDescriptor) bool
}

// Predicate decides whether a tool state belongs to a category.
type Predicate func(m Membership, s domain.ToolState) bool

// Bundled matches tools shipped with the base distribution.
func Bundled(_ Membership, s domain.ToolState) bool {
	return s.Origin != nil && s.Origin.Bundled
}

// CatalogListed matches tools whose plugin is installed under the plugins root
// and registered in the catalog.
func CatalogListed(m Membership, s domain.ToolState) bool {
	return m != nil && m.IsListed(s.Origin)
}

// EnabledNonDefault matches tools the user turned on.
func EnabledNonDefault(_ Membership, s domain.ToolState) bool {
	return s.Enabled && !s.EnabledByDefault
}

// DisabledDefault matches default-on tools the user turned off.
func DisabledDefault(_ Membership, s domain.ToolState) bool {
	return !s.Enabled && s.EnabledByDefault
}

// And matches when every predicate matches. It short-circuits left to right.
func And(preds ...Predicate) Predicate {
	return func(m Membership, s domain.ToolState) bool {
		for _, p := range preds {
			if !p(m, s) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(preds ...Predicate) Predicate {
	return func(m Membership, s domain.ToolState) bool {
		for _, p := range preds {
			if p(m, s) {
				return true
			}
		}
		return false
	}
}

func Not(p Predicate) Predicate {
	return func(m Membership, s domain.ToolState) bool {
		return !p(m, s)
	}
}
