package usage

import "toolusage/internal/domain"

// BuildDescriptors renders states in shape. Equal ids collapse into one descriptor.
func BuildDescriptors(states []domain.ToolState, shape Shape) domain.UsageSet {
	set := make(domain.UsageSet, len(states))
	for _, state := range states {
		set.Add(shape.Identifier(state))
	}
	return set
}
