package domain

import "context"

// PluginDescriptor identifies the plugin a tool was contributed by.
type PluginDescriptor struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path"`
	Bundled bool   `json:"bundled"`
}

// ToolState is one configured tool instance in a workspace profile.
// A nil Origin means the tool's provenance is unknown.
type ToolState struct {
	ToolID           string            `json:"toolId"`
	Language         string            `json:"language,omitempty"`
	Origin           *PluginDescriptor `json:"origin,omitempty"`
	Enabled          bool              `json:"enabled"`
	EnabledByDefault bool              `json:"enabledByDefault"`
}

// Kind returns the language used as the tool kind in usage identifiers.
func (s ToolState) Kind() string {
	if s.Language == "" {
		return UnknownToolKind
	}
	return s.Language
}

// PluginID returns the origin plugin id, or empty when the origin is unknown.
func (s ToolState) PluginID() string {
	if s.Origin == nil {
		return ""
	}
	return s.Origin.ID
}

// ToolStateSource lists the current tool states for a workspace.
type ToolStateSource interface {
	ListToolStates(ctx context.Context, workspace string) ([]ToolState, error)
}
