// Package workspace reads the tool states configured in a workspace profile.
package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"toolusage/internal/domain"
	"toolusage/internal/infra/envutil"
	"toolusage/internal/infra/telemetry"
)

type rawProfile struct {
	Plugins []rawPlugin `mapstructure:"plugins" validate:"dive"`
	Tools   []rawTool   `mapstructure:"tools" validate:"dive"`
}

type rawPlugin struct {
	ID      string `mapstructure:"id" validate:"required"`
	Path    string `mapstructure:"path" validate:"required"`
	Version string `mapstructure:"version"`
	Bundled bool   `mapstructure:"bundled"`
}

type rawTool struct {
	ID               string `mapstructure:"id" validate:"required"`
	Language         string `mapstructure:"language"`
	Plugin           string `mapstructure:"plugin"`
	Enabled          bool   `mapstructure:"enabled"`
	EnabledByDefault bool   `mapstructure:"enabledByDefault"`
}

type ProfileOptions struct {
	// ProfilePath is resolved against the workspace when relative.
	// Defaults to .toolusage/profile.yaml.
	ProfilePath string
	// PluginsRoot is resolved against the workspace when relative.
	// Defaults to .toolusage/plugins.
	PluginsRoot string
	Logger      *zap.Logger
}

// ProfileSource implements domain.ToolStateSource over a YAML profile file.
type ProfileSource struct {
	profilePath string
	pluginsRoot string
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewProfileSource(opts ProfileOptions) *ProfileSource {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	profilePath := strings.TrimSpace(opts.ProfilePath)
	if profilePath == "" {
		profilePath = filepath.Join(domain.DefaultConfigDirName, domain.DefaultProfileFileName)
	}
	pluginsRoot := strings.TrimSpace(opts.PluginsRoot)
	if pluginsRoot == "" {
		pluginsRoot = filepath.Join(domain.DefaultConfigDirName, domain.DefaultPluginsDirName)
	}
	return &ProfileSource{
		profilePath: profilePath,
		pluginsRoot: pluginsRoot,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.Named("workspace"),
	}
}

// ProfilePath returns the profile file used for workspace.
func (s *ProfileSource) ProfilePath(workspace string) string {
	return resolve(workspace, s.profilePath)
}

// PluginsRoot returns the user plugin directory for workspace.
func (s *ProfileSource) PluginsRoot(workspace string) string {
	return resolve(workspace, s.pluginsRoot)
}

// ListToolStates returns the tools in profile order. A workspace without a profile has no tools.
func (s *ProfileSource) ListToolStates(ctx context.Context, workspace string) ([]domain.ToolState, error) {
	if strings.TrimSpace(workspace) == "" {
		return nil, domain.E(domain.CodeInvalidArgument, "workspace.list", "workspace is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.ProfilePath(workspace)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no workspace profile", telemetry.WorkspaceField(workspace), zap.String("path", path))
		return []domain.ToolState{}, nil
	}
	if err != nil {
		return nil, domain.E(domain.CodeUnavailable, "workspace.list", fmt.Sprintf("read %s", path), err)
	}

	profile, err := s.decode(path, data)
	if err != nil {
		return nil, err
	}
	return s.toolStates(workspace, profile), nil
}

func (s *ProfileSource) decode(path string, data []byte) (rawProfile, error) {
	expanded, missing, err := envutil.ExpandYAML(data)
	if err != nil {
		return rawProfile{}, invalidProfile(path, err)
	}
	if len(missing) > 0 {
		s.logger.Warn("missing environment variables in profile", zap.String("path", path), zap.Strings("missing", missing))
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return rawProfile{}, invalidProfile(path, err)
	}
	var profile rawProfile
	if err := v.Unmarshal(&profile); err != nil {
		return rawProfile{}, invalidProfile(path, err)
	}
	if err := s.validate.Struct(profile); err != nil {
		return rawProfile{}, invalidProfile(path, err)
	}

	seen := make(map[string]struct{}, len(profile.Plugins))
	for _, plugin := range profile.Plugins {
		if _, ok := seen[plugin.ID]; ok {
			return rawProfile{}, invalidProfile(path, fmt.Errorf("duplicate plugin %q", plugin.ID))
		}
		seen[plugin.ID] = struct{}{}
	}
	return profile, nil
}

func (s *ProfileSource) toolStates(workspace string, profile rawProfile) []domain.ToolState {
	pluginsRoot := s.PluginsRoot(workspace)
	plugins := make(map[string]*domain.PluginDescriptor, len(profile.Plugins))
	for _, raw := range profile.Plugins {
		base := pluginsRoot
		if raw.Bundled {
			base = workspace
		}
		plugins[raw.ID] = &domain.PluginDescriptor{
			ID:      raw.ID,
			Version: strings.TrimSpace(raw.Version),
			Path:    resolve(base, raw.Path),
			Bundled: raw.Bundled,
		}
	}

	states := make([]domain.ToolState, 0, len(profile.Tools))
	for _, raw := range profile.Tools {
		state := domain.ToolState{
			ToolID:           raw.ID,
			Language:         strings.TrimSpace(raw.Language),
			Enabled:          raw.Enabled,
			EnabledByDefault: raw.EnabledByDefault,
		}
		if ref := strings.TrimSpace(raw.Plugin); ref != "" {
			origin, ok := plugins[ref]
			if !ok {
				s.logger.Warn("tool references unknown plugin",
					telemetry.WorkspaceField(workspace),
					zap.String("tool", raw.ID),
					zap.String("plugin", ref),
				)
			} else {
				copied := *origin
				state.Origin = &copied
			}
		}
		states = append(states, state)
	}
	return states
}

func invalidProfile(path string, err error) error {
	return domain.E(domain.CodeInvalidArgument, "workspace.profile", fmt.Sprintf("%s: %v", path, err), errors.Join(domain.ErrProfileInvalid, err))
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

var _ domain.ToolStateSource = (*ProfileSource)(nil)
