// Package config loads the application configuration.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"toolusage/internal/domain"
	"toolusage/internal/infra/envutil"
)

// EnvPrefix prefixes environment overrides, e.g. TOOLUSAGE_CATALOG_URL.
const EnvPrefix = "TOOLUSAGE"

type rawConfig struct {
	Workspace              string              `mapstructure:"workspace"`
	Profile                string              `mapstructure:"profile"`
	PluginsRoot            string              `mapstructure:"pluginsRoot"`
	Catalog                rawCatalogConfig    `mapstructure:"catalog"`
	CollectIntervalSeconds int                 `mapstructure:"collectIntervalSeconds"`
	Observability          rawObservabilityCfg `mapstructure:"observability"`
}

type rawCatalogConfig struct {
	URL                   string `mapstructure:"url"`
	File                  string `mapstructure:"file"`
	CachePath             string `mapstructure:"cachePath"`
	StaleAfterSeconds     int    `mapstructure:"staleAfterSeconds"`
	CacheMaxAgeSeconds    int    `mapstructure:"cacheMaxAgeSeconds"`
	RefreshTimeoutSeconds int    `mapstructure:"refreshTimeoutSeconds"`
	RefreshWorkers        int    `mapstructure:"refreshWorkers"`
}

type rawObservabilityCfg struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
	Healthz       bool   `mapstructure:"healthz"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workspace", "")
	v.SetDefault("profile", "")
	v.SetDefault("pluginsRoot", "")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.cachePath", "")
	v.SetDefault("catalog.staleAfterSeconds", int(domain.CatalogStaleAfter/time.Second))
	v.SetDefault("catalog.cacheMaxAgeSeconds", domain.DefaultCatalogCacheMaxAgeSeconds)
	v.SetDefault("catalog.refreshTimeoutSeconds", domain.DefaultCatalogRefreshTimeoutSecs)
	v.SetDefault("catalog.refreshWorkers", domain.DefaultCatalogRefreshWorkers)
	v.SetDefault("collectIntervalSeconds", domain.DefaultCollectIntervalSeconds)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.metrics", true)
	v.SetDefault("observability.healthz", true)
}

// LoadOptions selects the file to read and values that take precedence over it.
type LoadOptions struct {
	// Path is the YAML config file. An empty or missing path yields defaults.
	Path string
	// Workspace overrides the configured workspace when set.
	Workspace string
}

type Loader struct {
	logger   *zap.Logger
	validate *validator.Validate
	getwd    func() (string, error)
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger:   logger.Named("config"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		getwd:    os.Getwd,
	}
}

func (l *Loader) Load(ctx context.Context, opts LoadOptions) (domain.Config, error) {
	v := newViper()
	if err := l.read(v, opts.Path); err != nil {
		return domain.Config{}, err
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, invalidConfig(fmt.Errorf("decode config: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}
	if ws := strings.TrimSpace(opts.Workspace); ws != "" {
		raw.Workspace = ws
	}

	cfg, err := l.normalize(raw)
	if err != nil {
		return domain.Config{}, err
	}
	if err := l.validate.Struct(cfg); err != nil {
		return domain.Config{}, invalidConfig(err)
	}
	return cfg, nil
}

func (l *Loader) read(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("config file not found, using defaults", zap.String("path", path))
		return nil
	}
	if err != nil {
		return domain.E(domain.CodeUnavailable, "config.load", fmt.Sprintf("read config %s", path), err)
	}

	expanded, missing, err := envutil.ExpandYAML(data)
	if err != nil {
		return invalidConfig(err)
	}
	if len(missing) > 0 {
		l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
	}
	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return invalidConfig(fmt.Errorf("parse config: %w", err))
	}
	return nil
}

func (l *Loader) normalize(raw rawConfig) (domain.Config, error) {
	workspace := strings.TrimSpace(raw.Workspace)
	if workspace == "" {
		wd, err := l.getwd()
		if err != nil {
			return domain.Config{}, domain.E(domain.CodeInternal, "config.load", "resolve working directory", err)
		}
		workspace = wd
	}
	workspace, err := filepath.Abs(workspace)
	if err != nil {
		return domain.Config{}, invalidConfig(err)
	}
	stateDir := filepath.Join(workspace, domain.DefaultConfigDirName)

	cfg := domain.Config{
		Workspace:   workspace,
		ProfilePath: resolvePath(workspace, raw.Profile, filepath.Join(stateDir, domain.DefaultProfileFileName)),
		PluginsRoot: resolvePath(workspace, raw.PluginsRoot, filepath.Join(stateDir, domain.DefaultPluginsDirName)),
		Catalog: domain.CatalogConfig{
			URL:            strings.TrimSpace(raw.Catalog.URL),
			File:           resolvePath(workspace, raw.Catalog.File, ""),
			CachePath:      resolvePath(workspace, raw.Catalog.CachePath, filepath.Join(stateDir, domain.DefaultCatalogCacheFileName)),
			StaleAfter:     seconds(raw.Catalog.StaleAfterSeconds),
			CacheMaxAge:    seconds(raw.Catalog.CacheMaxAgeSeconds),
			RefreshTimeout: seconds(raw.Catalog.RefreshTimeoutSeconds),
			RefreshWorkers: raw.Catalog.RefreshWorkers,
		},
		CollectInterval: seconds(raw.CollectIntervalSeconds),
		Observability: domain.ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
			Metrics:       raw.Observability.Metrics,
			Healthz:       raw.Observability.Healthz,
		},
	}
	if cfg.Catalog.URL != "" && cfg.Catalog.File != "" {
		return domain.Config{}, invalidConfig(errors.New("catalog.url and catalog.file are mutually exclusive"))
	}
	return cfg, nil
}

func resolvePath(base, value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(base, value)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func invalidConfig(err error) error {
	return domain.E(domain.CodeInvalidArgument, "config.load", err.Error(), errors.Join(domain.ErrConfigInvalid, err))
}
