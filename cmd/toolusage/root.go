package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"toolusage/internal/app"
	"toolusage/internal/domain"
	"toolusage/internal/infra/config"
	"toolusage/internal/infra/telemetry"
)

const defaultConfigFileName = "config.yaml"

type cliOptions struct {
	configPath string
	workspace  string
	debug      bool
	jsonOutput bool
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "toolusage",
		Short:         "Classify workspace tool settings into usage categories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd, &opts)
			logger, err := newLogger(opts.debug)
			if err != nil {
				return err
			}
			opts.logger = logger.With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCLI))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <workspace>/.toolusage/config.yaml)")
	root.PersistentFlags().StringVarP(&opts.workspace, "workspace", "w", "", "workspace directory (default current directory)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	root.AddCommand(
		newCollectCmd(&opts),
		newCategoriesCmd(&opts),
		newCatalogCmd(&opts),
		newServeCmd(&opts),
	)
	return root
}

func applyRootFlagBindings(cmd *cobra.Command, opts *cliOptions) {
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config":
			opts.configPath, _ = flags.GetString("config")
		case "workspace":
			opts.workspace, _ = flags.GetString("workspace")
		case "debug":
			opts.debug, _ = flags.GetBool("debug")
		case "json":
			opts.jsonOutput, _ = flags.GetBool("json")
		}
	})
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func resolveConfigPath(opts *cliOptions) string {
	if path := strings.TrimSpace(opts.configPath); path != "" {
		return path
	}
	base := strings.TrimSpace(opts.workspace)
	if base == "" {
		base = "."
	}
	return filepath.Join(base, domain.DefaultConfigDirName, defaultConfigFileName)
}

// loadApplication reads config and builds the application. The returned cleanup
// must be called once the command is done.
func loadApplication(ctx context.Context, opts *cliOptions) (*app.Application, func(), error) {
	cfg, err := config.NewLoader(opts.logger).Load(ctx, config.LoadOptions{
		Path:      resolveConfigPath(opts),
		Workspace: opts.workspace,
	})
	if err != nil {
		return nil, nil, err
	}
	return app.InitializeApplication(ctx, cfg, app.LoggingConfig{Logger: opts.logger})
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
