package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolusage/internal/infra/telemetry"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Collect continuously and expose metrics and health endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			if !opts.debug {
				// serve is long-running; info logs are its report output
				logger, err := zap.NewProduction()
				if err != nil {
					return err
				}
				opts.logger = logger.With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCLI))
			}

			application, cleanup, err := loadApplication(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()
			return application.Serve(ctx)
		},
	}
}
