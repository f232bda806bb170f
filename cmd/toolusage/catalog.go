package main

import (
	"github.com/spf13/cobra"
)

func newCatalogCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or refresh the plugin catalog",
	}
	cmd.AddCommand(
		newCatalogShowCmd(opts),
		newCatalogRefreshCmd(opts),
	)
	return cmd
}

func newCatalogShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cached catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cleanup, err := loadApplication(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()
			return printCatalogStatus(application.CatalogStatus(), opts.jsonOutput)
		},
	}
}

func newCatalogRefreshCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the catalog now and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, cleanup, err := loadApplication(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := application.RefreshCatalog(ctx); err != nil {
				return err
			}
			return printCatalogStatus(application.CatalogStatus(), opts.jsonOutput)
		},
	}
}
