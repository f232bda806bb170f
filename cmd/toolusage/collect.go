package main

import (
	"os"

	"github.com/spf13/cobra"

	"toolusage/internal/app"
	"toolusage/internal/app/usage"
	"toolusage/internal/infra/sink"
)

func newCollectCmd(opts *cliOptions) *cobra.Command {
	var (
		category    string
		waitCatalog bool
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass and print the usages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, cleanup, err := loadApplication(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			collectOpts := app.CollectOptions{WaitCatalog: waitCatalog}
			if category != "" {
				cat, err := usage.Lookup(category)
				if err != nil {
					return err
				}
				usages, err := application.Usages(ctx, cat.Name, collectOpts)
				if err != nil {
					return err
				}
				return printCategoryUsages(cat, usages, opts.jsonOutput)
			}

			report, err := application.Collect(ctx, collectOpts)
			if err != nil {
				return err
			}
			format := sink.FormatText
			if opts.jsonOutput {
				format = sink.FormatJSON
			}
			return sink.NewWriterSink(os.Stdout, format).Record(ctx, report)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only print this category (name or group id)")
	cmd.Flags().BoolVar(&waitCatalog, "wait-catalog", true, "fetch the catalog before classifying when none is cached")
	return cmd
}
