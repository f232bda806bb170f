package main

import (
	"github.com/spf13/cobra"

	"toolusage/internal/app/usage"
)

func newCategoriesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the usage categories",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printCategories(usage.Categories(), opts.jsonOutput)
		},
	}
}
