package cmd

import (
	"github.com/pakmandi/bazaar/internal/export"
	"github.com/pakmandi/bazaar/internal/profile"
	"github.com/spf13/cobra"
)

func newSellerCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "seller <id>",
		Short: "Show a seller profile with listings and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			c, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			p, err := profile.Build(c, args[0])
			if err != nil {
				return err
			}
			return export.Profile(cmd.OutOrStdout(), f, p)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	return cmd
}
