package cmd

import (
	"errors"

	"github.com/pakmandi/bazaar/internal/dashboard"
	"github.com/pakmandi/bazaar/internal/export"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var userID, tab, format string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the role dashboard for a user",
		Example: `  # Farmer overview
  bazaar dashboard --user u1

  # A farmer's own listings as JSON
  bazaar dashboard --user u1 --tab listings --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			c, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			user, err := c.User(userID)
			if err != nil {
				return err
			}

			d := dashboard.New(user)
			if tab != "" {
				if err := d.Select(dashboard.Tab(tab)); err != nil {
					return err
				}
			}
			content, err := d.Content(c)
			if err != nil {
				return err
			}
			return export.Dashboard(cmd.OutOrStdout(), f, d, content)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID to sign in as")
	cmd.Flags().StringVarP(&tab, "tab", "t", "", "Tab: overview, listings or profile")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	return cmd
}
