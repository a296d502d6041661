package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newIncludeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "include",
		Short: "Manage included environments",
	}
	cmd.AddCommand(c.newIncludeUpgradeCmd())
	return cmd
}

func (c *CLI) newIncludeUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade [names...]",
		Short: "Re-fetch included environments and merge their changes",
		Long: `Re-fetch included environments and merge their changes.

Without arguments every include is re-evaluated; otherwise only the
named ones. Includes that fail to fetch keep their previous
contribution.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			report, err := c.components.App.IncludeUpgrade(cmd.Context(), dir, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			if report.Failed() {
				return zerr.New("one or more includes could not be checked")
			}
			return nil
		},
	}
}
