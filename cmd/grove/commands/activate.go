package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate [-- command...]",
		Short: "Enter the environment",
		Long: `Enter the environment, relocking it first if the manifest changed.

Without a command an interactive subshell starts; with one, the command
runs inside the environment and activate exits with its status.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			return c.components.App.Activate(cmd.Context(), dir, args)
		},
	}
}
