package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <owner/name>",
		Short: "Upload the environment to the hub",
		Long: `Upload the environment as a new generation of owner/name.

The hub rejects the push when the remote has advanced past the last
generation pulled or pushed from this directory, unless --force is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			number, err := c.components.App.Push(cmd.Context(), dir, args[0], force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed '%s' (generation %d)\n", args[0], number)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Overwrite the remote head even if it has advanced")
	return cmd
}

func (c *CLI) newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <owner/name>",
		Short: "Fetch an environment from the hub",
		Long: `Fetch a generation of owner/name into the environment directory,
replacing the local manifest and lockfile. The latest generation is
pulled unless --generation selects one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			generation, _ := cmd.Flags().GetInt("generation")
			if err := c.components.App.Pull(cmd.Context(), dir, args[0], generation); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled '%s'\n", args[0])
			return nil
		},
	}
	cmd.Flags().Int("generation", 0, "Generation to pull (0 means latest)")
	return cmd
}
