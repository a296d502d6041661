package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new environment in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			return c.components.App.Init(cmd.Context(), dir)
		},
	}
}

func (c *CLI) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install [packages...]",
		Short: "Add packages to the environment",
		Long: `Add packages to the environment and lock them.

Each argument is a package path with an optional version constraint,
e.g. 'hello' or 'nodejs@20'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			if err := c.components.App.Install(cmd.Context(), dir, args); err != nil {
				return err
			}
			for _, arg := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "Installed '%s'\n", arg)
			}
			return nil
		},
	}
}

func (c *CLI) newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall [install-ids...]",
		Short: "Remove packages from the environment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			if err := c.components.App.Uninstall(cmd.Context(), dir, args); err != nil {
				return err
			}
			for _, id := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled '%s'\n", id)
			}
			return nil
		},
	}
}

func (c *CLI) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [inputs...]",
		Short: "Refresh the pinned input snapshots",
		Long: `Refresh the environment's pinned input snapshots.

Without arguments every input is refreshed; otherwise only the named
ones. Installed packages keep their locked builds until reinstalled.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			report, err := c.components.App.Update(cmd.Context(), dir, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return nil
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show installed packages and live activations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			listing, err := c.components.App.List(cmd.Context(), dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(listing.Packages) == 0 {
				fmt.Fprintln(out, "No packages installed")
			}
			for _, pkg := range listing.Packages {
				fmt.Fprintf(out, "%s: %s (%s)\n", pkg.InstallID, pkg.AttrPath, pkg.Version)
			}
			for _, act := range listing.Activations {
				fmt.Fprintf(out, "active: %s (watchdog %d, since %s)\n",
					act.ID, act.WatchdogPID, act.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
