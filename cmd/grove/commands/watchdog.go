package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/engine/activate"
)

// newWatchdogCmd is the hidden entry point the activation coordinator
// re-executes the binary with. It supervises one activation: it blocks on
// the liveness FIFO and retires the registry entry when the session ends.
func (c *CLI) newWatchdogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "watchdog",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fifo, _ := cmd.Flags().GetString("fifo")
			envID, _ := cmd.Flags().GetString("env-id")
			activationID, _ := cmd.Flags().GetString("activation-id")
			if fifo == "" || envID == "" || activationID == "" {
				return zerr.New("watchdog requires --fifo, --env-id and --activation-id")
			}
			return activate.Watch(cmd.Context(), c.components.Registry, c.components.Logger, fifo, envID, activationID)
		},
	}
	cmd.Flags().String("fifo", "", "Liveness FIFO path")
	cmd.Flags().String("env-id", "", "Environment ID")
	cmd.Flags().String("activation-id", "", "Activation ID")
	return cmd
}
