package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Replace the environment manifest",
		Long: `Replace the environment manifest with new content.

The new manifest is validated and locked before anything is written; a
rejected edit leaves the environment untouched. Content is read from the
file given with --file, or from stdin when --file is '-'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return zerr.New("edit requires --file (use '-' for stdin)")
			}

			var content []byte
			var err error
			if file == "-" {
				content, err = io.ReadAll(cmd.InOrStdin())
			} else {
				content, err = os.ReadFile(file) //nolint:gosec // path is a user-supplied flag
			}
			if err != nil {
				return zerr.Wrap(err, "failed to read manifest content")
			}

			dir, err := envDir(cmd)
			if err != nil {
				return err
			}
			return c.components.App.Edit(cmd.Context(), dir, content)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Read the new manifest from this file ('-' for stdin)")
	return cmd
}
