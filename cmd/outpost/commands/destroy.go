package commands

import (
	"github.com/spf13/cobra"

	"github.com/outpost-sh/outpost/cmd/outpost/handlers"
)

// Destroy returns the command that tears down all recorded resources.
//
// Destruction requires the literal confirmation token DESTROY, either
// via --confirm-destroy or typed at the interactive prompt.
func Destroy() *cobra.Command {
	var opts handlers.DestroyOptions

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every resource recorded in the state file",
		Long: `Delete every resource recorded in the state file.

Removes managed DNS records first, then the instances. Manually
created DNS records are never touched. Deletion is best effort: a
failure on one resource is recorded and the remaining resources are
still attempted. Only a fully clean run archives the state file.

Examples:
  # Interactive destroy with confirmation prompt
  outpost destroy

  # Unattended destroy
  outpost destroy --non-interactive --confirm-destroy DESTROY`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "outpost.yaml", "Path to configuration file")
	cmd.Flags().StringVar(&opts.StateDir, "state-dir", "", "Directory for the state file (overrides config)")
	cmd.Flags().StringVar(&opts.Token, "confirm-destroy", "", "Confirmation token (must be DESTROY)")
	cmd.Flags().BoolVar(&opts.DeleteSSHKey, "delete-ssh-key", false, "Also delete the uploaded SSH key")
	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false, "Fail instead of prompting")
	cmd.Flags().BoolVar(&opts.OutputJSON, "output-json", false, "Emit machine-readable JSON instead of formatted text")

	return cmd
}
