package commands

import (
	"github.com/spf13/cobra"

	"github.com/outpost-sh/outpost/cmd/outpost/handlers"
)

// Resume returns the command that continues an interrupted deployment.
func Resume() *cobra.Command {
	var opts handlers.UpOptions

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Continue an interrupted deployment",
		Long: `Continue an interrupted deployment from its last persisted phase.

Unlike 'outpost up', this command requires an existing state file and
never starts the configuration wizard.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Resume(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "outpost.yaml", "Path to configuration file")
	cmd.Flags().StringVar(&opts.StateDir, "state-dir", "", "Directory for the state file (overrides config)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the remaining steps without executing them")
	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false, "Fail instead of prompting")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the plan confirmation prompt")
	cmd.Flags().BoolVar(&opts.ManualDNSConfirmed, "manual-dns-confirmed", false, "Assert that manual DNS records have been created")
	cmd.Flags().BoolVar(&opts.OutputJSON, "output-json", false, "Emit machine-readable JSON instead of formatted text")

	return cmd
}
