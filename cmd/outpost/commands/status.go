package commands

import (
	"github.com/spf13/cobra"

	"github.com/outpost-sh/outpost/cmd/outpost/handlers"
)

// Status returns the command that reports the persisted deployment state.
func Status() *cobra.Command {
	var opts handlers.StatusOptions

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current deployment state",
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Status(opts)
		},
	}

	cmd.Flags().StringVar(&opts.StateDir, "state-dir", ".", "Directory containing the state file")
	cmd.Flags().BoolVar(&opts.OutputJSON, "output-json", false, "Emit the raw state as JSON")

	return cmd
}
