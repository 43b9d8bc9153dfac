package commands

import (
	"github.com/spf13/cobra"

	"github.com/outpost-sh/outpost/cmd/outpost/handlers"
)

// Init returns the command for interactively creating a configuration.
//
// Flags:
//
//	--output, -o: Path to output file (default "outpost.yaml")
//	--force, -f:  Overwrite an existing file
func Init() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		Long: `Interactively create a configuration file.

The wizard asks about:

  - The apex domain and optional host suffix
  - How DNS records are managed (manually, Cloudflare or Hetzner DNS)
  - Server type, image and per-node regions
  - SSH key handling and the optional container registry

API tokens are never written to the file. They are read from the
environment on every invocation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "outpost.yaml", "Output file path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
