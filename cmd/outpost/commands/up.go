package commands

import (
	"github.com/spf13/cobra"

	"github.com/outpost-sh/outpost/cmd/outpost/handlers"
)

// Up returns the command that drives a deployment to completion.
//
// The command is resumable: it picks up from the last persisted phase,
// skipping work that is already recorded in the state file.
//
// Environment variables:
//
//	OUTPOST_HCLOUD_TOKEN:     Hetzner Cloud API token (required)
//	OUTPOST_CLOUDFLARE_TOKEN: Cloudflare API token (dns_mode: cloudflare)
//	OUTPOST_HDNS_TOKEN:       Hetzner DNS API token (dns_mode: hetzner)
func Up() *cobra.Command {
	var opts handlers.UpOptions

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision the deployment and drive it to completion",
		Long: `Provision the deployment and drive it to completion.

Creates the application node and the three latency probes, configures
DNS records for them, writes the deployment inventory and runs the
optional deploy command. Progress is persisted to a state file after
every step, so an interrupted run can be resumed with 'outpost up' or
'outpost resume'.

If no configuration file exists yet, an interactive wizard collects
the required inputs and writes one.

Examples:
  # Provision using outpost.yaml in the current directory
  outpost up

  # Show the remaining steps without touching any API
  outpost up --dry-run

  # Unattended run with externally created DNS records
  outpost up --non-interactive --manual-dns-confirmed

  # Run without a configuration file
  outpost up --non-interactive --domain example.com --dns-mode cloudflare`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "outpost.yaml", "Path to configuration file")
	cmd.Flags().StringVar(&opts.StateDir, "state-dir", "", "Directory for the state file (overrides config)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the remaining steps without executing them")
	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false, "Fail instead of prompting")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the plan confirmation prompt")
	cmd.Flags().BoolVar(&opts.ManualDNSConfirmed, "manual-dns-confirmed", false, "Assert that manual DNS records have been created")
	cmd.Flags().BoolVar(&opts.OutputJSON, "output-json", false, "Emit machine-readable JSON instead of formatted text")

	cmd.Flags().StringVar(&opts.Overrides.Domain, "domain", "", "Apex domain (overrides config)")
	cmd.Flags().StringVar(&opts.Overrides.HostSuffix, "host-suffix", "", "Host suffix for node hostnames (overrides config)")
	cmd.Flags().StringVar(&opts.Overrides.DNSMode, "dns-mode", "", "DNS mode: manual, cloudflare or hetzner (overrides config)")
	cmd.Flags().StringVar(&opts.Overrides.ServerType, "server-type", "", "Server type (overrides config)")
	cmd.Flags().StringVar(&opts.Overrides.Image, "image", "", "OS image (overrides config)")
	cmd.Flags().StringVar(&opts.Overrides.Registry, "registry", "", "Container registry (overrides config)")
	cmd.Flags().StringVar(&opts.Overrides.SSHKey, "ssh-key", "", "Public key path, or 'generate' (overrides config)")
	cmd.Flags().StringToStringVar(&opts.Overrides.Regions, "region", nil, "Per-node region, e.g. app=ash,sea=hil (overrides config)")

	return cmd
}
