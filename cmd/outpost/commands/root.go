// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the outpost CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outpost",
		Short: "Provision an app node and latency probes on Hetzner Cloud",
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Up())
	cmd.AddCommand(Resume())
	cmd.AddCommand(Status())
	cmd.AddCommand(Destroy())

	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
