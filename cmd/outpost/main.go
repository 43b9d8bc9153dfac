// Command outpost provisions and operates a small multi-region
// deployment on Hetzner Cloud: one application node plus three
// latency probes, with DNS records pointing at each of them.
package main

import (
	"fmt"
	"os"

	"github.com/outpost-sh/outpost/cmd/outpost/commands"
)

// Version information set by build flags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
