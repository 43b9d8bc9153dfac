package handlers

import (
	"errors"
	"fmt"

	"github.com/outpost-sh/outpost/internal/state"
)

// StatusOptions carries the flags of the status command.
type StatusOptions struct {
	StateDir   string
	OutputJSON bool
}

// Status prints the persisted deployment state.
func Status(opts StatusOptions) error {
	store := state.NewStore(opts.StateDir)
	st, err := store.Load()
	if errors.Is(err, state.ErrNoState) {
		fmt.Fprintf(stdout, "No deployment state found in %s\n", opts.StateDir)
		return nil
	}
	if err != nil {
		return err
	}
	return printSummary(st, opts.OutputJSON)
}
