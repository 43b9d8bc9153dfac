package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "outpost", cmd.Use)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"init",
		"up",
		"resume",
		"status",
		"destroy",
		"version",
		"completion",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
}

func TestUpFlags(t *testing.T) {
	cmd := Up()

	for _, flag := range []string{"config", "state-dir", "dry-run", "non-interactive", "manual-dns-confirmed", "output-json"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "Expected flag %s", flag)
	}
	assert.Equal(t, "outpost.yaml", cmd.Flags().Lookup("config").DefValue)
}

func TestDestroyFlags(t *testing.T) {
	cmd := Destroy()

	for _, flag := range []string{"config", "state-dir", "confirm-destroy", "delete-ssh-key", "non-interactive", "output-json"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "Expected flag %s", flag)
	}
}
