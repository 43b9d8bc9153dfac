package config

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/outpost-sh/outpost/internal/state"
)

func provisionedState() *state.State {
	st := state.New(state.Inputs{
		Domain:     "example.com",
		HostSuffix: "example.com",
		DNSMode:    state.DNSModeManual,
		ServerType: "cpx11",
		Image:      "debian-12",
		Regions: map[string]string{
			state.NodeApp: "ash",
			state.NodeOrd: "ash",
			state.NodeIad: "ash",
			state.NodeSea: "hil",
		},
		Registry:     "registry.example.com/outpost",
		SSHKeySource: "generate",
	})
	for i := range st.Nodes {
		st.Nodes[i].InstanceID = fmt.Sprintf("10%d", i)
		st.Nodes[i].PublicIPv4 = fmt.Sprintf("203.0.113.%d", i+1)
	}
	return st
}

func TestInventoryWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewInventoryWriter(dir)

	require.NoError(t, w.Write(context.Background(), provisionedState()))

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)

	var inv Inventory
	require.NoError(t, yaml.Unmarshal(data, &inv))

	assert.Equal(t, "example.com", inv.Domain)
	assert.Equal(t, "registry.example.com/outpost", inv.Registry)
	assert.Equal(t, "app.example.com", inv.App.Hostname)
	assert.Equal(t, "203.0.113.1", inv.App.Address)
	require.Len(t, inv.Probes, 3)
	assert.Equal(t, "ord", inv.Probes[0].Code)
	assert.Equal(t, "sea.example.com", inv.Probes[2].Hostname)
}

func TestInventoryWriterRejectsMissingAddress(t *testing.T) {
	st := provisionedState()
	st.Node(state.NodeIad).PublicIPv4 = ""

	w := NewInventoryWriter(t.TempDir())
	err := w.Write(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"iad"`)
}
