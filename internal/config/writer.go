package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/util/naming"
)

// DeployFileName is the inventory file consumed by the deploy tooling.
const DeployFileName = "deploy.yaml"

// Inventory is the rendered deployment configuration.
type Inventory struct {
	Domain   string          `yaml:"domain"`
	Registry string          `yaml:"registry,omitempty"`
	App      InventoryNode   `yaml:"app"`
	Probes   []InventoryNode `yaml:"probes"`
}

// InventoryNode describes one reachable node.
type InventoryNode struct {
	Code     string `yaml:"code"`
	Hostname string `yaml:"hostname"`
	Address  string `yaml:"address"`
	Region   string `yaml:"region"`
}

// InventoryWriter renders the deployment inventory from a fully
// provisioned state. It implements the engine's ConfigWriter contract.
type InventoryWriter struct {
	dir string
}

// NewInventoryWriter writes the inventory into dir.
func NewInventoryWriter(dir string) *InventoryWriter {
	return &InventoryWriter{dir: dir}
}

// Path returns the inventory file location.
func (w *InventoryWriter) Path() string {
	return filepath.Join(w.dir, DeployFileName)
}

// Write renders and writes the inventory.
func (w *InventoryWriter) Write(_ context.Context, st *state.State) error {
	inv := Inventory{
		Domain:   st.Inputs.Domain,
		Registry: st.Inputs.Registry,
	}
	for i := range st.Nodes {
		node := &st.Nodes[i]
		if node.PublicIPv4 == "" {
			return fmt.Errorf("node %q has no public address", node.Code)
		}
		entry := InventoryNode{
			Code:     node.Code,
			Hostname: naming.FQDN(node.Code, st.Inputs.HostSuffix),
			Address:  node.PublicIPv4,
			Region:   node.Region,
		}
		if node.Code == state.NodeApp {
			inv.App = entry
		} else {
			inv.Probes = append(inv.Probes, entry)
		}
	}

	data, err := yaml.Marshal(&inv)
	if err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating inventory directory: %w", err)
	}
	if err := os.WriteFile(w.Path(), data, 0o644); err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}
	return nil
}
