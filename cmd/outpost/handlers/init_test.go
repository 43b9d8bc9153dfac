package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-sh/outpost/internal/config"
)

func wizardConfig() *config.Config {
	cfg := &config.Config{
		Domain:  "example.com",
		DNSMode: "manual",
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outpost.yaml")
	buf := captureOutput(t)

	origWizard := runWizard
	t.Cleanup(func() { runWizard = origWizard })
	runWizard = func(context.Context) (*config.Config, error) {
		return wizardConfig(), nil
	}

	err := Init(context.Background(), path, false)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "domain: example.com")
	assert.Contains(t, string(data), "dns_mode: manual")
	assert.Contains(t, buf.String(), "outpost up")

	cfg, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.Domain)
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outpost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domain: keep.me\n"), 0o644))
	captureOutput(t)

	origWizard := runWizard
	t.Cleanup(func() { runWizard = origWizard })
	runWizard = func(context.Context) (*config.Config, error) {
		t.Fatal("wizard must not run when the file exists")
		return nil, nil
	}

	err := Init(context.Background(), path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "domain: keep.me\n", string(data))
}

func TestInit_ForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outpost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domain: old.example\n"), 0o644))
	captureOutput(t)

	origWizard := runWizard
	t.Cleanup(func() { runWizard = origWizard })
	runWizard = func(context.Context) (*config.Config, error) {
		return wizardConfig(), nil
	}

	err := Init(context.Background(), path, true)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "domain: example.com")
}
