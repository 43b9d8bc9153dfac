package handlers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-sh/outpost/internal/config"
	"github.com/outpost-sh/outpost/internal/dns"
	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/platform/compute"
	"github.com/outpost-sh/outpost/internal/state"
)

type stubDeployer struct {
	deployCalls int
	verifyCalls int
}

func (s *stubDeployer) Deploy(context.Context, *state.State) error {
	s.deployCalls++
	return nil
}

func (s *stubDeployer) Verify(context.Context, *state.State) error {
	s.verifyCalls++
	return nil
}

// captureOutput redirects handler output into a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	origOut, origErr := stdout, stderr
	stdout, stderr = buf, buf
	t.Cleanup(func() { stdout, stderr = origOut, origErr })
	return buf
}

// swapFactories replaces every external dependency with a mock and
// restores the originals when the test finishes.
func swapFactories(t *testing.T, client compute.Client, provider dns.Provider, deployer *stubDeployer) {
	t.Helper()
	origToken := computeTokenFromEnv
	origDNSToken := dnsTokenFromEnv
	origClient := newComputeClient
	origProvider := newDNSProvider
	origDeployer := newDeployer
	origInteractive := isInteractive
	t.Cleanup(func() {
		computeTokenFromEnv = origToken
		dnsTokenFromEnv = origDNSToken
		newComputeClient = origClient
		newDNSProvider = origProvider
		newDeployer = origDeployer
		isInteractive = origInteractive
	})

	computeTokenFromEnv = func() (string, error) { return "compute-token", nil }
	dnsTokenFromEnv = func(string) (string, error) { return "dns-token", nil }
	newComputeClient = func(string) compute.Client { return client }
	newDNSProvider = func(state.DNSMode, string, string) (dns.Provider, error) { return provider, nil }
	newDeployer = func(*config.Config, engine.Observer) engine.Deployer { return deployer }
	isInteractive = func() bool { return false }
}

func writeTestConfig(t *testing.T, dir, mode string) string {
	t.Helper()
	path := filepath.Join(dir, "outpost.yaml")
	content := fmt.Sprintf(`domain: example.com
dns_mode: %s
server_type: cpx11
image: debian-12
state_dir: %s
regions:
  app: ash
  ord: ash
  iad: ash
  sea: hil
`, mode, dir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUp_CompletesWithManagedDNS(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, "cloudflare")
	buf := captureOutput(t)

	deployer := &stubDeployer{}
	swapFactories(t, &compute.MockClient{}, &dns.MockProvider{}, deployer)

	err := Up(context.Background(), UpOptions{ConfigPath: configPath})
	require.NoError(t, err)

	st, err := state.NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, state.PhaseDeployed, st.Phase)
	assert.True(t, st.AllNodesProvisioned())
	assert.True(t, st.AllDNSSatisfied())
	assert.Equal(t, 1, deployer.deployCalls)
	assert.Equal(t, 1, deployer.verifyCalls)
	assert.Contains(t, buf.String(), "deployed")
}

func TestUp_DryRunTouchesNoAPI(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, "cloudflare")
	buf := captureOutput(t)

	origToken := computeTokenFromEnv
	t.Cleanup(func() { computeTokenFromEnv = origToken })
	computeTokenFromEnv = func() (string, error) {
		t.Fatal("dry run must not read credentials")
		return "", nil
	}

	err := Up(context.Background(), UpOptions{ConfigPath: configPath, DryRun: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 7)
}

func TestUp_NonInteractiveWithoutConfigFails(t *testing.T) {
	dir := t.TempDir()
	captureOutput(t)

	err := Up(context.Background(), UpOptions{
		ConfigPath:     filepath.Join(dir, "outpost.yaml"),
		NonInteractive: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outpost init")
}

func TestUp_ManualModeNeedsConfirmationGate(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, "manual")
	captureOutput(t)

	deployer := &stubDeployer{}
	swapFactories(t, &compute.MockClient{}, &dns.MockProvider{}, deployer)

	err := Up(context.Background(), UpOptions{ConfigPath: configPath, NonInteractive: true})
	require.Error(t, err)

	// The run stops at DNS configuration; nodes are already up.
	st, loadErr := state.NewStore(dir).Load()
	require.NoError(t, loadErr)
	assert.Equal(t, state.PhaseDNSConfiguring, st.Phase)
	assert.True(t, st.AllNodesProvisioned())
	assert.Equal(t, 0, deployer.deployCalls)
}

func TestResume_WithoutStateFails(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, "cloudflare")
	captureOutput(t)

	err := Resume(context.Background(), UpOptions{ConfigPath: configPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outpost up")
}

func TestResume_ContinuesFromPersistedPhase(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, "cloudflare")
	captureOutput(t)

	deployer := &stubDeployer{}
	client := &compute.MockClient{
		CreateInstanceFunc: func(context.Context, compute.CreateOpts) (*compute.Instance, error) {
			t.Fatal("provisioned nodes must not be re-created")
			return nil, nil
		},
	}
	swapFactories(t, client, &dns.MockProvider{}, deployer)

	store := state.NewStore(dir)
	st, err := loadOrNewState(store, mustLoadConfig(t, configPath))
	require.NoError(t, err)
	for i := range st.Nodes {
		st.Nodes[i].InstanceID = fmt.Sprintf("%d", i+1)
		st.Nodes[i].PublicIPv4 = fmt.Sprintf("192.0.2.%d", i+1)
		st.Nodes[i].Status = string(compute.StatusRunning)
	}
	require.NoError(t, st.SetPhase(state.PhaseProvisioning, false))
	require.NoError(t, store.Save(st))

	err = Resume(context.Background(), UpOptions{ConfigPath: configPath})
	require.NoError(t, err)

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state.PhaseDeployed, reloaded.Phase)
	assert.Equal(t, "1", reloaded.Node("app").InstanceID)
}

func TestUp_OutputJSONEmitsSummary(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, "cloudflare")
	buf := captureOutput(t)

	deployer := &stubDeployer{}
	swapFactories(t, &compute.MockClient{}, &dns.MockProvider{}, deployer)

	err := Up(context.Background(), UpOptions{ConfigPath: configPath, OutputJSON: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"type":"phase.started"`)
	assert.Contains(t, out, `"terminal": true`)
}

func TestUp_FlagsAloneReplaceConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "outpost.yaml")
	captureOutput(t)

	deployer := &stubDeployer{}
	swapFactories(t, &compute.MockClient{}, &dns.MockProvider{}, deployer)

	err := Up(context.Background(), UpOptions{
		ConfigPath:     configPath,
		StateDir:       dir,
		NonInteractive: true,
		Overrides: ConfigOverrides{
			Domain:  "example.com",
			DNSMode: "cloudflare",
			Regions: map[string]string{"sea": "fsn1"},
		},
	})
	require.NoError(t, err)

	// The assembled configuration is written for later invocations.
	cfg, err := loadConfigFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.Domain)
	assert.Equal(t, "fsn1", cfg.Regions["sea"])

	st, err := state.NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, state.PhaseDeployed, st.Phase)
	assert.Equal(t, "fsn1", st.Node("sea").Region)
}

func TestUp_DeclinedPlanRunsNothing(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir, "cloudflare")
	buf := captureOutput(t)
	swapFactories(t, &compute.MockClient{}, &dns.MockProvider{}, &stubDeployer{})

	origInteractive := isInteractive
	origPrompt := promptProceed
	t.Cleanup(func() {
		isInteractive = origInteractive
		promptProceed = origPrompt
	})
	isInteractive = func() bool { return true }
	promptProceed = func(context.Context) (bool, error) { return false, nil }

	origToken := computeTokenFromEnv
	t.Cleanup(func() { computeTokenFromEnv = origToken })
	computeTokenFromEnv = func() (string, error) {
		t.Fatal("a declined plan must not read credentials")
		return "", nil
	}

	err := Up(context.Background(), UpOptions{ConfigPath: configPath})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Aborted.")

	st, err := state.NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, state.PhasePlanning, st.Phase)
}

func mustLoadConfig(t *testing.T, path string) *config.Config {
	t.Helper()
	cfg, err := loadConfigFile(path)
	require.NoError(t, err)
	return cfg
}
