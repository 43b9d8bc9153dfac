package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-sh/outpost/internal/state"
)

type stubProvisioner struct {
	ProvisionFunc        func(ctx context.Context, st *state.State) error
	CheckProvisionedFunc func(ctx context.Context, st *state.State) error
	provisionCalls       int
	checkCalls           int
}

func (s *stubProvisioner) Provision(ctx context.Context, st *state.State) error {
	s.provisionCalls++
	if s.ProvisionFunc != nil {
		return s.ProvisionFunc(ctx, st)
	}
	return nil
}

func (s *stubProvisioner) CheckProvisioned(ctx context.Context, st *state.State) error {
	s.checkCalls++
	if s.CheckProvisionedFunc != nil {
		return s.CheckProvisionedFunc(ctx, st)
	}
	return nil
}

type stubDNS struct {
	ConfigureFunc  func(ctx context.Context, st *state.State) error
	configureCalls int
}

func (s *stubDNS) Configure(ctx context.Context, st *state.State) error {
	s.configureCalls++
	if s.ConfigureFunc != nil {
		return s.ConfigureFunc(ctx, st)
	}
	return nil
}

type stubConfigWriter struct {
	writeCalls int
}

func (s *stubConfigWriter) Write(context.Context, *state.State) error {
	s.writeCalls++
	return nil
}

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

func testInputs() state.Inputs {
	return state.Inputs{
		Domain:     "example.com",
		HostSuffix: "example.com",
		DNSMode:    state.DNSModeCloudflare,
		ServerType: "cx22",
		Image:      "debian-12",
		Regions: map[string]string{
			state.NodeApp: "fsn1",
			state.NodeOrd: "ash",
			state.NodeIad: "ash",
			state.NodeSea: "hil",
		},
		SSHKeySource: "generate",
	}
}

// markProvisioned fills in the fields provisioning would have recorded.
func markProvisioned(st *state.State) {
	for i := range st.Nodes {
		st.Nodes[i].InstanceID = "100"
		st.Nodes[i].PublicIPv4 = "203.0.113.1"
		st.Nodes[i].Status = "running"
	}
}

func markDNSSatisfied(st *state.State) {
	for i := range st.DNS {
		st.DNS[i].RecordID = "rec-1"
		st.DNS[i].Verified = true
	}
}

func newTestEngine(t *testing.T) (*Engine, *stubProvisioner, *stubDNS, *stubConfigWriter, *stubDeployer, *state.Store) {
	t.Helper()
	store := state.NewStore(t.TempDir())
	prov := &stubProvisioner{}
	dns := &stubDNS{}
	cfg := &stubConfigWriter{}
	dep := &stubDeployer{}
	eng := New(store, prov, dns, cfg, dep, NopObserver{})
	return eng, prov, dns, cfg, dep, store
}

func TestAdvanceSinglePhase(t *testing.T) {
	eng, prov, dns, _, _, store := newTestEngine(t)
	st := state.New(testInputs())

	require.NoError(t, eng.Advance(context.Background(), st))
	assert.Equal(t, state.PhaseProvisioning, st.Phase)
	assert.Equal(t, 0, prov.provisionCalls, "planning must not touch the provisioner")
	assert.Equal(t, 0, dns.configureCalls)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state.PhaseProvisioning, loaded.Phase, "transition must be persisted")
}

func TestAdvanceIdempotentWhenWorkSatisfied(t *testing.T) {
	eng, prov, _, _, _, _ := newTestEngine(t)

	st := state.New(testInputs())
	require.NoError(t, st.SetPhase(state.PhaseProvisioned, false))
	markProvisioned(st)

	require.NoError(t, eng.Advance(context.Background(), st))
	assert.Equal(t, state.PhaseDNSConfiguring, st.Phase)
	assert.Equal(t, 0, prov.provisionCalls, "satisfied phase must issue no creation calls")
	assert.Equal(t, 1, prov.checkCalls, "reality is re-checked before advancing")
}

func TestAdvancePhaseFailureDoesNotAdvance(t *testing.T) {
	eng, prov, _, _, _, store := newTestEngine(t)
	prov.ProvisionFunc = func(context.Context, *state.State) error {
		return NewTransientError("create instance", errors.New("rate limited"))
	}

	st := state.New(testInputs())
	require.NoError(t, st.SetPhase(state.PhaseProvisioning, false))
	require.NoError(t, store.Save(st))

	err := eng.Advance(context.Background(), st)
	require.Error(t, err)

	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, state.PhaseProvisioning, pe.Phase)
	assert.Equal(t, state.PhaseProvisioning, st.Phase, "failed phase must not advance")

	loaded, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, state.PhaseProvisioning, loaded.Phase, "last-good state is persisted on failure")
}

func TestAdvanceDNSRequiresProvisionedNodes(t *testing.T) {
	eng, _, dns, _, _, _ := newTestEngine(t)

	st := state.New(testInputs())
	require.NoError(t, st.SetPhase(state.PhaseDNSConfiguring, false))

	err := eng.Advance(context.Background(), st)
	require.Error(t, err)
	assert.Equal(t, 0, dns.configureCalls, "dns must not run before all nodes have addresses")
	assert.Equal(t, state.PhaseDNSConfiguring, st.Phase)
}

func TestRunToCompletion(t *testing.T) {
	eng, prov, dns, cfg, dep, _ := newTestEngine(t)

	prov.ProvisionFunc = func(_ context.Context, st *state.State) error {
		markProvisioned(st)
		return nil
	}
	dns.ConfigureFunc = func(_ context.Context, st *state.State) error {
		markDNSSatisfied(st)
		return nil
	}

	st := state.New(testInputs())
	require.NoError(t, eng.Run(context.Background(), st))

	assert.Equal(t, state.PhaseDeployed, st.Phase)
	assert.Equal(t, 1, prov.provisionCalls)
	assert.Equal(t, 1, prov.checkCalls)
	assert.Equal(t, 1, dns.configureCalls)
	assert.Equal(t, 1, cfg.writeCalls)
	assert.Equal(t, 1, dep.deployCalls)
	assert.Equal(t, 1, dep.verifyCalls)
}

func TestRunResumesFromEveryPhase(t *testing.T) {
	for _, start := range []state.Phase{
		state.PhasePlanning,
		state.PhaseProvisioning,
		state.PhaseProvisioned,
		state.PhaseDNSConfiguring,
		state.PhaseDNSConfigured,
		state.PhaseConfigured,
		state.PhaseDeploying,
	} {
		t.Run(string(start), func(t *testing.T) {
			eng, prov, dns, _, _, _ := newTestEngine(t)
			prov.ProvisionFunc = func(_ context.Context, st *state.State) error {
				markProvisioned(st)
				return nil
			}
			dns.ConfigureFunc = func(_ context.Context, st *state.State) error {
				markDNSSatisfied(st)
				return nil
			}

			st := state.New(testInputs())
			require.NoError(t, st.SetPhase(start, false))
			if !start.Before(state.PhaseProvisioned) {
				// Interrupted after provisioning completed.
				markProvisioned(st)
			}
			if !start.Before(state.PhaseDNSConfigured) {
				markDNSSatisfied(st)
			}

			require.NoError(t, eng.Run(context.Background(), st))
			assert.Equal(t, state.PhaseDeployed, st.Phase)
			assert.LessOrEqual(t, prov.provisionCalls, 1, "resume must not duplicate creation work")
		})
	}
}

func TestRunResumesMidProvisioning(t *testing.T) {
	eng, prov, dns, _, _, _ := newTestEngine(t)

	// Two nodes already created; Provision only finishes the rest.
	prov.ProvisionFunc = func(_ context.Context, st *state.State) error {
		for i := range st.Nodes {
			require.NotEqual(t, "", st.Nodes[i].InstanceID,
				"existing instance ids must survive into the resumed call", st.Nodes[i].Code)
		}
		markProvisioned(st)
		return nil
	}
	dns.ConfigureFunc = func(_ context.Context, st *state.State) error {
		markDNSSatisfied(st)
		return nil
	}

	st := state.New(testInputs())
	require.NoError(t, st.SetPhase(state.PhaseProvisioning, false))
	for i := range st.Nodes {
		st.Nodes[i].InstanceID = "100"
	}

	require.NoError(t, eng.Run(context.Background(), st))
	assert.Equal(t, state.PhaseDeployed, st.Phase)
}

func TestAdvanceOnTerminalPhaseIsNoop(t *testing.T) {
	eng, prov, dns, _, _, _ := newTestEngine(t)

	st := state.New(testInputs())
	markProvisioned(st)
	markDNSSatisfied(st)
	require.NoError(t, st.SetPhase(state.PhaseDeployed, false))

	require.NoError(t, eng.Advance(context.Background(), st))
	assert.Equal(t, state.PhaseDeployed, st.Phase)
	assert.Equal(t, 0, prov.provisionCalls)
	assert.Equal(t, 0, dns.configureCalls)
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	eng, _, _, _, _, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := state.New(testInputs())
	err := eng.Run(ctx, st)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, state.PhasePlanning, st.Phase)
}

func TestPlanDescribesRemainingPhases(t *testing.T) {
	eng, _, _, _, _, _ := newTestEngine(t)

	st := state.New(testInputs())
	steps := eng.Plan(st)
	require.Len(t, steps, 7)
	assert.Contains(t, steps[0], "planning")

	require.NoError(t, st.SetPhase(state.PhaseDNSConfiguring, false))
	steps = eng.Plan(st)
	require.Len(t, steps, 4)
	assert.Contains(t, steps[0], "dns_configuring")
}

func TestRemediationMessages(t *testing.T) {
	conflict := NewPhaseError(state.PhaseProvisioned, "verify nodes",
		NewConflictError("node app", "instance 42 no longer exists"))
	assert.Contains(t, conflict.Error(), "manually")

	transient := NewPhaseError(state.PhaseProvisioning, "create instance",
		NewTransientError("create instance", errors.New("rate limited")))
	assert.Contains(t, transient.Error(), "resume")
}
