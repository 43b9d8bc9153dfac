// Package engine drives the cluster lifecycle state machine. Each call
// to Advance performs at most one phase's worth of upstream work, then
// persists the document, so any interruption resumes from the last
// completed transition.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/outpost-sh/outpost/internal/state"
)

// Provisioner creates cluster instances and reconciles them against
// recorded state.
type Provisioner interface {
	// Provision creates any node lacking an instance ID and polls until
	// every node is running with a public address.
	Provision(ctx context.Context, st *state.State) error

	// CheckProvisioned re-checks upstream reality for every recorded
	// instance ID. A recorded instance that no longer exists upstream is
	// a conflict, not a retry.
	CheckProvisioned(ctx context.Context, st *state.State) error
}

// DNSConfigurator publishes cluster hostnames, either through a managed
// provider API or by guiding the operator through manual record entry.
type DNSConfigurator interface {
	Configure(ctx context.Context, st *state.State) error
}

// ConfigWriter renders deployment configuration from a fully
// provisioned, DNS-configured state.
type ConfigWriter interface {
	Write(ctx context.Context, st *state.State) error
}

// Deployer triggers the application deploy and verifies it is serving.
type Deployer interface {
	Deploy(ctx context.Context, st *state.State) error
	Verify(ctx context.Context, st *state.State) error
}

// Engine executes the lifecycle. Collaborators are injected; a nil
// ConfigWriter or Deployer turns the corresponding phases into
// transitions without side effects.
type Engine struct {
	store       *state.Store
	provisioner Provisioner
	dns         DNSConfigurator
	config      ConfigWriter
	deployer    Deployer
	observer    Observer
}

// New builds an Engine. Store, provisioner, and dns are required.
func New(store *state.Store, provisioner Provisioner, dns DNSConfigurator, config ConfigWriter, deployer Deployer, observer Observer) *Engine {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Engine{
		store:       store,
		provisioner: provisioner,
		dns:         dns,
		config:      config,
		deployer:    deployer,
		observer:    observer,
	}
}

// Advance performs the current phase's work and moves the state one
// phase forward. Calling it on a phase whose work is already complete
// issues no new resource creation and simply transitions. State is
// persisted after the transition, and in its last-good form on failure.
func (e *Engine) Advance(ctx context.Context, st *state.State) error {
	phase := st.Phase
	if phase.Terminal() {
		return nil
	}

	LogPhaseStart(e.observer, phase)
	start := time.Now()

	var op string
	var err error
	switch phase {
	case state.PhasePlanning:
		op, err = "validate inputs", e.plan(st)
	case state.PhaseProvisioning:
		op, err = "provision nodes", e.provisioner.Provision(ctx, st)
	case state.PhaseProvisioned:
		op, err = "verify nodes", e.checkProvisioned(ctx, st)
	case state.PhaseDNSConfiguring:
		op, err = "configure dns", e.configureDNS(ctx, st)
	case state.PhaseDNSConfigured:
		op, err = "write deployment config", e.writeConfig(ctx, st)
	case state.PhaseConfigured:
		op, err = "trigger deploy", e.deploy(ctx, st)
	case state.PhaseDeploying:
		op, err = "verify deploy", e.verifyDeploy(ctx, st)
	case state.PhaseDeployed:
		return nil
	default:
		op, err = "dispatch", fmt.Errorf("unknown phase %q", phase)
	}

	if err != nil {
		if saveErr := e.store.Save(st); saveErr != nil {
			err = fmt.Errorf("%w (also failed to persist state: %v)", err, saveErr)
		}
		LogPhaseFailed(e.observer, phase, err)
		var pe *PhaseError
		if errors.As(err, &pe) {
			return err
		}
		return NewPhaseError(phase, op, err)
	}

	next, _ := phase.Next()
	if err := st.SetPhase(next, false); err != nil {
		return NewPhaseError(phase, "advance", err)
	}
	if err := e.store.Save(st); err != nil {
		return NewPhaseError(next, "persist state", err)
	}
	LogPhaseComplete(e.observer, phase, time.Since(start))
	return nil
}

// Run advances until the lifecycle is complete or a phase fails.
func (e *Engine) Run(ctx context.Context, st *state.State) error {
	for !st.Phase.Terminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Advance(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Plan describes the work remaining from the current phase without
// touching any upstream resource.
func (e *Engine) Plan(st *state.State) []string {
	descriptions := map[state.Phase]string{
		state.PhasePlanning:       "validate inputs and freeze the cluster plan",
		state.PhaseProvisioning:   fmt.Sprintf("create and poll %d instances", len(st.Nodes)),
		state.PhaseProvisioned:    "verify recorded instances against upstream",
		state.PhaseDNSConfiguring: fmt.Sprintf("configure %d dns records (mode %s)", len(st.DNS), st.Inputs.DNSMode),
		state.PhaseDNSConfigured:  "write deployment configuration",
		state.PhaseConfigured:     "trigger application deploy",
		state.PhaseDeploying:      "verify application is serving",
	}

	var steps []string
	for phase := st.Phase; !phase.Terminal(); {
		if desc, ok := descriptions[phase]; ok {
			steps = append(steps, fmt.Sprintf("%s: %s", phase, desc))
		}
		next, ok := phase.Next()
		if !ok {
			break
		}
		phase = next
	}
	return steps
}

func (e *Engine) plan(st *state.State) error {
	if err := st.Validate(); err != nil {
		return NewValidationError("state", err.Error())
	}
	for _, code := range state.NodeCodes {
		n := st.Node(code)
		if n == nil {
			return NewValidationError("nodes", fmt.Sprintf("missing node %q", code))
		}
		if n.Region == "" {
			return NewValidationError("regions", fmt.Sprintf("no region selected for node %q", code))
		}
	}
	if st.Inputs.ServerType == "" {
		return NewValidationError("server_type", "no server type selected")
	}
	if st.Inputs.Image == "" {
		return NewValidationError("image", "no image selected")
	}
	return nil
}

func (e *Engine) checkProvisioned(ctx context.Context, st *state.State) error {
	if err := e.provisioner.CheckProvisioned(ctx, st); err != nil {
		return err
	}
	if !st.AllNodesProvisioned() {
		return NewValidationError("nodes", "not every node has an instance and address")
	}
	return nil
}

func (e *Engine) configureDNS(ctx context.Context, st *state.State) error {
	// DNS configuration never starts before every node has an address.
	if !st.AllNodesProvisioned() {
		return NewValidationError("nodes", "cannot configure dns before all nodes have addresses")
	}
	return e.dns.Configure(ctx, st)
}

func (e *Engine) writeConfig(ctx context.Context, st *state.State) error {
	if !st.AllDNSSatisfied() {
		return NewValidationError("dns", "not every hostname is configured and verified")
	}
	if e.config == nil {
		return nil
	}
	return e.config.Write(ctx, st)
}

func (e *Engine) deploy(ctx context.Context, st *state.State) error {
	if e.deployer == nil {
		return nil
	}
	return e.deployer.Deploy(ctx, st)
}

func (e *Engine) verifyDeploy(ctx context.Context, st *state.State) error {
	if e.deployer == nil {
		return nil
	}
	return e.deployer.Verify(ctx, st)
}
