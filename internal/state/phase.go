// Package state defines the persisted wizard state document and the
// phase lifecycle it moves through. The state file is the single source
// of truth for resumption: every resource created upstream is recorded
// here by ID before the lifecycle advances.
package state

import "fmt"

// Phase is a named stage in the cluster lifecycle. Phases advance
// monotonically; resuming re-enters the current phase's handler.
type Phase string

const (
	PhasePlanning       Phase = "planning"
	PhaseProvisioning   Phase = "provisioning"
	PhaseProvisioned    Phase = "provisioned"
	PhaseDNSConfiguring Phase = "dns_configuring"
	PhaseDNSConfigured  Phase = "dns_configured"
	PhaseConfigured     Phase = "configured"
	PhaseDeploying      Phase = "deploying"
	PhaseDeployed       Phase = "deployed"
)

// phaseOrder is the complete lifecycle in execution order.
var phaseOrder = []Phase{
	PhasePlanning,
	PhaseProvisioning,
	PhaseProvisioned,
	PhaseDNSConfiguring,
	PhaseDNSConfigured,
	PhaseConfigured,
	PhaseDeploying,
	PhaseDeployed,
}

// ParsePhase converts a string into a Phase, rejecting unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p.index() >= 0
}

// Next returns the phase following p. The second return value is false
// when p is the final phase.
func (p Phase) Next() (Phase, bool) {
	i := p.index()
	if i < 0 || i == len(phaseOrder)-1 {
		return p, false
	}
	return phaseOrder[i+1], true
}

// Before reports whether p comes strictly earlier than other in the
// lifecycle. Unknown phases are never before anything.
func (p Phase) Before(other Phase) bool {
	pi, oi := p.index(), other.index()
	return pi >= 0 && oi >= 0 && pi < oi
}

// Terminal reports whether p is the final phase.
func (p Phase) Terminal() bool {
	return p == PhaseDeployed
}

func (p Phase) index() int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

func (p Phase) String() string {
	return string(p)
}
