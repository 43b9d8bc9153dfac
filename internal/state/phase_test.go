package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseOrdering(t *testing.T) {
	assert.True(t, PhasePlanning.Before(PhaseProvisioning))
	assert.True(t, PhaseProvisioning.Before(PhaseDeployed))
	assert.False(t, PhaseDeployed.Before(PhasePlanning))
	assert.False(t, PhasePlanning.Before(PhasePlanning))
}

func TestPhaseNext(t *testing.T) {
	tests := []struct {
		phase Phase
		next  Phase
		ok    bool
	}{
		{PhasePlanning, PhaseProvisioning, true},
		{PhaseProvisioning, PhaseProvisioned, true},
		{PhaseProvisioned, PhaseDNSConfiguring, true},
		{PhaseDNSConfiguring, PhaseDNSConfigured, true},
		{PhaseDNSConfigured, PhaseConfigured, true},
		{PhaseConfigured, PhaseDeploying, true},
		{PhaseDeploying, PhaseDeployed, true},
		{PhaseDeployed, PhaseDeployed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			next, ok := tt.phase.Next()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("dns_configuring")
	require.NoError(t, err)
	assert.Equal(t, PhaseDNSConfiguring, p)

	_, err = ParsePhase("bogus")
	assert.Error(t, err)
}

func TestPhaseTerminal(t *testing.T) {
	assert.True(t, PhaseDeployed.Terminal())
	assert.False(t, PhaseDeploying.Terminal())
}
