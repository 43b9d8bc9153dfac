package ui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outpost-sh/outpost/internal/destroy"
	"github.com/outpost-sh/outpost/internal/dns"
	"github.com/outpost-sh/outpost/internal/state"
)

func sampleState() *state.State {
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
		SSHKeySource: "generate",
	})
	for i := range st.Nodes {
		st.Nodes[i].InstanceID = fmt.Sprintf("10%d", i)
		st.Nodes[i].PublicIPv4 = fmt.Sprintf("203.0.113.%d", i+1)
		st.Nodes[i].Status = "running"
	}
	return st
}

func TestRenderStatus(t *testing.T) {
	out := RenderStatus(sampleState())

	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "planning")
	assert.Contains(t, out, "outpost-app-example-com")
	assert.Contains(t, out, "203.0.113.4")
	assert.Contains(t, out, "sea.example.com")
}

func TestRenderManualRecords(t *testing.T) {
	st := sampleState()
	out := RenderManualRecords(st, dns.Required(st))

	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "app")
	assert.Contains(t, out, "203.0.113.1")
	assert.Contains(t, out, "120")
}

func TestRenderDestroyReport(t *testing.T) {
	report := &destroy.Report{
		Results: []destroy.Result{
			{Resource: "instance outpost-app-example-com", ID: "100", Status: destroy.StatusDeleted},
			{Resource: "instance outpost-ord-example-com", ID: "101", Status: destroy.StatusFailed, Detail: "locked"},
		},
		ArchivePath: "/tmp/state.destroyed.20260829T000000Z.json",
	}

	out := RenderDestroyReport(report)
	assert.Contains(t, out, "outpost-app-example-com")
	assert.Contains(t, out, "locked")
	assert.Contains(t, out, "1 deleted")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "archived")
}
