package state

import (
	"fmt"
	"time"

	"github.com/outpost-sh/outpost/internal/util/naming"
)

// DNSMode selects how cluster hostnames are published.
type DNSMode string

const (
	DNSModeCloudflare DNSMode = "cloudflare"
	DNSModeHetzner    DNSMode = "hetzner"
	DNSModeManual     DNSMode = "manual"
)

// Valid reports whether m is a known DNS mode.
func (m DNSMode) Valid() bool {
	switch m {
	case DNSModeCloudflare, DNSModeHetzner, DNSModeManual:
		return true
	}
	return false
}

// Managed reports whether records are created through a provider API.
func (m DNSMode) Managed() bool {
	return m == DNSModeCloudflare || m == DNSModeHetzner
}

// Node codes in creation order. The app node hosts the application;
// the remaining three are geographically distributed probes.
const (
	NodeApp = "app"
	NodeOrd = "ord"
	NodeIad = "iad"
	NodeSea = "sea"
)

// NodeCodes is the fixed cluster topology in creation order.
var NodeCodes = []string{NodeApp, NodeOrd, NodeIad, NodeSea}

// Inputs is the operator configuration frozen at planning time. It is
// immutable once provisioning starts and never contains credential
// values; API tokens are read from the environment on every invocation.
type Inputs struct {
	Domain       string            `json:"domain"`
	HostSuffix   string            `json:"host_suffix"`
	DNSMode      DNSMode           `json:"dns_mode"`
	ServerType   string            `json:"server_type"`
	Image        string            `json:"image"`
	Regions      map[string]string `json:"regions"`
	Registry     string            `json:"registry,omitempty"`
	SSHKeySource string            `json:"ssh_key_source"`
}

// Node is the persisted record of one cluster instance. A non-empty
// InstanceID means the instance was already created upstream and must
// never be created again.
type Node struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	InstanceID  string `json:"instance_id,omitempty"`
	Region      string `json:"region"`
	ServerType  string `json:"server_type"`
	PublicIPv4  string `json:"public_ipv4,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Provisioned reports whether the node has a running instance with a
// recorded address.
func (n *Node) Provisioned() bool {
	return n.InstanceID != "" && n.PublicIPv4 != ""
}

// DNSEntry is the persisted record of one cluster hostname. A non-empty
// RecordID (managed modes) or Verified=true (manual mode) means the
// record already exists and is not re-created.
type DNSEntry struct {
	Hostname string  `json:"hostname"`
	NodeCode string  `json:"node_code"`
	Mode     DNSMode `json:"mode"`
	ZoneID   string  `json:"zone_id,omitempty"`
	RecordID string  `json:"record_id,omitempty"`
	Target   string  `json:"target,omitempty"`
	Verified bool    `json:"verified"`
}

// Satisfied reports whether the entry no longer needs configuration. A
// recorded record ID satisfies managed modes; manual mode requires a
// verified resolution.
func (e *DNSEntry) Satisfied() bool {
	if e.Mode == DNSModeManual {
		return e.Verified
	}
	return e.RecordID != ""
}

// Transition records one phase change for forensic replay.
type Transition struct {
	Phase Phase     `json:"phase"`
	At    time.Time `json:"at"`
}

// State is the single persisted wizard document. It is mutated only by
// the phase engine, and by the destroyer as it nulls out resource IDs.
type State struct {
	Phase     Phase        `json:"phase"`
	Inputs    Inputs       `json:"inputs"`
	Nodes     []Node       `json:"nodes"`
	DNS       []DNSEntry   `json:"dns"`
	SSHKeyID  string       `json:"ssh_key_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	History   []Transition `json:"history"`
}

// New builds a fresh state document at the planning phase with node and
// DNS entries derived from the inputs.
func New(inputs Inputs) *State {
	now := time.Now().UTC()
	s := &State{
		Phase:     PhasePlanning,
		Inputs:    inputs,
		CreatedAt: now,
		UpdatedAt: now,
		History:   []Transition{{Phase: PhasePlanning, At: now}},
	}
	for _, code := range NodeCodes {
		s.Nodes = append(s.Nodes, Node{
			Code:       code,
			Label:      naming.Server(code, inputs.Domain),
			Region:     inputs.Regions[code],
			ServerType: inputs.ServerType,
		})
		s.DNS = append(s.DNS, DNSEntry{
			Hostname: naming.FQDN(code, inputs.HostSuffix),
			NodeCode: code,
			Mode:     inputs.DNSMode,
		})
	}
	return s
}

// SetPhase advances the document to the given phase, stamping the
// transition. Moving backwards requires force, which is reserved for
// the explicit resume-from-earlier-phase path.
func (s *State) SetPhase(p Phase, force bool) error {
	if !p.Valid() {
		return fmt.Errorf("unknown phase %q", p)
	}
	if p.Before(s.Phase) && !force {
		return fmt.Errorf("cannot move from phase %s back to %s", s.Phase, p)
	}
	now := time.Now().UTC()
	s.Phase = p
	s.UpdatedAt = now
	s.History = append(s.History, Transition{Phase: p, At: now})
	return nil
}

// Node returns the node record for the given code, or nil.
func (s *State) Node(code string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].Code == code {
			return &s.Nodes[i]
		}
	}
	return nil
}

// Entry returns the DNS entry for the given node code, or nil.
func (s *State) Entry(code string) *DNSEntry {
	for i := range s.DNS {
		if s.DNS[i].NodeCode == code {
			return &s.DNS[i]
		}
	}
	return nil
}

// AllNodesProvisioned reports whether every node has an instance ID and
// a public address. DNS configuration must not start before this holds.
func (s *State) AllNodesProvisioned() bool {
	for i := range s.Nodes {
		if !s.Nodes[i].Provisioned() {
			return false
		}
	}
	return len(s.Nodes) > 0
}

// AllDNSSatisfied reports whether every hostname is configured.
func (s *State) AllDNSSatisfied() bool {
	for i := range s.DNS {
		if !s.DNS[i].Satisfied() {
			return false
		}
	}
	return len(s.DNS) > 0
}

// Validate checks structural integrity of a loaded document.
func (s *State) Validate() error {
	if !s.Phase.Valid() {
		return fmt.Errorf("unknown phase %q", s.Phase)
	}
	if s.Inputs.Domain == "" {
		return fmt.Errorf("state has no domain")
	}
	if !s.Inputs.DNSMode.Valid() {
		return fmt.Errorf("unknown dns mode %q", s.Inputs.DNSMode)
	}
	seen := make(map[string]bool, len(s.Nodes))
	for i := range s.Nodes {
		code := s.Nodes[i].Code
		if seen[code] {
			return fmt.Errorf("duplicate node code %q", code)
		}
		seen[code] = true
	}
	for i := range s.DNS {
		if !seen[s.DNS[i].NodeCode] {
			return fmt.Errorf("dns entry %q references unknown node %q", s.DNS[i].Hostname, s.DNS[i].NodeCode)
		}
	}
	return nil
}
