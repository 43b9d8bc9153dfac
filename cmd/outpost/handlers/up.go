package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/outpost-sh/outpost/internal/config"
	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/ui"
)

// UpOptions carries the flags shared by 'up' and 'resume'.
type UpOptions struct {
	ConfigPath         string
	StateDir           string
	DryRun             bool
	NonInteractive     bool
	Yes                bool
	ManualDNSConfirmed bool
	OutputJSON         bool
	Overrides          ConfigOverrides
}

// ConfigOverrides are flag-level overrides of the configuration file.
// With --domain set they are sufficient to run without a file at all.
type ConfigOverrides struct {
	Domain     string
	HostSuffix string
	DNSMode    string
	ServerType string
	Image      string
	Registry   string
	SSHKey     string
	Regions    map[string]string
}

func (o ConfigOverrides) apply(cfg *config.Config) {
	if o.Domain != "" {
		cfg.Domain = o.Domain
	}
	if o.HostSuffix != "" {
		cfg.HostSuffix = o.HostSuffix
	}
	if o.DNSMode != "" {
		cfg.DNSMode = o.DNSMode
	}
	if o.ServerType != "" {
		cfg.ServerType = o.ServerType
	}
	if o.Image != "" {
		cfg.Image = o.Image
	}
	if o.Registry != "" {
		cfg.Registry = o.Registry
	}
	if o.SSHKey != "" {
		cfg.SSHKeySource = o.SSHKey
	}
	if len(o.Regions) > 0 {
		if cfg.Regions == nil {
			cfg.Regions = map[string]string{}
		}
		for code, region := range o.Regions {
			cfg.Regions[code] = region
		}
	}
}

func (o ConfigOverrides) empty() bool {
	return o.Domain == "" && o.HostSuffix == "" && o.DNSMode == "" &&
		o.ServerType == "" && o.Image == "" && o.Registry == "" &&
		o.SSHKey == "" && len(o.Regions) == 0
}

// Up drives the deployment to completion, creating configuration and
// state when they do not exist yet.
func Up(ctx context.Context, opts UpOptions) error {
	cfg, err := resolveConfig(ctx, opts)
	if err != nil {
		return err
	}
	applyStateDirOverride(cfg, opts)

	store := state.NewStore(cfg.StateDir)
	st, err := loadOrNewState(store, cfg)
	if err != nil {
		return err
	}
	return runEngine(ctx, cfg, store, st, opts)
}

// Resume continues an interrupted deployment. Unlike Up it refuses to
// start from scratch.
func Resume(ctx context.Context, opts UpOptions) error {
	cfg, err := loadConfigFile(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyStateDirOverride(cfg, opts)

	store := state.NewStore(cfg.StateDir)
	st, err := store.Load()
	if errors.Is(err, state.ErrNoState) {
		return fmt.Errorf("no state file in %s; run 'outpost up' first", cfg.StateDir)
	}
	if err != nil {
		return err
	}
	return runEngine(ctx, cfg, store, st, opts)
}

func applyStateDirOverride(cfg *config.Config, opts UpOptions) {
	if opts.StateDir != "" {
		cfg.StateDir = opts.StateDir
	}
}

func runEngine(ctx context.Context, cfg *config.Config, store *state.Store, st *state.State, opts UpOptions) error {
	if opts.DryRun {
		eng := engine.New(store, nil, nil, nil, nil, nil)
		for _, step := range eng.Plan(st) {
			fmt.Fprintln(stdout, step)
		}
		return nil
	}

	if !opts.Yes && !opts.NonInteractive && isInteractive() {
		eng := engine.New(store, nil, nil, nil, nil, nil)
		for _, step := range eng.Plan(st) {
			fmt.Fprintln(stdout, step)
		}
		proceed, err := promptProceed(ctx)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	eng, err := buildEngine(ctx, cfg, store, st, opts)
	if err != nil {
		return err
	}
	runErr := eng.Run(ctx, st)
	if err := printSummary(st, opts.OutputJSON); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// summary is the machine-readable result of a run.
type summary struct {
	Phase    state.Phase   `json:"phase"`
	Terminal bool          `json:"terminal"`
	Nodes    []nodeSummary `json:"nodes"`
	DNS      []dnsSummary  `json:"dns"`
}

type nodeSummary struct {
	Code       string `json:"code"`
	InstanceID string `json:"instance_id,omitempty"`
	PublicIPv4 string `json:"public_ipv4,omitempty"`
	Status     string `json:"status,omitempty"`
	Region     string `json:"region"`
}

type dnsSummary struct {
	Hostname  string `json:"hostname"`
	RecordID  string `json:"record_id,omitempty"`
	Verified  bool   `json:"verified"`
	Satisfied bool   `json:"satisfied"`
}

func summarize(st *state.State) summary {
	s := summary{Phase: st.Phase, Terminal: st.Phase.Terminal()}
	for i := range st.Nodes {
		n := &st.Nodes[i]
		s.Nodes = append(s.Nodes, nodeSummary{
			Code:       n.Code,
			InstanceID: n.InstanceID,
			PublicIPv4: n.PublicIPv4,
			Status:     n.Status,
			Region:     n.Region,
		})
	}
	for i := range st.DNS {
		e := &st.DNS[i]
		s.DNS = append(s.DNS, dnsSummary{
			Hostname:  e.Hostname,
			RecordID:  e.RecordID,
			Verified:  e.Verified,
			Satisfied: e.Satisfied(),
		})
	}
	return s
}

func printSummary(st *state.State, outputJSON bool) error {
	if outputJSON {
		data, err := json.MarshalIndent(summarize(st), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}
	fmt.Fprintln(stdout, ui.RenderStatus(st))
	return nil
}
