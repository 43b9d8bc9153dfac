// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/outpost-sh/outpost/internal/config"
	"github.com/outpost-sh/outpost/internal/config/wizard"
	"github.com/outpost-sh/outpost/internal/deploy"
	"github.com/outpost-sh/outpost/internal/destroy"
	"github.com/outpost-sh/outpost/internal/dns"
	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/platform/cloudflare"
	"github.com/outpost-sh/outpost/internal/platform/compute"
	"github.com/outpost-sh/outpost/internal/platform/hdns"
	"github.com/outpost-sh/outpost/internal/provision"
	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/ui"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads config from file.
	loadConfigFile = config.LoadFile

	// runWizard collects configuration interactively.
	runWizard = wizard.Run

	// computeTokenFromEnv reads the compute API token.
	computeTokenFromEnv = config.ComputeTokenFromEnv

	// dnsTokenFromEnv reads the DNS API token for a managed mode.
	dnsTokenFromEnv = config.DNSTokenFromEnv

	// newComputeClient creates the compute API client.
	newComputeClient = func(token string) compute.Client {
		return compute.NewRealClient(token)
	}

	// newDNSProvider creates the DNS provider for a managed mode.
	newDNSProvider = func(mode state.DNSMode, token, domain string) (dns.Provider, error) {
		switch mode {
		case state.DNSModeCloudflare:
			return dns.NewCloudflareProvider(cloudflare.NewClient(token), domain), nil
		case state.DNSModeHetzner:
			return dns.NewHetznerProvider(hdns.NewClient(token)), nil
		}
		return nil, fmt.Errorf("dns mode %q has no managed provider", mode)
	}

	// newDeployer creates the deploy trigger and verifier.
	newDeployer = func(cfg *config.Config, observer engine.Observer) engine.Deployer {
		return deploy.New(
			deploy.WithCommand(cfg.Deploy.Command...),
			deploy.WithDir(cfg.Deploy.Dir),
			deploy.WithScheme(cfg.Deploy.Scheme),
			deploy.WithObserver(observer),
		)
	}

	// newMirror creates the optional destroyed-state archive mirror.
	newMirror = func(ctx context.Context, opts destroy.S3Options) (destroy.Mirror, error) {
		return destroy.NewS3Mirror(ctx, opts)
	}

	// isInteractive reports whether prompts can be shown.
	isInteractive = ui.IsInteractive

	// stdout and stderr are swapped in tests to capture output.
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// resolveConfig produces the effective configuration for a run: the
// configuration file plus flag overrides, flags alone when --domain is
// given, or the wizard as a last interactive resort. Whenever a new
// configuration is assembled it is written to the configured path so
// later invocations can resume from it.
func resolveConfig(ctx context.Context, opts UpOptions) (*config.Config, error) {
	if _, err := os.Stat(opts.ConfigPath); err == nil {
		cfg, err := loadConfigFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		if !opts.Overrides.empty() {
			opts.Overrides.apply(cfg)
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("configuration validation failed: %w", err)
			}
		}
		return cfg, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking configuration file: %w", err)
	}

	if opts.Overrides.Domain != "" {
		cfg := &config.Config{}
		opts.Overrides.apply(cfg)
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		if err := writeConfigFile(opts.ConfigPath, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if opts.NonInteractive || !isInteractive() {
		return nil, fmt.Errorf("configuration file %s not found; run 'outpost init' or pass --domain", opts.ConfigPath)
	}
	cfg, err := runWizard(ctx)
	if err != nil {
		return nil, err
	}
	if err := writeConfigFile(opts.ConfigPath, cfg); err != nil {
		return nil, err
	}
	fmt.Fprintf(stderr, "Wrote configuration to %s\n", opts.ConfigPath)
	return cfg, nil
}

func writeConfigFile(path string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	return nil
}

// loadOrNewState loads persisted state, creating and persisting a fresh
// one from the configuration when none exists. Inputs in an existing
// state file win over the configuration file.
func loadOrNewState(store *state.Store, cfg *config.Config) (*state.State, error) {
	if store.Exists() {
		return store.Load()
	}
	st := state.New(cfg.ToInputs())
	if err := store.Save(st); err != nil {
		return nil, err
	}
	return st, nil
}

// buildEngine wires the phase engine from configuration, environment
// credentials and the persisted state.
func buildEngine(ctx context.Context, cfg *config.Config, store *state.Store, st *state.State, opts UpOptions) (*engine.Engine, error) {
	observer := newRunObserver(opts.OutputJSON)

	computeToken, err := computeTokenFromEnv()
	if err != nil {
		return nil, err
	}
	client := newComputeClient(computeToken)

	provisioner := provision.New(client,
		provision.WithObserver(observer),
		provision.WithKeyDir(cfg.StateDir),
		provision.WithPersist(store.Save),
	)

	configuratorOpts := []dns.ConfiguratorOption{
		dns.WithObserver(observer),
		dns.WithPersist(store.Save),
	}
	var provider dns.Provider
	if st.Inputs.DNSMode.Managed() {
		dnsToken, err := dnsTokenFromEnv(string(st.Inputs.DNSMode))
		if err != nil {
			return nil, err
		}
		provider, err = newDNSProvider(st.Inputs.DNSMode, dnsToken, st.Inputs.Domain)
		if err != nil {
			return nil, err
		}
	} else if confirm := manualConfirm(st, opts); confirm != nil {
		configuratorOpts = append(configuratorOpts, dns.WithConfirm(confirm))
	}
	configurator := dns.NewConfigurator(provider, configuratorOpts...)

	writer := config.NewInventoryWriter(cfg.StateDir)
	deployer := newDeployer(cfg, observer)

	return engine.New(store, provisioner, configurator, writer, deployer, observer), nil
}

// manualConfirm returns the confirmation gate for manual DNS mode, or
// nil when no gate is available in the current invocation.
func manualConfirm(st *state.State, opts UpOptions) dns.ConfirmFunc {
	if opts.ManualDNSConfirmed {
		return func(context.Context, []dns.Record) (bool, error) {
			return true, nil
		}
	}
	if opts.NonInteractive || !isInteractive() {
		return nil
	}
	return func(ctx context.Context, required []dns.Record) (bool, error) {
		fmt.Fprintln(stdout, ui.RenderManualRecords(st, required))
		return promptManualRecords(ctx)
	}
}
