// Package wizard collects the cluster configuration interactively.
package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/outpost-sh/outpost/internal/config"
	"github.com/outpost-sh/outpost/internal/state"
)

// domainRegex accepts a registrable domain such as example.com.
var domainRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// Run walks the operator through every configuration question and
// returns a validated Config.
func Run(ctx context.Context) (*config.Config, error) {
	cfg := &config.Config{}

	if err := runIdentityGroup(ctx, cfg); err != nil {
		return nil, err
	}
	if err := runDNSGroup(ctx, cfg); err != nil {
		return nil, err
	}
	if err := runNodesGroup(ctx, cfg); err != nil {
		return nil, err
	}
	if err := runAccessGroup(ctx, cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("wizard produced an invalid configuration: %w", err)
	}
	return cfg, nil
}

func runIdentityGroup(ctx context.Context, cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Domain").
				Description("Apex domain the cluster lives under").
				Placeholder("example.com").
				Value(&cfg.Domain).
				Validate(validateDomain),
			huh.NewInput().
				Title("Host Suffix (Optional)").
				Description("Subdomain for node hostnames; leave empty to use the domain itself").
				Placeholder("up.example.com").
				Value(&cfg.HostSuffix),
		).Title("Cluster Identity"),
	).RunWithContext(ctx)
}

func runDNSGroup(ctx context.Context, cfg *config.Config) error {
	cfg.DNSMode = string(state.DNSModeManual)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("DNS Mode").
				Description("How node records are created").
				Options(
					huh.NewOption("Manual (you create the records)", string(state.DNSModeManual)),
					huh.NewOption("Cloudflare API", string(state.DNSModeCloudflare)),
					huh.NewOption("Hetzner DNS API", string(state.DNSModeHetzner)),
				).
				Value(&cfg.DNSMode),
		).Title("DNS"),
	).RunWithContext(ctx)
}

func runNodesGroup(ctx context.Context, cfg *config.Config) error {
	cfg.ServerType = config.DefaultServerType
	cfg.Image = config.DefaultImage
	if cfg.Regions == nil {
		cfg.Regions = map[string]string{}
	}

	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Server Type").
			Description("Applied to all four nodes").
			Options(ServerTypeOptions...).
			Value(&cfg.ServerType),
		huh.NewSelect[string]().
			Title("Image").
			Options(ImageOptions...).
			Value(&cfg.Image),
	}
	regions := make([]string, len(state.NodeCodes))
	for i, code := range state.NodeCodes {
		regions[i] = defaultRegionFor(code)
		fields = append(fields, huh.NewSelect[string]().
			Title(fmt.Sprintf("Region for %s", code)).
			Options(RegionOptions...).
			Value(&regions[i]))
	}

	err := huh.NewForm(
		huh.NewGroup(fields...).Title("Nodes"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	for i, code := range state.NodeCodes {
		cfg.Regions[code] = regions[i]
	}
	return nil
}

func runAccessGroup(ctx context.Context, cfg *config.Config) error {
	var keyPath string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SSH Public Key Path (Optional)").
				Description("Leave empty to generate a fresh keypair").
				Placeholder("~/.ssh/id_ed25519.pub (or leave empty)").
				Value(&keyPath),
			huh.NewInput().
				Title("Container Registry (Optional)").
				Description("Registry prefix used in the deployment inventory").
				Placeholder("registry.example.com/outpost").
				Value(&cfg.Registry),
		).Title("Access"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	keyPath = strings.TrimSpace(keyPath)
	if keyPath == "" {
		cfg.SSHKeySource = "generate"
	} else {
		cfg.SSHKeySource = keyPath
	}
	return nil
}

func validateDomain(s string) error {
	s = strings.TrimSpace(strings.ToLower(s))
	if !domainRegex.MatchString(s) {
		return fmt.Errorf("enter an apex domain such as example.com")
	}
	return nil
}

func defaultRegionFor(code string) string {
	switch code {
	case state.NodeApp:
		return config.DefaultRegionApp
	case state.NodeOrd:
		return config.DefaultRegionOrd
	case state.NodeIad:
		return config.DefaultRegionIad
	default:
		return config.DefaultRegionSea
	}
}
