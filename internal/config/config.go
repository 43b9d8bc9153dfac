// Package config defines the operator-facing configuration, its
// defaults and validation, and the deployment inventory writer.
//
// API credentials are deliberately absent from Config: they are read
// from the environment once per invocation and threaded into the
// components that need them, never persisted.
package config

import (
	"fmt"
	"strings"

	"github.com/outpost-sh/outpost/internal/state"
)

// Default selections applied when the config file or wizard leaves a
// field empty.
const (
	DefaultServerType  = "cpx11"
	DefaultImage       = "debian-12"
	DefaultStateDir    = "."
	DefaultProbeScheme = "https"
	DefaultDNSMode     = state.DNSModeManual
	DefaultRegionApp   = "ash"
	DefaultRegionOrd   = "ash"
	DefaultRegionIad   = "ash"
	DefaultRegionSea   = "hil"
)

// Config is the full operator configuration.
type Config struct {
	Domain       string            `yaml:"domain"`
	HostSuffix   string            `yaml:"host_suffix"`
	DNSMode      string            `yaml:"dns_mode"`
	ServerType   string            `yaml:"server_type"`
	Image        string            `yaml:"image"`
	Regions      map[string]string `yaml:"regions"`
	Registry     string            `yaml:"registry"`
	SSHKeySource string            `yaml:"ssh_key_source"`
	StateDir     string            `yaml:"state_dir"`
	Deploy       DeployConfig      `yaml:"deploy"`
	Archive      ArchiveConfig     `yaml:"archive"`
}

// DeployConfig controls the optional deploy trigger and verification.
type DeployConfig struct {
	Command []string `yaml:"command"`
	Dir     string   `yaml:"dir"`
	Scheme  string   `yaml:"scheme"`
}

// ArchiveConfig points at an optional S3-compatible bucket that mirrors
// destroyed-state archives. Credentials come from the environment.
type ArchiveConfig struct {
	S3Endpoint string `yaml:"s3_endpoint"`
	S3Region   string `yaml:"s3_region"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
}

// ApplyDefaults fills empty fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.HostSuffix == "" {
		c.HostSuffix = c.Domain
	}
	if c.DNSMode == "" {
		c.DNSMode = string(DefaultDNSMode)
	}
	if c.ServerType == "" {
		c.ServerType = DefaultServerType
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.SSHKeySource == "" {
		c.SSHKeySource = "generate"
	}
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir
	}
	if c.Deploy.Scheme == "" {
		c.Deploy.Scheme = DefaultProbeScheme
	}
	if c.Regions == nil {
		c.Regions = map[string]string{}
	}
	defaults := map[string]string{
		state.NodeApp: DefaultRegionApp,
		state.NodeOrd: DefaultRegionOrd,
		state.NodeIad: DefaultRegionIad,
		state.NodeSea: DefaultRegionSea,
	}
	for code, region := range defaults {
		if c.Regions[code] == "" {
			c.Regions[code] = region
		}
	}
}

// Validate checks the configuration for use by the wizard.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	if !strings.Contains(c.Domain, ".") || strings.HasPrefix(c.Domain, ".") || strings.HasSuffix(c.Domain, ".") {
		return fmt.Errorf("domain %q is not a valid apex domain", c.Domain)
	}
	if c.HostSuffix != c.Domain && !strings.HasSuffix(c.HostSuffix, "."+c.Domain) {
		return fmt.Errorf("host_suffix %q must be the domain or a subdomain of it", c.HostSuffix)
	}
	if !state.DNSMode(c.DNSMode).Valid() {
		return fmt.Errorf("dns_mode %q is not one of cloudflare, hetzner, manual", c.DNSMode)
	}
	if c.ServerType == "" {
		return fmt.Errorf("server_type is required")
	}
	if c.Image == "" {
		return fmt.Errorf("image is required")
	}
	for _, code := range state.NodeCodes {
		if c.Regions[code] == "" {
			return fmt.Errorf("no region configured for node %q", code)
		}
	}
	return nil
}

// ToInputs freezes the configuration into the persisted input set.
func (c *Config) ToInputs() state.Inputs {
	regions := make(map[string]string, len(c.Regions))
	for k, v := range c.Regions {
		regions[k] = v
	}
	return state.Inputs{
		Domain:       c.Domain,
		HostSuffix:   c.HostSuffix,
		DNSMode:      state.DNSMode(c.DNSMode),
		ServerType:   c.ServerType,
		Image:        c.Image,
		Regions:      regions,
		Registry:     c.Registry,
		SSHKeySource: c.SSHKeySource,
	}
}
