package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-sh/outpost/internal/state"
)

func validConfig() *Config {
	c := &Config{Domain: "example.com", DNSMode: "cloudflare"}
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := &Config{Domain: "example.com"}
	c.ApplyDefaults()

	assert.Equal(t, "example.com", c.HostSuffix)
	assert.Equal(t, string(state.DNSModeManual), c.DNSMode)
	assert.Equal(t, DefaultServerType, c.ServerType)
	assert.Equal(t, DefaultImage, c.Image)
	assert.Equal(t, "generate", c.SSHKeySource)
	assert.Equal(t, "ash", c.Regions[state.NodeApp])
	assert.Equal(t, "hil", c.Regions[state.NodeSea])
	assert.Equal(t, "https", c.Deploy.Scheme)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := &Config{
		Domain:     "example.com",
		HostSuffix: "up.example.com",
		DNSMode:    "hetzner",
		ServerType: "cpx21",
		Regions:    map[string]string{state.NodeApp: "fsn1"},
	}
	c.ApplyDefaults()

	assert.Equal(t, "up.example.com", c.HostSuffix)
	assert.Equal(t, "hetzner", c.DNSMode)
	assert.Equal(t, "cpx21", c.ServerType)
	assert.Equal(t, "fsn1", c.Regions[state.NodeApp])
	assert.Equal(t, "ash", c.Regions[state.NodeOrd])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing domain", func(c *Config) { c.Domain = "" }, "domain is required"},
		{"bare word domain", func(c *Config) { c.Domain = "localhost" }, "not a valid apex domain"},
		{"unrelated suffix", func(c *Config) { c.HostSuffix = "other.net" }, "subdomain"},
		{"bad dns mode", func(c *Config) { c.DNSMode = "route53" }, "dns_mode"},
		{"missing region", func(c *Config) { delete(c.Regions, state.NodeIad) }, `node "iad"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToInputsCopiesRegions(t *testing.T) {
	c := validConfig()
	inputs := c.ToInputs()

	assert.Equal(t, state.DNSModeCloudflare, inputs.DNSMode)
	inputs.Regions[state.NodeApp] = "changed"
	assert.NotEqual(t, "changed", c.Regions[state.NodeApp], "inputs hold an independent copy")
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
domain: example.com
host_suffix: up.example.com
dns_mode: hetzner
server_type: cpx21
regions:
  app: fsn1
registry: registry.example.com/outpost
deploy:
  command: ["make", "deploy"]
  scheme: http
archive:
  s3_bucket: outpost-archives
  s3_region: us-east-1
`))
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.Domain)
	assert.Equal(t, "up.example.com", cfg.HostSuffix)
	assert.Equal(t, "hetzner", cfg.DNSMode)
	assert.Equal(t, "cpx21", cfg.ServerType)
	assert.Equal(t, "fsn1", cfg.Regions[state.NodeApp])
	assert.Equal(t, "ash", cfg.Regions[state.NodeOrd], "unset regions receive defaults")
	assert.Equal(t, []string{"make", "deploy"}, cfg.Deploy.Command)
	assert.Equal(t, "http", cfg.Deploy.Scheme)
	assert.Equal(t, "outpost-archives", cfg.Archive.S3Bucket)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("domain: example.com\ndns_mode: route53\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	_, err = Parse([]byte("{not yaml"))
	assert.Error(t, err)
}
