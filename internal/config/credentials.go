package config

import (
	"fmt"
	"os"
)

// Environment variables holding API credentials. They are read at the
// command boundary and passed down explicitly.
const (
	EnvComputeToken    = "OUTPOST_HCLOUD_TOKEN"
	EnvCloudflareToken = "OUTPOST_CLOUDFLARE_TOKEN"
	EnvHetznerDNSToken = "OUTPOST_HDNS_TOKEN"
	EnvS3AccessKey     = "OUTPOST_S3_ACCESS_KEY"
	EnvS3SecretKey     = "OUTPOST_S3_SECRET_KEY"
)

// ComputeTokenFromEnv returns the compute API token, which is required
// for every provisioning and destroy operation.
func ComputeTokenFromEnv() (string, error) {
	token := os.Getenv(EnvComputeToken)
	if token == "" {
		return "", fmt.Errorf("%s is not set", EnvComputeToken)
	}
	return token, nil
}

// DNSTokenFromEnv returns the token for the given managed DNS mode.
func DNSTokenFromEnv(mode string) (string, error) {
	var env string
	switch mode {
	case "cloudflare":
		env = EnvCloudflareToken
	case "hetzner":
		env = EnvHetznerDNSToken
	default:
		return "", fmt.Errorf("dns mode %q does not use an api token", mode)
	}
	token := os.Getenv(env)
	if token == "" {
		return "", fmt.Errorf("%s is not set", env)
	}
	return token, nil
}

// S3CredentialsFromEnv returns the optional archive mirror credentials.
// Both values are empty when the mirror is unconfigured.
func S3CredentialsFromEnv() (accessKey, secretKey string) {
	return os.Getenv(EnvS3AccessKey), os.Getenv(EnvS3SecretKey)
}
