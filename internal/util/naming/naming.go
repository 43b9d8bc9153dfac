// Package naming derives deterministic resource names for cluster resources.
//
// The destroyer relies on these names as a label-level fallback when state
// has lost an instance id, so they must be stable across runs for the same
// domain.
package naming

import (
	"fmt"
	"strings"
)

// Cluster returns the cluster identifier derived from the root domain,
// e.g. "example.com" -> "example-com".
func Cluster(rootDomain string) string {
	return strings.ReplaceAll(strings.TrimSpace(rootDomain), ".", "-")
}

// Server returns the deterministic instance label for a node code,
// e.g. ("ord", "example.com") -> "outpost-ord-example-com".
func Server(code, rootDomain string) string {
	return fmt.Sprintf("outpost-%s-%s", code, Cluster(rootDomain))
}

// SSHKey returns the name of the wizard-managed SSH key resource.
func SSHKey(rootDomain string) string {
	return fmt.Sprintf("outpost-%s", Cluster(rootDomain))
}

// FQDN returns the full hostname for a node code under the cluster suffix.
func FQDN(code, suffix string) string {
	return fmt.Sprintf("%s.%s", code, suffix)
}

// RecordName returns the DNS record name for a node code relative to the
// zone apex. When the cluster suffix equals the root domain the record name
// is the bare code; otherwise the sub-suffix is appended,
// e.g. code "ord", suffix "up.example.com", domain "example.com" -> "ord.up".
func RecordName(code, suffix, rootDomain string) string {
	if suffix == rootDomain {
		return code
	}
	sub := strings.TrimSuffix(suffix, "."+rootDomain)
	if sub == suffix || sub == "" {
		return code
	}
	return fmt.Sprintf("%s.%s", code, sub)
}
