// Package compute provides a thin abstraction over the cloud compute API.
//
// The wizard core only ever talks to the Client interface; the Hetzner Cloud
// implementation lives in RealClient and a func-field MockClient backs the
// tests. Provider errors are classified here (transient vs. fatal) so that
// the phase engine never sees a raw provider error.
package compute

import (
	"context"
)

// InstanceStatus is the provider-normalized lifecycle status of an instance.
type InstanceStatus string

// Instance statuses.
const (
	StatusInitializing InstanceStatus = "initializing"
	StatusStarting     InstanceStatus = "starting"
	StatusRunning      InstanceStatus = "running"
	StatusOff          InstanceStatus = "off"
	StatusDeleting     InstanceStatus = "deleting"
	StatusUnknown      InstanceStatus = "unknown"
)

// TerminalFailure reports whether the status means the instance will never
// reach running without operator intervention.
func (s InstanceStatus) TerminalFailure() bool {
	return s == StatusDeleting || s == StatusUnknown
}

// Instance is a provisioned compute instance.
type Instance struct {
	ID         string
	Name       string
	Status     InstanceStatus
	PublicIPv4 string
	Location   string
	ServerType string
	Labels     map[string]string
}

// CreateOpts holds all parameters for creating an instance.
type CreateOpts struct {
	Name       string
	ServerType string
	Image      string
	Location   string
	SSHKeys    []string
	Labels     map[string]string
	UserData   string
}

// Client defines the compute API surface the wizard depends on.
type Client interface {
	// ValidateToken performs a cheap authenticated read to verify the
	// credential is currently authorized.
	ValidateToken(ctx context.Context) error

	// CreateInstance creates a new instance and returns it with its ID
	// assigned. The public address may not be populated yet.
	CreateInstance(ctx context.Context, opts CreateOpts) (*Instance, error)

	// GetInstance returns the instance with the given ID, or ErrNotFound.
	GetInstance(ctx context.Context, id string) (*Instance, error)

	// DeleteInstance deletes the instance with the given ID. Returns
	// ErrNotFound when the instance does not exist.
	DeleteInstance(ctx context.Context, id string) error

	// ListInstancesByLabel returns all instances matching the label selector.
	ListInstancesByLabel(ctx context.Context, selector map[string]string) ([]*Instance, error)

	// CreateSSHKey uploads a public key and returns the resource ID.
	CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (string, error)

	// GetSSHKeyID returns the ID of the named key, or "" when absent.
	GetSSHKeyID(ctx context.Context, name string) (string, error)

	// DeleteSSHKey deletes the key with the given ID. Returns ErrNotFound
	// when the key does not exist.
	DeleteSSHKey(ctx context.Context, id string) error
}
