// Package provision creates the cluster's compute resources and brings
// them to a running state with public addresses.
//
// Idempotency rests on recorded IDs, never on name or label lookup: a
// node with an instance ID is never created again, and an SSH key with
// a recorded ID is reused as-is.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/platform/compute"
	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/util/keygen"
	"github.com/outpost-sh/outpost/internal/util/labels"
	"github.com/outpost-sh/outpost/internal/util/naming"
	"github.com/outpost-sh/outpost/internal/util/retry"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 5 * time.Minute

	privateKeyFileName = "outpost_ed25519"
)

// SSHKeySourceGenerate asks the provisioner to generate a fresh keypair
// instead of reading a public key from a file path.
const SSHKeySourceGenerate = "generate"

// Provisioner drives instance and SSH key creation against the compute
// API.
type Provisioner struct {
	client       compute.Client
	observer     engine.Observer
	pollInterval time.Duration
	pollTimeout  time.Duration
	retryOpts    []retry.Option
	keyDir       string
	persist      func(*state.State) error
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithObserver sets the event sink.
func WithObserver(o engine.Observer) Option {
	return func(p *Provisioner) { p.observer = o }
}

// WithPollInterval sets the status poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(p *Provisioner) { p.pollInterval = d }
}

// WithPollTimeout sets the wall-clock budget for all nodes to reach
// running with an address.
func WithPollTimeout(d time.Duration) Option {
	return func(p *Provisioner) { p.pollTimeout = d }
}

// WithRetryOptions overrides the backoff used for API calls.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(p *Provisioner) { p.retryOpts = opts }
}

// WithKeyDir sets the directory generated private keys are written to.
func WithKeyDir(dir string) Option {
	return func(p *Provisioner) { p.keyDir = dir }
}

// WithPersist installs a hook called after every completed sub-step so
// recorded IDs survive an interruption between sub-steps.
func WithPersist(fn func(*state.State) error) Option {
	return func(p *Provisioner) { p.persist = fn }
}

// New builds a Provisioner over the given compute client.
func New(client compute.Client, opts ...Option) *Provisioner {
	p := &Provisioner{
		client:       client,
		observer:     engine.NopObserver{},
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
		keyDir:       ".",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision implements engine.Provisioner. It ensures the SSH key
// exists, creates every node lacking an instance ID, then polls until
// all nodes are running with public addresses or the budget elapses.
// Addresses discovered before a failure are recorded in state.
func (p *Provisioner) Provision(ctx context.Context, st *state.State) error {
	if err := p.ensureSSHKey(ctx, st); err != nil {
		return err
	}
	if err := p.createMissing(ctx, st); err != nil {
		return err
	}
	return p.pollUntilRunning(ctx, st)
}

// CheckProvisioned implements engine.Provisioner. Every recorded
// instance ID is re-queried upstream; an ID that no longer resolves is
// a conflict requiring manual intervention.
func (p *Provisioner) CheckProvisioned(ctx context.Context, st *state.State) error {
	for i := range st.Nodes {
		node := &st.Nodes[i]
		if node.InstanceID == "" {
			return engine.NewValidationError("nodes",
				fmt.Sprintf("node %q was never created", node.Code))
		}

		inst, err := p.getInstance(ctx, node.InstanceID)
		if err != nil {
			if errors.Is(err, compute.ErrNotFound) {
				return engine.NewConflictError("node "+node.Code,
					fmt.Sprintf("instance %s is recorded in state but no longer exists upstream", node.InstanceID))
			}
			return translate("get instance", err)
		}

		node.Status = string(inst.Status)
		if inst.PublicIPv4 != "" {
			node.PublicIPv4 = inst.PublicIPv4
		}
		if inst.Status != compute.StatusRunning {
			return fmt.Errorf("node %q instance %s is %s, not running", node.Code, node.InstanceID, inst.Status)
		}
	}
	return p.save(st)
}

func (p *Provisioner) ensureSSHKey(ctx context.Context, st *state.State) error {
	if st.SSHKeyID != "" {
		engine.LogResourceExists(p.observer, st.Phase, "ssh key", naming.SSHKey(st.Inputs.Domain), st.SSHKeyID)
		return nil
	}

	name := naming.SSHKey(st.Inputs.Domain)
	cluster := naming.Cluster(st.Inputs.Domain)

	var existing string
	err := p.callAPI(ctx, func() error {
		var apiErr error
		existing, apiErr = p.client.GetSSHKeyID(ctx, name)
		return apiErr
	})
	if err != nil {
		return translate("look up ssh key", err)
	}
	if existing != "" {
		st.SSHKeyID = existing
		engine.LogResourceExists(p.observer, st.Phase, "ssh key", name, existing)
		return p.save(st)
	}

	publicKey, err := p.publicKeyMaterial(st, name)
	if err != nil {
		return err
	}

	engine.LogResourceCreating(p.observer, st.Phase, "ssh key", name)
	var id string
	err = p.callAPI(ctx, func() error {
		var apiErr error
		id, apiErr = p.client.CreateSSHKey(ctx, name, publicKey, labels.Selector(cluster))
		return apiErr
	})
	if err != nil {
		return translate("create ssh key", err)
	}
	st.SSHKeyID = id
	engine.LogResourceCreated(p.observer, st.Phase, "ssh key", name, id)
	return p.save(st)
}

// publicKeyMaterial returns the public key to upload, generating and
// writing a keypair when the operator chose generation.
func (p *Provisioner) publicKeyMaterial(st *state.State, name string) (string, error) {
	source := st.Inputs.SSHKeySource
	if source == "" || source == SSHKeySourceGenerate {
		pair, err := keygen.GenerateED25519(name)
		if err != nil {
			return "", fmt.Errorf("generating ssh keypair: %w", err)
		}
		if err := os.MkdirAll(p.keyDir, 0o700); err != nil {
			return "", fmt.Errorf("creating key directory: %w", err)
		}
		keyPath := filepath.Join(p.keyDir, privateKeyFileName)
		if err := os.WriteFile(keyPath, pair.PrivateKey, 0o600); err != nil {
			return "", fmt.Errorf("writing private key: %w", err)
		}
		if err := os.WriteFile(keyPath+".pub", pair.PublicKey, 0o644); err != nil {
			return "", fmt.Errorf("writing public key: %w", err)
		}
		return string(pair.PublicKey), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", engine.NewValidationError("ssh_key_source",
			fmt.Sprintf("cannot read public key file %s: %v", source, err))
	}
	return string(data), nil
}

// createMissing issues a create call for every node without an instance
// ID. Presence of the ID is the only duplicate guard.
func (p *Provisioner) createMissing(ctx context.Context, st *state.State) error {
	cluster := naming.Cluster(st.Inputs.Domain)
	for i := range st.Nodes {
		node := &st.Nodes[i]
		if node.InstanceID != "" {
			engine.LogResourceExists(p.observer, st.Phase, "instance", node.Label, node.InstanceID)
			continue
		}

		role := labels.RoleProbe
		if node.Code == state.NodeApp {
			role = labels.RoleApp
		}
		opts := compute.CreateOpts{
			Name:       node.Label,
			ServerType: node.ServerType,
			Image:      st.Inputs.Image,
			Location:   node.Region,
			SSHKeys:    []string{st.SSHKeyID},
			Labels:     labels.NewBuilder(cluster).WithRole(role).WithNode(node.Code).Build(),
			UserData:   userData(node, st),
		}

		engine.LogResourceCreating(p.observer, st.Phase, "instance", node.Label)
		var inst *compute.Instance
		err := p.callAPI(ctx, func() error {
			var apiErr error
			inst, apiErr = p.client.CreateInstance(ctx, opts)
			return apiErr
		})
		if err != nil {
			return translate(fmt.Sprintf("create instance for node %q", node.Code), err)
		}

		node.InstanceID = inst.ID
		node.Status = string(inst.Status)
		if inst.PublicIPv4 != "" {
			node.PublicIPv4 = inst.PublicIPv4
		}
		engine.LogResourceCreated(p.observer, st.Phase, "instance", node.Label, inst.ID)
		if err := p.save(st); err != nil {
			return err
		}
	}
	return nil
}

// pollUntilRunning polls every node lacking a running status or an
// address at a fixed interval under a wall-clock budget.
func (p *Provisioner) pollUntilRunning(ctx context.Context, st *state.State) error {
	deadline := time.Now().Add(p.pollTimeout)

	for {
		pending, err := p.pollOnce(ctx, st)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return p.save(st)
		}

		if time.Now().After(deadline) {
			// Addresses already discovered stay recorded.
			if saveErr := p.save(st); saveErr != nil {
				return saveErr
			}
			return fmt.Errorf("nodes %v did not reach running within %v", pending, p.pollTimeout)
		}

		select {
		case <-ctx.Done():
			if saveErr := p.save(st); saveErr != nil {
				return saveErr
			}
			return ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}
}

// pollOnce refreshes status for every unfinished node and returns the
// codes still pending.
func (p *Provisioner) pollOnce(ctx context.Context, st *state.State) ([]string, error) {
	var pending []string
	for i := range st.Nodes {
		node := &st.Nodes[i]
		if node.Provisioned() && node.Status == string(compute.StatusRunning) {
			continue
		}

		inst, err := p.getInstance(ctx, node.InstanceID)
		if err != nil {
			if errors.Is(err, compute.ErrNotFound) {
				return nil, engine.NewConflictError("node "+node.Code,
					fmt.Sprintf("instance %s vanished upstream while waiting for it to start", node.InstanceID))
			}
			return nil, translate("poll instance", err)
		}

		node.Status = string(inst.Status)
		if inst.PublicIPv4 != "" {
			node.PublicIPv4 = inst.PublicIPv4
		}
		if inst.Status.TerminalFailure() {
			return nil, fmt.Errorf("node %q instance %s entered terminal status %s",
				node.Code, node.InstanceID, inst.Status)
		}
		if inst.Status != compute.StatusRunning || node.PublicIPv4 == "" {
			pending = append(pending, node.Code)
		}
	}

	done := len(st.Nodes) - len(pending)
	p.observer.Progress(st.Phase, done, len(st.Nodes))
	return pending, nil
}

func (p *Provisioner) getInstance(ctx context.Context, id string) (*compute.Instance, error) {
	var inst *compute.Instance
	err := p.callAPI(ctx, func() error {
		var apiErr error
		inst, apiErr = p.client.GetInstance(ctx, id)
		return apiErr
	})
	return inst, err
}

// callAPI retries transient provider errors with exponential backoff;
// everything else fails immediately.
func (p *Provisioner) callAPI(ctx context.Context, fn func() error) error {
	return retry.WithExponentialBackoff(ctx, func() error {
		err := fn()
		if err == nil || compute.IsTransient(err) {
			return err
		}
		return retry.Fatal(err)
	}, p.retryOpts...)
}

func (p *Provisioner) save(st *state.State) error {
	if p.persist == nil {
		return nil
	}
	if err := p.persist(st); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}
	return nil
}

// translate maps provider errors into the wizard's error taxonomy.
func translate(op string, err error) error {
	var fatal *retry.FatalError
	if errors.As(err, &fatal) {
		err = fatal.Err
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, compute.ErrNotFound):
		return err
	case compute.IsUnauthorized(err):
		return engine.NewValidationError("api token", "credential rejected by the compute provider")
	case compute.IsInvalidInput(err):
		return engine.NewValidationError(op, err.Error())
	case compute.IsTransient(err):
		return engine.NewTransientError(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
