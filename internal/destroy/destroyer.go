// Package destroy tears down exactly the resources the wizard created,
// in reverse dependency order, and archives the state document for
// forensic replay.
package destroy

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/outpost-sh/outpost/internal/dns"
	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/platform/compute"
	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/util/labels"
	"github.com/outpost-sh/outpost/internal/util/naming"
	"github.com/outpost-sh/outpost/internal/util/retry"
)

// ConfirmationToken must be supplied verbatim before anything is
// deleted.
const ConfirmationToken = "DESTROY"

// ErrNotConfirmed is returned when the confirmation token is missing or
// wrong. Nothing has been touched when it is returned.
var ErrNotConfirmed = errors.New("destroy not confirmed")

// Destroyer deletes cluster resources best-effort: one failure is
// recorded and the remaining resources are still attempted.
type Destroyer struct {
	compute      compute.Client
	dns          dns.Provider
	store        *state.Store
	observer     engine.Observer
	retryOpts    []retry.Option
	deleteSSHKey bool
	mirror       Mirror
}

// Option configures a Destroyer.
type Option func(*Destroyer)

// WithDNSProvider sets the backend used to delete managed records.
func WithDNSProvider(p dns.Provider) Option {
	return func(d *Destroyer) { d.dns = p }
}

// WithObserver sets the event sink.
func WithObserver(o engine.Observer) Option {
	return func(d *Destroyer) { d.observer = o }
}

// WithRetryOptions overrides the backoff used for API calls.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(d *Destroyer) { d.retryOpts = opts }
}

// WithSSHKeyDeletion also removes the wizard-managed SSH key resource.
func WithSSHKeyDeletion() Option {
	return func(d *Destroyer) { d.deleteSSHKey = true }
}

// WithMirror uploads the archived state document off-site once the
// destroy run has archived it.
func WithMirror(m Mirror) Option {
	return func(d *Destroyer) { d.mirror = m }
}

// New builds a Destroyer.
func New(computeClient compute.Client, store *state.Store, opts ...Option) *Destroyer {
	d := &Destroyer{
		compute:  computeClient,
		store:    store,
		observer: engine.NopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Destroy deletes the cluster's resources and archives the state
// document. The token must equal ConfirmationToken; the credential is
// validated before the first deletion. The report lists every resource
// individually.
func (d *Destroyer) Destroy(ctx context.Context, st *state.State, token string) (*Report, error) {
	if token != ConfirmationToken {
		return nil, fmt.Errorf("%w: expected the literal %q", ErrNotConfirmed, ConfirmationToken)
	}

	if err := d.callAPI(ctx, func() error { return d.compute.ValidateToken(ctx) }); err != nil {
		return nil, fmt.Errorf("credential check failed, aborting before any deletion: %w", err)
	}

	report := &Report{}
	d.destroyDNS(ctx, st, report)
	d.destroyNodes(ctx, st, report)
	d.destroySSHKey(ctx, st, report)

	if err := d.store.Save(st); err != nil {
		return report, fmt.Errorf("persisting state after destroy: %w", err)
	}

	// The state is archived even after a partial failure; the archived
	// document keeps the ids of every surviving resource.
	clean := report.Clean()
	archived, err := d.store.Archive()
	if err != nil {
		return report, fmt.Errorf("archiving state: %w", err)
	}
	report.ArchivePath = archived

	if d.mirror != nil {
		if err := d.mirrorArchive(ctx, archived); err != nil {
			// The local archive is authoritative; a mirror failure is
			// reported but does not fail the destroy.
			report.add("archive mirror", "", StatusFailed, err.Error())
		}
	}

	if !clean {
		return report, fmt.Errorf("destroy incomplete: %s", report.Summary())
	}
	return report, nil
}

// destroyDNS deletes every managed record with a recorded ID. Manual
// records belong to the operator and are never touched.
func (d *Destroyer) destroyDNS(ctx context.Context, st *state.State, report *Report) {
	for i := range st.DNS {
		entry := &st.DNS[i]
		resource := "dns record " + entry.Hostname

		if entry.Mode == state.DNSModeManual {
			if entry.Verified {
				report.add(resource, "", StatusSkipped, "manual records are left to the operator")
			}
			continue
		}
		if entry.RecordID == "" {
			continue
		}

		engine.LogResourceDeleting(d.observer, st.Phase, "dns record", entry.Hostname)
		err := d.callDNS(ctx, func() error {
			return d.deleteRecord(ctx, entry.ZoneID, entry.RecordID)
		})
		switch {
		case err == nil:
			report.add(resource, entry.RecordID, StatusDeleted, "")
		case errors.Is(err, dns.ErrNotFound):
			report.add(resource, entry.RecordID, StatusAlreadyGone, "")
		default:
			report.add(resource, entry.RecordID, StatusFailed, err.Error())
			continue
		}
		entry.RecordID = ""
		entry.Verified = false
		engine.LogResourceDeleted(d.observer, st.Phase, "dns record", entry.Hostname)
	}
}

func (d *Destroyer) deleteRecord(ctx context.Context, zoneID, recordID string) error {
	if d.dns == nil {
		return fmt.Errorf("no dns provider configured for managed record deletion")
	}
	return d.dns.Delete(ctx, zoneID, recordID)
}

// destroyNodes deletes each instance by recorded ID, falling back to a
// label lookup only when the ID was lost. An ambiguous label match is a
// failure requiring manual intervention, never a guess.
func (d *Destroyer) destroyNodes(ctx context.Context, st *state.State, report *Report) {
	cluster := naming.Cluster(st.Inputs.Domain)
	for i := range st.Nodes {
		node := &st.Nodes[i]
		resource := "instance " + node.Label

		id := node.InstanceID
		if id == "" {
			matches, err := d.listByLabel(ctx, labels.NodeSelector(cluster, node.Code))
			switch {
			case err != nil:
				report.add(resource, "", StatusFailed, fmt.Sprintf("label lookup failed: %v", err))
				continue
			case len(matches) == 0:
				report.add(resource, "", StatusSkipped, "no recorded id and no labeled instance found")
				continue
			case len(matches) > 1:
				report.add(resource, "", StatusFailed,
					fmt.Sprintf("%d instances match the node labels; delete manually", len(matches)))
				continue
			}
			id = matches[0].ID
		}

		engine.LogResourceDeleting(d.observer, st.Phase, "instance", node.Label)
		err := d.callAPI(ctx, func() error { return d.compute.DeleteInstance(ctx, id) })
		switch {
		case err == nil:
			report.add(resource, id, StatusDeleted, "")
		case errors.Is(err, compute.ErrNotFound):
			report.add(resource, id, StatusAlreadyGone, "")
		default:
			report.add(resource, id, StatusFailed, err.Error())
			continue
		}
		node.InstanceID = ""
		node.PublicIPv4 = ""
		node.Status = ""
		engine.LogResourceDeleted(d.observer, st.Phase, "instance", node.Label)
	}
}

func (d *Destroyer) destroySSHKey(ctx context.Context, st *state.State, report *Report) {
	if st.SSHKeyID == "" {
		return
	}
	name := naming.SSHKey(st.Inputs.Domain)
	resource := "ssh key " + name

	if !d.deleteSSHKey {
		report.add(resource, st.SSHKeyID, StatusSkipped, "kept; pass the ssh key deletion flag to remove it")
		return
	}

	engine.LogResourceDeleting(d.observer, st.Phase, "ssh key", name)
	err := d.callAPI(ctx, func() error { return d.compute.DeleteSSHKey(ctx, st.SSHKeyID) })
	switch {
	case err == nil:
		report.add(resource, st.SSHKeyID, StatusDeleted, "")
	case errors.Is(err, compute.ErrNotFound):
		report.add(resource, st.SSHKeyID, StatusAlreadyGone, "")
	default:
		report.add(resource, st.SSHKeyID, StatusFailed, err.Error())
		return
	}
	st.SSHKeyID = ""
	engine.LogResourceDeleted(d.observer, st.Phase, "ssh key", name)
}

func (d *Destroyer) mirrorArchive(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	return d.mirror.Upload(ctx, path, data)
}

// callAPI retries transient compute provider errors; everything else
// fails immediately.
func (d *Destroyer) callAPI(ctx context.Context, fn func() error) error {
	return d.call(ctx, fn, compute.IsTransient)
}

// callDNS is callAPI for DNS providers, whose transient responses are
// classified by HTTP status rather than hcloud error codes.
func (d *Destroyer) callDNS(ctx context.Context, fn func() error) error {
	return d.call(ctx, fn, dns.IsTransient)
}

func (d *Destroyer) call(ctx context.Context, fn func() error, transient func(error) bool) error {
	err := retry.WithExponentialBackoff(ctx, func() error {
		err := fn()
		if err == nil || transient(err) {
			return err
		}
		return retry.Fatal(err)
	}, d.retryOpts...)
	var fatal *retry.FatalError
	if errors.As(err, &fatal) {
		return fatal.Err
	}
	return err
}

func (d *Destroyer) listByLabel(ctx context.Context, selector map[string]string) ([]*compute.Instance, error) {
	var matches []*compute.Instance
	err := d.callAPI(ctx, func() error {
		var apiErr error
		matches, apiErr = d.compute.ListInstancesByLabel(ctx, selector)
		return apiErr
	})
	return matches, err
}
