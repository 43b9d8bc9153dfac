package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/util/naming"
	"github.com/outpost-sh/outpost/internal/util/retry"
)

// Resolver performs hostname lookups for manual-mode verification.
// *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// ConfirmFunc is asked once per manual-mode run whether the operator
// has entered the required records. Returning false holds the phase.
type ConfirmFunc func(ctx context.Context, required []Record) (bool, error)

// Configurator reconciles the cluster's hostnames with the desired
// node addresses. It never deletes or mutates records it does not
// recognize as belonging to the cluster's hostname set.
type Configurator struct {
	provider  Provider
	resolver  Resolver
	confirm   ConfirmFunc
	observer  engine.Observer
	retryOpts []retry.Option
	persist   func(*state.State) error
}

// ConfiguratorOption configures a Configurator.
type ConfiguratorOption func(*Configurator)

// WithResolver overrides the system resolver.
func WithResolver(r Resolver) ConfiguratorOption {
	return func(c *Configurator) { c.resolver = r }
}

// WithConfirm installs the manual-mode confirmation gate.
func WithConfirm(fn ConfirmFunc) ConfiguratorOption {
	return func(c *Configurator) { c.confirm = fn }
}

// WithObserver sets the event sink.
func WithObserver(o engine.Observer) ConfiguratorOption {
	return func(c *Configurator) { c.observer = o }
}

// WithRetryOptions overrides the backoff used for verification lookups.
func WithRetryOptions(opts ...retry.Option) ConfiguratorOption {
	return func(c *Configurator) { c.retryOpts = opts }
}

// WithPersist installs a hook called after each recorded sub-step.
func WithPersist(fn func(*state.State) error) ConfiguratorOption {
	return func(c *Configurator) { c.persist = fn }
}

// NewConfigurator builds a Configurator. Provider may be nil for
// manual-only use.
func NewConfigurator(provider Provider, opts ...ConfiguratorOption) *Configurator {
	c := &Configurator{
		provider: provider,
		resolver: net.DefaultResolver,
		observer: engine.NopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Required returns the A records the cluster needs, one per node, in
// node order.
func Required(st *state.State) []Record {
	records := make([]Record, 0, len(st.DNS))
	for i := range st.DNS {
		entry := &st.DNS[i]
		node := st.Node(entry.NodeCode)
		if node == nil {
			// An entry for a node the topology does not know is
			// rejected by state validation; a caller bypassing the
			// store must not panic here.
			continue
		}
		records = append(records, Record{
			Type:  "A",
			Name:  naming.RecordName(entry.NodeCode, st.Inputs.HostSuffix, st.Inputs.Domain),
			Value: node.PublicIPv4,
			TTL:   RecordTTL,
		})
	}
	return records
}

// Configure implements engine.DNSConfigurator.
func (c *Configurator) Configure(ctx context.Context, st *state.State) error {
	if st.Inputs.DNSMode == state.DNSModeManual {
		return c.configureManual(ctx, st)
	}
	return c.configureManaged(ctx, st)
}

// configureManaged diffs desired records against the zone: missing
// records are created, mismatched ones updated, correct ones left
// untouched. Resulting IDs are recorded in state.
func (c *Configurator) configureManaged(ctx context.Context, st *state.State) error {
	if c.provider == nil {
		return engine.NewValidationError("dns", "no provider configured for managed mode")
	}

	zoneID, err := c.provider.ZoneID(ctx, st.Inputs.Domain)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return engine.NewValidationError("domain",
				fmt.Sprintf("zone for %q not found at the dns provider", st.Inputs.Domain))
		}
		return engine.NewTransientError("resolve zone", err)
	}

	existing, err := c.provider.Records(ctx, zoneID)
	if err != nil {
		return engine.NewTransientError("list records", err)
	}
	byID := make(map[string]Record, len(existing))
	byName := make(map[string]Record, len(existing))
	for _, r := range existing {
		byID[r.ID] = r
		if r.Type == "A" {
			byName[r.Name] = r
		}
	}

	desired := Required(st)
	for i := range st.DNS {
		entry := &st.DNS[i]
		want := desired[i]

		if entry.RecordID != "" {
			current, ok := byID[entry.RecordID]
			if !ok {
				return engine.NewConflictError("record "+entry.Hostname,
					fmt.Sprintf("record %s is recorded in state but no longer exists in the zone", entry.RecordID))
			}
			if current.Value == want.Value && current.TTL == want.TTL {
				engine.LogResourceExists(c.observer, st.Phase, "dns record", entry.Hostname, entry.RecordID)
				continue
			}
			if _, err := c.provider.Update(ctx, zoneID, entry.RecordID, want); err != nil {
				return engine.NewTransientError("update record "+entry.Hostname, err)
			}
			entry.Target = want.Value
			engine.LogResourceCreated(c.observer, st.Phase, "dns record", entry.Hostname, entry.RecordID)
			if err := c.save(st); err != nil {
				return err
			}
			continue
		}

		// Adopt an existing record for the same name rather than
		// creating a duplicate.
		if current, ok := byName[want.Name]; ok {
			entry.RecordID = current.ID
			entry.ZoneID = zoneID
			if current.Value != want.Value || current.TTL != want.TTL {
				if _, err := c.provider.Update(ctx, zoneID, current.ID, want); err != nil {
					return engine.NewTransientError("update record "+entry.Hostname, err)
				}
			}
			entry.Target = want.Value
			engine.LogResourceExists(c.observer, st.Phase, "dns record", entry.Hostname, current.ID)
			if err := c.save(st); err != nil {
				return err
			}
			continue
		}

		engine.LogResourceCreating(c.observer, st.Phase, "dns record", entry.Hostname)
		created, err := c.provider.Create(ctx, zoneID, want)
		if err != nil {
			return engine.NewTransientError("create record "+entry.Hostname, err)
		}
		entry.RecordID = created.ID
		entry.ZoneID = zoneID
		entry.Target = want.Value
		engine.LogResourceCreated(c.observer, st.Phase, "dns record", entry.Hostname, created.ID)
		if err := c.save(st); err != nil {
			return err
		}
	}
	return nil
}

// configureManual emits the required records, blocks on operator
// confirmation, then verifies each hostname resolves to its node
// before marking it verified. A verification failure deletes nothing;
// the phase can simply be retried.
func (c *Configurator) configureManual(ctx context.Context, st *state.State) error {
	required := Required(st)
	for i, r := range required {
		c.observer.Event(engine.Event{
			Type:     engine.EventManualAction,
			Phase:    st.Phase,
			Resource: st.DNS[i].Hostname,
			Message:  fmt.Sprintf("create A record %s -> %s (ttl %d)", r.Name, r.Value, r.TTL),
		})
	}

	if c.confirm == nil {
		return engine.NewValidationError("dns", "manual mode requires a confirmation gate")
	}
	confirmed, err := c.confirm(ctx, required)
	if err != nil {
		return fmt.Errorf("confirming manual records: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("waiting for manual dns records to be created")
	}

	for i := range st.DNS {
		entry := &st.DNS[i]
		if entry.Verified {
			continue
		}
		node := st.Node(entry.NodeCode)
		if err := c.verifyResolution(ctx, entry.Hostname, node.PublicIPv4); err != nil {
			return err
		}
		entry.Verified = true
		entry.Target = node.PublicIPv4
		if err := c.save(st); err != nil {
			return err
		}
	}
	return nil
}

// verifyResolution looks up the hostname with bounded backoff until it
// resolves to the expected address.
func (c *Configurator) verifyResolution(ctx context.Context, hostname, expected string) error {
	opts := c.retryOpts
	if opts == nil {
		opts = []retry.Option{
			retry.WithMaxRetries(5),
			retry.WithInitialDelay(2 * time.Second),
			retry.WithMaxDelay(30 * time.Second),
		}
	}
	err := retry.WithExponentialBackoff(ctx, func() error {
		addrs, err := c.resolver.LookupHost(ctx, hostname)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", hostname, err)
		}
		for _, addr := range addrs {
			if addr == expected {
				return nil
			}
		}
		return fmt.Errorf("%s resolves to %v, expected %s", hostname, addrs, expected)
	}, opts...)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", hostname, err)
	}
	return nil
}

func (c *Configurator) save(st *state.State) error {
	if c.persist == nil {
		return nil
	}
	if err := c.persist(st); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}
	return nil
}
