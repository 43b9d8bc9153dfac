// Package dns publishes cluster hostnames. Managed modes reconcile
// records through a provider API; manual mode emits the required
// records and verifies operator-entered ones by resolution.
package dns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/outpost-sh/outpost/internal/platform/cloudflare"
	"github.com/outpost-sh/outpost/internal/platform/hdns"
)

// RecordTTL is applied to every record the wizard manages.
const RecordTTL = 120

// ErrNotFound is returned when a zone or record does not exist.
var ErrNotFound = errors.New("dns: not found")

// IsTransient reports whether err is a provider response worth
// retrying, rate limiting or a server-side failure.
func IsTransient(err error) bool {
	var cfErr *cloudflare.StatusError
	if errors.As(err, &cfErr) {
		return cfErr.Transient()
	}
	var hdnsErr *hdns.StatusError
	if errors.As(err, &hdnsErr) {
		return hdnsErr.Transient()
	}
	return false
}

// Record is a provider-neutral A record. Name is relative to the zone
// apex ("@" for the apex itself).
type Record struct {
	ID    string
	Type  string
	Name  string
	Value string
	TTL   int
}

// Provider abstracts a managed DNS backend.
type Provider interface {
	// ZoneID resolves the zone for the given apex domain, or ErrNotFound.
	ZoneID(ctx context.Context, domain string) (string, error)

	// Records lists all records in the zone.
	Records(ctx context.Context, zoneID string) ([]Record, error)

	// Create creates a record and returns it with its assigned ID.
	Create(ctx context.Context, zoneID string, record Record) (Record, error)

	// Update replaces the record with the given ID.
	Update(ctx context.Context, zoneID, recordID string, record Record) (Record, error)

	// Delete removes the record with the given ID, or ErrNotFound.
	Delete(ctx context.Context, zoneID, recordID string) error
}

// CloudflareProvider adapts the Cloudflare API, which addresses records
// by fully qualified name.
type CloudflareProvider struct {
	client *cloudflare.Client
	domain string
}

// NewCloudflareProvider wraps a Cloudflare client for the given apex
// domain.
func NewCloudflareProvider(client *cloudflare.Client, domain string) *CloudflareProvider {
	return &CloudflareProvider{client: client, domain: domain}
}

func (p *CloudflareProvider) ZoneID(ctx context.Context, domain string) (string, error) {
	id, err := p.client.GetZoneID(ctx, domain)
	if errors.Is(err, cloudflare.ErrNotFound) {
		return "", fmt.Errorf("zone %q: %w", domain, ErrNotFound)
	}
	return id, err
}

func (p *CloudflareProvider) Records(ctx context.Context, zoneID string) ([]Record, error) {
	records, err := p.client.ListDNSRecords(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, Record{
			ID:    r.ID,
			Type:  r.Type,
			Name:  p.relative(r.Name),
			Value: r.Content,
			TTL:   r.TTL,
		})
	}
	return out, nil
}

func (p *CloudflareProvider) Create(ctx context.Context, zoneID string, record Record) (Record, error) {
	created, err := p.client.CreateDNSRecord(ctx, zoneID, p.toAPI(record))
	if err != nil {
		return Record{}, err
	}
	record.ID = created.ID
	return record, nil
}

func (p *CloudflareProvider) Update(ctx context.Context, zoneID, recordID string, record Record) (Record, error) {
	updated, err := p.client.UpdateDNSRecord(ctx, zoneID, recordID, p.toAPI(record))
	if err != nil {
		return Record{}, err
	}
	record.ID = updated.ID
	return record, nil
}

func (p *CloudflareProvider) Delete(ctx context.Context, zoneID, recordID string) error {
	err := p.client.DeleteDNSRecord(ctx, zoneID, recordID)
	if errors.Is(err, cloudflare.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (p *CloudflareProvider) toAPI(record Record) cloudflare.Record {
	return cloudflare.Record{
		Type:    record.Type,
		Name:    p.qualified(record.Name),
		Content: record.Value,
		TTL:     record.TTL,
	}
}

func (p *CloudflareProvider) qualified(relative string) string {
	if relative == "@" || relative == "" {
		return p.domain
	}
	return relative + "." + p.domain
}

func (p *CloudflareProvider) relative(qualified string) string {
	if qualified == p.domain {
		return "@"
	}
	return strings.TrimSuffix(qualified, "."+p.domain)
}

// HetznerProvider adapts the Hetzner DNS API, which already uses
// apex-relative record names.
type HetznerProvider struct {
	client *hdns.Client
}

// NewHetznerProvider wraps a Hetzner DNS client.
func NewHetznerProvider(client *hdns.Client) *HetznerProvider {
	return &HetznerProvider{client: client}
}

func (p *HetznerProvider) ZoneID(ctx context.Context, domain string) (string, error) {
	id, err := p.client.GetZoneID(ctx, domain)
	if errors.Is(err, hdns.ErrNotFound) {
		return "", fmt.Errorf("zone %q: %w", domain, ErrNotFound)
	}
	return id, err
}

func (p *HetznerProvider) Records(ctx context.Context, zoneID string) ([]Record, error) {
	records, err := p.client.ListRecords(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, Record{ID: r.ID, Type: r.Type, Name: r.Name, Value: r.Value, TTL: r.TTL})
	}
	return out, nil
}

func (p *HetznerProvider) Create(ctx context.Context, zoneID string, record Record) (Record, error) {
	created, err := p.client.CreateRecord(ctx, zoneID, hdns.Record{
		Type: record.Type, Name: record.Name, Value: record.Value, TTL: record.TTL,
	})
	if err != nil {
		return Record{}, err
	}
	record.ID = created.ID
	return record, nil
}

func (p *HetznerProvider) Update(ctx context.Context, zoneID, recordID string, record Record) (Record, error) {
	updated, err := p.client.UpdateRecord(ctx, zoneID, recordID, hdns.Record{
		Type: record.Type, Name: record.Name, Value: record.Value, TTL: record.TTL,
	})
	if err != nil {
		return Record{}, err
	}
	record.ID = updated.ID
	return record, nil
}

func (p *HetznerProvider) Delete(ctx context.Context, _, recordID string) error {
	err := p.client.DeleteRecord(ctx, recordID)
	if errors.Is(err, hdns.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

var (
	_ Provider = (*CloudflareProvider)(nil)
	_ Provider = (*HetznerProvider)(nil)
)
