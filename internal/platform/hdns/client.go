// Package hdns provides a minimal Hetzner DNS API client covering the
// zone and record operations needed to manage cluster hostnames.
package hdns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const baseURL = "https://dns.hetzner.com/api/v1"

// ErrNotFound is returned when a zone or record does not exist.
var ErrNotFound = errors.New("hdns: not found")

// StatusError is a non-2xx API response other than 404.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Transient reports whether the response indicates rate limiting or a
// server-side failure.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is a Hetzner DNS API client.
type Client struct {
	apiToken   string
	httpClient *http.Client
}

// Record represents a DNS record. Name is relative to the zone apex,
// with "@" denoting the apex itself.
type Record struct {
	ID     string `json:"id,omitempty"`
	ZoneID string `json:"zone_id,omitempty"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	TTL    int    `json:"ttl"`
}

type zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type zonesResponse struct {
	Zones []zone `json:"zones"`
}

type recordsResponse struct {
	Records []Record `json:"records"`
}

type recordResponse struct {
	Record Record `json:"record"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// NewClient creates a new Hetzner DNS API client.
func NewClient(apiToken string) *Client {
	return &Client{
		apiToken:   apiToken,
		httpClient: &http.Client{},
	}
}

// GetZoneID looks up the zone ID for the given domain name.
func (c *Client) GetZoneID(ctx context.Context, domain string) (string, error) {
	endpoint := "/zones?name=" + url.QueryEscape(domain)
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var resp zonesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parsing zones response: %w", err)
	}
	for _, z := range resp.Zones {
		if z.Name == domain {
			return z.ID, nil
		}
	}
	return "", fmt.Errorf("zone %q: %w", domain, ErrNotFound)
}

// ListRecords returns all records in the given zone.
func (c *Client) ListRecords(ctx context.Context, zoneID string) ([]Record, error) {
	endpoint := "/records?zone_id=" + url.QueryEscape(zoneID)
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp recordsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing records response: %w", err)
	}
	return resp.Records, nil
}

// CreateRecord creates a record in the given zone and returns it with
// its assigned ID.
func (c *Client) CreateRecord(ctx context.Context, zoneID string, record Record) (Record, error) {
	record.ZoneID = zoneID
	body, err := c.do(ctx, http.MethodPost, "/records", record)
	if err != nil {
		return Record{}, err
	}

	var resp recordResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Record{}, fmt.Errorf("parsing record response: %w", err)
	}
	return resp.Record, nil
}

// UpdateRecord replaces the record with the given ID.
func (c *Client) UpdateRecord(ctx context.Context, zoneID, recordID string, record Record) (Record, error) {
	record.ZoneID = zoneID
	body, err := c.do(ctx, http.MethodPut, "/records/"+url.PathEscape(recordID), record)
	if err != nil {
		return Record{}, err
	}

	var resp recordResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Record{}, fmt.Errorf("parsing record response: %w", err)
	}
	return resp.Record, nil
}

// DeleteRecord deletes the record with the given ID. Returns ErrNotFound
// if the record does not exist.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/records/"+url.PathEscape(recordID), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Auth-API-Token", c.apiToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%s %s: authentication failed (status %d)", method, endpoint, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			statusErr.Message = errResp.Error.Message
		}
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, statusErr)
	}
	return body, nil
}
