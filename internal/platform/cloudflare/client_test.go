package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// rewriteTransport rewrites request URLs to point at the test server.
type rewriteTransport struct {
	base    string
	wrapped http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.base, "http://")
	return t.wrapped.RoundTrip(req)
}

func testClient(srv *httptest.Server) *Client {
	c := NewClient("test-token")
	c.httpClient = &http.Client{
		Transport: &rewriteTransport{base: srv.URL, wrapped: http.DefaultTransport},
	}
	return c
}

func TestGetZoneID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "example.com" {
			t.Errorf("unexpected domain: %s", r.URL.Query().Get("name"))
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(apiResponse{
			Success: true,
			Result:  json.RawMessage(`[{"id":"zone-123"}]`),
		})
	}))
	defer srv.Close()

	id, err := testClient(srv).GetZoneID(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "zone-123" {
		t.Errorf("expected zone-123, got %s", id)
	}
}

func TestGetZoneID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(apiResponse{
			Success: true,
			Result:  json.RawMessage(`[]`),
		})
	}))
	defer srv.Close()

	_, err := testClient(srv).GetZoneID(context.Background(), "notfound.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDNSRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var rec Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if rec.Type != "A" || rec.Name != "app.example.com" || rec.Content != "203.0.113.1" {
			t.Errorf("unexpected record payload: %+v", rec)
		}
		rec.ID = "rec-1"
		raw, _ := json.Marshal(rec)
		_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Result: raw})
	}))
	defer srv.Close()

	created, err := testClient(srv).CreateDNSRecord(context.Background(), "zone-123", Record{
		Type: "A", Name: "app.example.com", Content: "203.0.113.1", TTL: 120,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "rec-1" {
		t.Errorf("expected rec-1, got %s", created.ID)
	}
}

func TestUpdateDNSRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/dns_records/rec-1") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(apiResponse{
			Success: true,
			Result:  json.RawMessage(`{"id":"rec-1","type":"A","name":"app.example.com","content":"203.0.113.9"}`),
		})
	}))
	defer srv.Close()

	updated, err := testClient(srv).UpdateDNSRecord(context.Background(), "zone-123", "rec-1", Record{
		Type: "A", Name: "app.example.com", Content: "203.0.113.9", TTL: 120,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Content != "203.0.113.9" {
		t.Errorf("expected updated content, got %s", updated.Content)
	}
}

func TestDeleteDNSRecord_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := testClient(srv).DeleteDNSRecord(context.Background(), "zone-123", "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDNSRecords_Pagination(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		page := r.URL.Query().Get("page")
		var records []Record
		if page == "1" || page == "" {
			records = []Record{{ID: "r1", Type: "A", Name: "a.example.com"}}
		} else {
			records = []Record{{ID: "r2", Type: "A", Name: "b.example.com"}}
		}
		_ = json.NewEncoder(w).Encode(listResponse{
			Success:    true,
			Result:     records,
			ResultInfo: resultInfo{Page: callCount, TotalPages: 2},
		})
	}))
	defer srv.Close()

	records, err := testClient(srv).ListDNSRecords(context.Background(), "zone-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}
