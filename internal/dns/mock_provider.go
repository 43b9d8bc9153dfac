package dns

import "context"

// MockProvider is a func-field mock implementation of Provider for
// tests.
type MockProvider struct {
	ZoneIDFunc  func(ctx context.Context, domain string) (string, error)
	RecordsFunc func(ctx context.Context, zoneID string) ([]Record, error)
	CreateFunc  func(ctx context.Context, zoneID string, record Record) (Record, error)
	UpdateFunc  func(ctx context.Context, zoneID, recordID string, record Record) (Record, error)
	DeleteFunc  func(ctx context.Context, zoneID, recordID string) error
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) ZoneID(ctx context.Context, domain string) (string, error) {
	if m.ZoneIDFunc != nil {
		return m.ZoneIDFunc(ctx, domain)
	}
	return "zone-1", nil
}

func (m *MockProvider) Records(ctx context.Context, zoneID string) ([]Record, error) {
	if m.RecordsFunc != nil {
		return m.RecordsFunc(ctx, zoneID)
	}
	return nil, nil
}

func (m *MockProvider) Create(ctx context.Context, zoneID string, record Record) (Record, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, zoneID, record)
	}
	record.ID = "rec-1"
	return record, nil
}

func (m *MockProvider) Update(ctx context.Context, zoneID, recordID string, record Record) (Record, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, zoneID, recordID, record)
	}
	record.ID = recordID
	return record, nil
}

func (m *MockProvider) Delete(ctx context.Context, zoneID, recordID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, zoneID, recordID)
	}
	return nil
}
