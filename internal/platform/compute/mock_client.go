package compute

import (
	"context"
)

// MockClient is a func-field mock implementation of Client for tests.
// Each method delegates to its corresponding func field when set, and
// returns a benign default otherwise.
type MockClient struct {
	ValidateTokenFunc        func(ctx context.Context) error
	CreateInstanceFunc       func(ctx context.Context, opts CreateOpts) (*Instance, error)
	GetInstanceFunc          func(ctx context.Context, id string) (*Instance, error)
	DeleteInstanceFunc       func(ctx context.Context, id string) error
	ListInstancesByLabelFunc func(ctx context.Context, selector map[string]string) ([]*Instance, error)
	CreateSSHKeyFunc         func(ctx context.Context, name, publicKey string, labels map[string]string) (string, error)
	GetSSHKeyIDFunc          func(ctx context.Context, name string) (string, error)
	DeleteSSHKeyFunc         func(ctx context.Context, id string) error
}

var _ Client = (*MockClient)(nil)

// ValidateToken mocks credential validation.
func (m *MockClient) ValidateToken(ctx context.Context) error {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx)
	}
	return nil
}

// CreateInstance mocks instance creation.
func (m *MockClient) CreateInstance(ctx context.Context, opts CreateOpts) (*Instance, error) {
	if m.CreateInstanceFunc != nil {
		return m.CreateInstanceFunc(ctx, opts)
	}
	return &Instance{ID: "1", Name: opts.Name, Status: StatusInitializing, Labels: opts.Labels}, nil
}

// GetInstance mocks instance lookup.
func (m *MockClient) GetInstance(ctx context.Context, id string) (*Instance, error) {
	if m.GetInstanceFunc != nil {
		return m.GetInstanceFunc(ctx, id)
	}
	return &Instance{ID: id, Status: StatusRunning, PublicIPv4: "192.0.2.1"}, nil
}

// DeleteInstance mocks instance deletion.
func (m *MockClient) DeleteInstance(ctx context.Context, id string) error {
	if m.DeleteInstanceFunc != nil {
		return m.DeleteInstanceFunc(ctx, id)
	}
	return nil
}

// ListInstancesByLabel mocks label-based lookup.
func (m *MockClient) ListInstancesByLabel(ctx context.Context, selector map[string]string) ([]*Instance, error) {
	if m.ListInstancesByLabelFunc != nil {
		return m.ListInstancesByLabelFunc(ctx, selector)
	}
	return nil, nil
}

// CreateSSHKey mocks key upload.
func (m *MockClient) CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (string, error) {
	if m.CreateSSHKeyFunc != nil {
		return m.CreateSSHKeyFunc(ctx, name, publicKey, labels)
	}
	return "100", nil
}

// GetSSHKeyID mocks key lookup.
func (m *MockClient) GetSSHKeyID(ctx context.Context, name string) (string, error) {
	if m.GetSSHKeyIDFunc != nil {
		return m.GetSSHKeyIDFunc(ctx, name)
	}
	return "", nil
}

// DeleteSSHKey mocks key deletion.
func (m *MockClient) DeleteSSHKey(ctx context.Context, id string) error {
	if m.DeleteSSHKeyFunc != nil {
		return m.DeleteSSHKeyFunc(ctx, id)
	}
	return nil
}
