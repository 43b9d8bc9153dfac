package compute

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// RealClient implements Client using the Hetzner Cloud API.
type RealClient struct {
	client *hcloud.Client
}

// NewRealClient creates a new RealClient.
func NewRealClient(token string) *RealClient {
	return &RealClient{
		client: hcloud.NewClient(hcloud.WithToken(token)),
	}
}

var _ Client = (*RealClient)(nil)

// ValidateToken performs a cheap authenticated read against the API.
func (c *RealClient) ValidateToken(ctx context.Context) error {
	if _, err := c.client.Location.All(ctx); err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}
	return nil
}

// CreateInstance creates a new server with the given specifications.
func (c *RealClient) CreateInstance(ctx context.Context, opts CreateOpts) (*Instance, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, opts.ServerType)
	if err != nil {
		return nil, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return nil, fmt.Errorf("server type not found: %s", opts.ServerType)
	}

	image, _, err := c.client.Image.GetForArchitecture(ctx, opts.Image, serverType.Architecture)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return nil, fmt.Errorf("image not found: %s", opts.Image)
	}

	location, _, err := c.client.Location.Get(ctx, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", opts.Location, err)
	}
	if location == nil {
		return nil, fmt.Errorf("location not found: %s", opts.Location)
	}

	var sshKeys []*hcloud.SSHKey
	for _, key := range opts.SSHKeys {
		keyObj, _, err := c.client.SSHKey.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh key %s: %w", key, err)
		}
		if keyObj == nil {
			return nil, fmt.Errorf("ssh key not found: %s", key)
		}
		sshKeys = append(sshKeys, keyObj)
	}

	result, _, err := c.client.Server.Create(ctx, hcloud.ServerCreateOpts{
		Name:       opts.Name,
		ServerType: serverType,
		Image:      image,
		Location:   location,
		SSHKeys:    sshKeys,
		Labels:     opts.Labels,
		UserData:   opts.UserData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return toInstance(result.Server), nil
}

// GetInstance returns the server with the given ID.
func (c *RealClient) GetInstance(ctx context.Context, id string) (*Instance, error) {
	serverID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid instance id %q: %w", id, err)
	}

	server, _, err := c.client.Server.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", id, err)
	}
	if server == nil {
		return nil, fmt.Errorf("server %s: %w", id, ErrNotFound)
	}
	return toInstance(server), nil
}

// DeleteInstance deletes the server with the given ID.
func (c *RealClient) DeleteInstance(ctx context.Context, id string) error {
	serverID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid instance id %q: %w", id, err)
	}

	server, _, err := c.client.Server.GetByID(ctx, serverID)
	if err != nil {
		return fmt.Errorf("failed to get server %s: %w", id, err)
	}
	if server == nil {
		return fmt.Errorf("server %s: %w", id, ErrNotFound)
	}

	if _, _, err := c.client.Server.DeleteWithResult(ctx, server); err != nil {
		return fmt.Errorf("failed to delete server %s: %w", id, err)
	}
	return nil
}

// ListInstancesByLabel returns all servers matching the label selector.
func (c *RealClient) ListInstancesByLabel(ctx context.Context, selector map[string]string) ([]*Instance, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: buildLabelSelector(selector)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	instances := make([]*Instance, 0, len(servers))
	for _, s := range servers {
		instances = append(instances, toInstance(s))
	}
	return instances, nil
}

// CreateSSHKey uploads a public key.
func (c *RealClient) CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (string, error) {
	key, _, err := c.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    labels,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create ssh key: %w", err)
	}
	return strconv.FormatInt(key.ID, 10), nil
}

// GetSSHKeyID returns the ID of the named key, or "" when absent.
func (c *RealClient) GetSSHKeyID(ctx context.Context, name string) (string, error) {
	key, _, err := c.client.SSHKey.GetByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to get ssh key %s: %w", name, err)
	}
	if key == nil {
		return "", nil
	}
	return strconv.FormatInt(key.ID, 10), nil
}

// DeleteSSHKey deletes the key with the given ID.
func (c *RealClient) DeleteSSHKey(ctx context.Context, id string) error {
	keyID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ssh key id %q: %w", id, err)
	}

	key, _, err := c.client.SSHKey.GetByID(ctx, keyID)
	if err != nil {
		return fmt.Errorf("failed to get ssh key %s: %w", id, err)
	}
	if key == nil {
		return fmt.Errorf("ssh key %s: %w", id, ErrNotFound)
	}

	if _, err := c.client.SSHKey.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete ssh key %s: %w", id, err)
	}
	return nil
}

// toInstance converts an hcloud server into the provider-neutral Instance.
func toInstance(s *hcloud.Server) *Instance {
	inst := &Instance{
		ID:     strconv.FormatInt(s.ID, 10),
		Name:   s.Name,
		Status: InstanceStatus(s.Status),
		Labels: s.Labels,
	}
	if s.PublicNet.IPv4.IP != nil && !s.PublicNet.IPv4.IP.IsUnspecified() {
		inst.PublicIPv4 = s.PublicNet.IPv4.IP.String()
	}
	if s.Datacenter != nil && s.Datacenter.Location != nil {
		inst.Location = s.Datacenter.Location.Name
	}
	if s.ServerType != nil {
		inst.ServerType = s.ServerType.Name
	}
	return inst
}

// buildLabelSelector converts a label map into the API selector syntax,
// sorted for deterministic output.
func buildLabelSelector(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
