// Package labels provides consistent labeling utilities for cloud resources.
//
// Every resource created by the wizard carries the same label set so that
// resources belonging to one cluster can be identified and listed. During
// destroy the labels double as a last-resort lookup when the recorded
// instance id has been lost.
//
// Standard label keys use the outpost.sh domain prefix for namespacing.
package labels

// Standard label keys.
const (
	// KeyCluster identifies which cluster a resource belongs to.
	KeyCluster = "outpost.sh/cluster"

	// KeyRole identifies the role of a node (app, probe).
	KeyRole = "outpost.sh/role"

	// KeyNode identifies the node code within the cluster (app, ord, iad, sea).
	KeyNode = "outpost.sh/node"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "outpost.sh/managed-by"
)

// Role values.
const (
	RoleApp   = "app"
	RoleProbe = "probe"
)

// ManagedByOutpost is the value of KeyManagedBy for wizard-created resources.
const ManagedByOutpost = "outpost"

// Builder provides a fluent interface for building resource labels.
type Builder struct {
	labels map[string]string
}

// NewBuilder creates a label builder with the cluster name pre-set.
func NewBuilder(cluster string) *Builder {
	return &Builder{
		labels: map[string]string{
			KeyCluster:   cluster,
			KeyManagedBy: ManagedByOutpost,
		},
	}
}

// WithRole adds a role label ("app" or "probe").
func (b *Builder) WithRole(role string) *Builder {
	b.labels[KeyRole] = role
	return b
}

// WithNode adds the node code label.
func (b *Builder) WithNode(code string) *Builder {
	b.labels[KeyNode] = code
	return b
}

// Merge adds arbitrary extra labels, overwriting on key collision.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		b.labels[k] = v
	}
	return b
}

// Build returns the assembled label map.
func (b *Builder) Build() map[string]string {
	out := make(map[string]string, len(b.labels))
	for k, v := range b.labels {
		out[k] = v
	}
	return out
}

// Selector returns the labels identifying all resources of a cluster.
func Selector(cluster string) map[string]string {
	return map[string]string{
		KeyCluster:   cluster,
		KeyManagedBy: ManagedByOutpost,
	}
}

// NodeSelector returns the labels identifying a single node of a cluster.
func NodeSelector(cluster, code string) map[string]string {
	sel := Selector(cluster)
	sel[KeyNode] = code
	return sel
}
