package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outpost-sh/outpost/internal/state"
)

func TestValidateDomain(t *testing.T) {
	valid := []string{"example.com", "sub.example.com", "a-b.co", "example.io"}
	for _, d := range valid {
		assert.NoError(t, validateDomain(d), d)
	}

	invalid := []string{"", "localhost", "example", ".example.com", "example..com", "-bad.com"}
	for _, d := range invalid {
		assert.Error(t, validateDomain(d), d)
	}
}

func TestDefaultRegionFor(t *testing.T) {
	assert.Equal(t, "ash", defaultRegionFor(state.NodeApp))
	assert.Equal(t, "ash", defaultRegionFor(state.NodeOrd))
	assert.Equal(t, "ash", defaultRegionFor(state.NodeIad))
	assert.Equal(t, "hil", defaultRegionFor(state.NodeSea))
}

func TestOptionValuesAreWellFormed(t *testing.T) {
	for _, opt := range ServerTypeOptions {
		assert.NotEmpty(t, opt.Value)
	}
	for _, opt := range RegionOptions {
		assert.NotEmpty(t, opt.Value)
	}
	for _, opt := range ImageOptions {
		assert.NotEmpty(t, opt.Value)
	}
}
