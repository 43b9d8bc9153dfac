package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloudflareNameQualification(t *testing.T) {
	p := NewCloudflareProvider(nil, "example.com")

	assert.Equal(t, "example.com", p.qualified("@"))
	assert.Equal(t, "app.example.com", p.qualified("app"))
	assert.Equal(t, "ord.up.example.com", p.qualified("ord.up"))

	assert.Equal(t, "@", p.relative("example.com"))
	assert.Equal(t, "app", p.relative("app.example.com"))
	assert.Equal(t, "ord.up", p.relative("ord.up.example.com"))
}
