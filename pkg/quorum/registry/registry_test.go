package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
)

func testConfigs() []ModelConfig {
	return []ModelConfig{
		{ID: "alpha", Endpoint: "https://a.example.com/v1", Model: "gpt-4o"},
		{ID: "bravo", Endpoint: "https://b.example.com/v1", Model: "claude-sonnet"},
		{ID: "charlie", Endpoint: "https://c.example.com/v1", Model: "llama-70b"},
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New([]ModelConfig{{ID: ""}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, qerrors.ErrInvalidConfig))

	_, err = New([]ModelConfig{{ID: "dup"}, {ID: "dup"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, qerrors.ErrInvalidConfig))
}

func TestOrderingAndLookup(t *testing.T) {
	r, err := New(testConfigs())
	require.NoError(t, err)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 0, r.Position("alpha"))
	assert.Equal(t, 2, r.Position("charlie"))
	assert.Equal(t, -1, r.Position("missing"))

	cfg, err := r.Lookup("bravo")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet", cfg.Model)

	_, err = r.Lookup("missing")
	assert.True(t, errors.Is(err, qerrors.ErrModelUnknown))
}

func TestRegistryIsImmutable(t *testing.T) {
	configs := testConfigs()
	r, err := New(configs)
	require.NoError(t, err)

	// Mutating the input or the returned slice must not affect the registry
	configs[0].ID = "mutated"
	models := r.Models()
	models[1].ID = "also-mutated"

	cfg, err := r.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", cfg.ID)
	assert.Equal(t, "bravo", r.Models()[1].ID)
}

func TestSubset(t *testing.T) {
	r, err := New(testConfigs())
	require.NoError(t, err)

	// Subset preserves declaration order regardless of requested order
	sub, err := r.Subset([]string{"charlie", "alpha"})
	require.NoError(t, err)
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, "alpha", sub.Models()[0].ID)
	assert.Equal(t, "charlie", sub.Models()[1].ID)

	// Empty subset means everything
	all, err := r.Subset(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())

	// Unknown ids are an error, not silently dropped
	_, err = r.Subset([]string{"alpha", "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, qerrors.ErrModelUnknown))
}
