// Package registry holds the static catalog of configured model backends.
package registry

import (
	"fmt"

	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
)

// ModelConfig describes one configured backend. Immutable after load.
type ModelConfig struct {
	// ID uniquely identifies the model within the registry (e.g.
	// "gpt-4o-primary"). It is the key for performance records and weights.
	ID string

	// Provider names the factory used to build the adapter. Empty uses
	// the default factory.
	Provider string

	// Endpoint is the chat completions URL of the backend
	Endpoint string

	// CredentialRef is the opaque credential handed to the adapter
	CredentialRef string

	// Model is the backend-side model name
	Model string
}

// Registry is an ordered, immutable list of model configurations. The
// declaration order doubles as the deterministic tie-break order used by
// the weight calculator and merge selector.
type Registry struct {
	configs []ModelConfig
	byID    map[string]int
}

// New builds a registry from the given configurations. IDs must be
// non-empty and unique.
func New(configs []ModelConfig) (*Registry, error) {
	byID := make(map[string]int, len(configs))
	for i, cfg := range configs {
		if cfg.ID == "" {
			return nil, qerrors.New("registry", "load",
				fmt.Errorf("model at position %d has empty id: %w", i, qerrors.ErrInvalidConfig))
		}
		if _, dup := byID[cfg.ID]; dup {
			return nil, qerrors.New(cfg.ID, "load",
				fmt.Errorf("duplicate model id: %w", qerrors.ErrInvalidConfig))
		}
		byID[cfg.ID] = i
	}

	// Copy so callers cannot mutate the catalog afterwards
	owned := make([]ModelConfig, len(configs))
	copy(owned, configs)

	return &Registry{configs: owned, byID: byID}, nil
}

// Models returns the configurations in declaration order
func (r *Registry) Models() []ModelConfig {
	out := make([]ModelConfig, len(r.configs))
	copy(out, r.configs)
	return out
}

// Len returns the number of configured models
func (r *Registry) Len() int {
	return len(r.configs)
}

// Lookup returns the configuration for the given id
func (r *Registry) Lookup(id string) (ModelConfig, error) {
	i, ok := r.byID[id]
	if !ok {
		return ModelConfig{}, qerrors.Wrap(qerrors.ErrModelUnknown, id, "lookup")
	}
	return r.configs[i], nil
}

// Position returns the declaration index of the given id, or -1 when the
// id is not configured. Lower positions win deterministic tie-breaks.
func (r *Registry) Position(id string) int {
	i, ok := r.byID[id]
	if !ok {
		return -1
	}
	return i
}

// Subset returns a registry restricted to the given ids, preserving the
// original declaration order. Unknown ids are an error so a typo in a
// request does not silently shrink the batch.
func (r *Registry) Subset(ids []string) (*Registry, error) {
	if len(ids) == 0 {
		return r, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.byID[id]; !ok {
			return nil, qerrors.Wrap(qerrors.ErrModelUnknown, id, "subset")
		}
		wanted[id] = true
	}

	var selected []ModelConfig
	for _, cfg := range r.configs {
		if wanted[cfg.ID] {
			selected = append(selected, cfg)
		}
	}

	return New(selected)
}
