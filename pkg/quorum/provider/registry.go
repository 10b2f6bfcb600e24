package provider

import (
	"fmt"
	"sync"

	"github.com/quorumlabs/quorum/pkg/quorum/config"
	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
)

// Registry manages the available provider factories
type Registry struct {
	mu             sync.RWMutex
	defaultFactory string
	factories      map[string]Factory
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// RegisterFactory adds a provider factory to the registry
func (r *Registry) RegisterFactory(factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := factory.Name()
	if name == "" {
		return qerrors.New("registry", "register_factory",
			fmt.Errorf("provider factory name cannot be empty"))
	}

	if _, exists := r.factories[name]; exists {
		return qerrors.New("registry", "register_factory",
			fmt.Errorf("provider factory %q already registered", name))
	}

	r.factories[name] = factory

	// If this is the first factory, make it the default
	if r.defaultFactory == "" {
		r.defaultFactory = name
	}

	return nil
}

// SetDefaultFactory sets the default provider factory
func (r *Registry) SetDefaultFactory(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return qerrors.New("registry", "set_default",
			fmt.Errorf("provider factory %q not registered", name))
	}

	r.defaultFactory = name
	return nil
}

// Create builds a provider from the named factory. An empty name uses the
// default factory.
func (r *Registry) Create(name string, cfg config.Config) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultFactory
	}

	factory, exists := r.factories[name]
	if !exists {
		return nil, qerrors.New("registry", "create",
			fmt.Errorf("provider factory %q not registered", name))
	}

	return factory.Create(cfg)
}

// Names returns the registered factory names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
