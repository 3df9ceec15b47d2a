package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aurelink/aurelink/pkg/source"
)

// ErrSourceNotRegistered is returned by CreateSource when no factory has
// been registered under the requested plugin name.
var ErrSourceNotRegistered = errors.New("config: source plugin not registered")

// SourceFactory builds a source.Plugin from its config block. Concrete
// plugins (httpsource, mirror, ...) register a factory under their own
// Name() at startup; Registry.CreateSource then turns a config section
// into a running plugin without the caller needing to know which
// concrete type backs it.
type SourceFactory func(SourceConfig) (source.Plugin, error)

// Registry maps source plugin names to their constructor functions. It is
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]SourceFactory)}
}

// RegisterSource registers a source plugin factory under name. Subsequent
// calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSource(name string, factory SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = factory
}

// CreateSource instantiates the source plugin registered under name using
// entry. Returns [ErrSourceNotRegistered] if no factory was registered for
// that name.
func (r *Registry) CreateSource(name string, entry SourceConfig) (source.Plugin, error) {
	r.mu.RLock()
	factory, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotRegistered, name)
	}
	return factory(entry)
}

// BuildEnabled builds every enabled source in cfg.Sources via the matching
// registered factory, skipping (and logging, via the returned error slice
// being left to the caller to log) any entry whose plugin isn't
// registered rather than failing the whole startup sequence.
func (r *Registry) BuildEnabled(cfg map[string]SourceConfig) ([]source.Plugin, []error) {
	var plugins []source.Plugin
	var errs []error
	for name, entry := range cfg {
		if !entry.Enabled {
			continue
		}
		p, err := r.CreateSource(name, entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, errs
}
