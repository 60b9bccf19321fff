// Package dialect is the composition root: it bundles one
// typesystem.Translator, syntax.Helper, aggregate.Synthesizer, and
// discovery.Metadata per engine behind a single Bundle, and keeps a
// process-wide Registry of them.
package dialect

import (
	"fmt"
	"sync"

	"github.com/jas88/fansigo/aggregate"
	"github.com/jas88/fansigo/discovery"
	"github.com/jas88/fansigo/fansierr"
	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

// Bundle groups every per-engine implementation this module needs behind
// one lookup key.
type Bundle struct {
	Engine      typesystem.Engine
	DriverName  string
	Translator  typesystem.Translator
	Syntax      syntax.Helper
	Aggregate   aggregate.Synthesizer
	Metadata    discovery.Metadata
}

// Registry is a process-wide, concurrency-safe map from engine identity
// to its Bundle. Registration is idempotent: registering the same engine
// twice with the same DriverName is a no-op that keeps the first Bundle;
// registering it with a different DriverName is an error.
type Registry struct {
	mu      sync.RWMutex
	bundles map[typesystem.Engine]Bundle
}

func NewRegistry() *Registry {
	return &Registry{bundles: make(map[typesystem.Engine]Bundle)}
}

// Register adds b to the registry. Calling it again for the same engine
// with the same DriverName is a no-op; calling it with a different
// DriverName is an error, since that would silently change which driver
// future Acquire calls open.
func (r *Registry) Register(b Bundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bundles[b.Engine]; ok {
		if existing.DriverName == b.DriverName {
			return nil
		}
		return fmt.Errorf("dialect: engine %s already registered with driver %q, cannot re-register with %q",
			b.Engine, existing.DriverName, b.DriverName)
	}
	r.bundles[b.Engine] = b
	return nil
}

// Get returns the Bundle registered for engine, or
// fansierr.ErrImplementationNotFound if none was registered.
func (r *Registry) Get(engine typesystem.Engine) (Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bundles[engine]
	if !ok {
		return Bundle{}, fansierr.ImplementationNotFound(fmt.Sprintf("dialect bundle for engine %q", engine))
	}
	return b, nil
}

// Default is the process-wide registry populated by this package's
// init() functions (one per engine file), reachable without any explicit
// setup call.
var Default = NewRegistry()
