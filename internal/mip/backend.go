package mip

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend solves models. Implementations must not retain the model after Solve returns.
type Backend interface {
	Name() string
	Solve(ctx context.Context, m *Model, start Start, p Params) (*Result, error)
}

// Factory constructs a backend.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under name. A second registration
// under the same name replaces the first.
func Register(name string, f Factory) {
	registryMu.Lock()
	registry[name] = f
	registryMu.Unlock()
}

// Lookup constructs the backend registered under name.
func Lookup(name string) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownBackend, name, Names())
	}
	return f(), nil
}

// Names lists registered backends in lexical order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
