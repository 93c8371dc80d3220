package adapter

import (
	"sort"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
)

// Registry maps platform names to adapters. It is an explicit value so tests
// can build their own with fakes.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry returns a registry holding adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter under a.Name().
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name. The error lists the valid
// names.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, stacktrace.NewError(
			"unknown target '%s'; valid targets are: %s",
			name, strings.Join(r.Names(), ", "),
		)
	}
	return a, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up every name, failing on the first unknown one.
func (r *Registry) Resolve(names []string) ([]Adapter, error) {
	result := make([]Adapter, 0, len(names))
	for _, name := range names {
		a, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}
