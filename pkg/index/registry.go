package index

import (
	"slices"
	"sync"

	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/indexer"
)

// Factory builds the Index for a name.
type Factory func(name string) *Index

// Registry holds the configured indexes in configuration order.
type Registry struct {
	mu      sync.RWMutex
	factory Factory
	order   []string
	indexes map[string]*Index
}

// NewRegistry builds every index in names with the full set of indexers.
func NewRegistry(names []string, opts indexer.Options) (*Registry, error) {
	return NewRegistryWithFactory(names, func(name string) *Index {
		return New(name, opts)
	})
}

// NewRegistryWithFactory builds every index in names through factory.
func NewRegistryWithFactory(names []string, factory Factory) (*Registry, error) {
	r := &Registry{
		factory: factory,
		indexes: make(map[string]*Index, len(names)),
	}
	for _, name := range names {
		if _, err := r.Add(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Get returns the index called name.
func (r *Registry) Get(name string) (*Index, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[name]
	if !ok {
		return nil, errutils.ErrIndexNotFoundWithName(name)
	}
	return idx, nil
}

// Names returns the index names in registry order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// All returns every index in registry order.
func (r *Registry) All() []*Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Index, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.indexes[name])
	}
	return all
}

// Add registers a new index. The caller initialises it.
func (r *Registry) Add(name string) (*Index, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.indexes[name]; ok {
		return nil, errutils.ErrIndexExistsWithName(name)
	}
	idx := r.factory(name)
	r.indexes[name] = idx
	r.order = append(r.order, name)
	return idx, nil
}

// Remove unregisters an index. Files on disk are left alone.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.indexes[name]; !ok {
		return errutils.ErrIndexNotFoundWithName(name)
	}
	delete(r.indexes, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return nil
}
