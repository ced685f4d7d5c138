// Package index groups the indexers that serve one named index and keeps the
// ordered registry of indexes built from configuration.
package index

import (
	"context"
	"regexp"

	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/indexer"
)

var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName reports whether name can be used as an index. Index names
// become directory names below packages, incoming and rejected.
func ValidateName(name string) error {
	if name == "" {
		return errutils.ErrEmptyIndexName
	}
	if !nameRegexp.MatchString(name) {
		return errutils.ErrInvalidIndexNameWithDetails(name)
	}
	return nil
}

// Index is a named set of indexers, in registry order.
type Index struct {
	Name     string
	Indexers []indexer.Indexer
}

// New builds an index with every indexer type.
func New(name string, opts indexer.Options) *Index {
	return &Index{Name: name, Indexers: indexer.NewAll(name, opts)}
}

// Indexer returns the indexer of the given type.
func (i *Index) Indexer(typ string) (indexer.Indexer, error) {
	for _, ix := range i.Indexers {
		if ix.Type() == typ {
			return ix, nil
		}
	}
	return nil, errutils.ErrIndexerNotFoundWithType(i.Name, typ)
}

// Select returns the indexer of the given type, or all of them when typ is empty.
func (i *Index) Select(typ string) ([]indexer.Indexer, error) {
	if typ == "" {
		return i.Indexers, nil
	}
	ix, err := i.Indexer(typ)
	if err != nil {
		return nil, err
	}
	return []indexer.Indexer{ix}, nil
}

// Initialise initialises every indexer in order, stopping at the first error.
func (i *Index) Initialise(ctx context.Context) error {
	for _, ix := range i.Indexers {
		if err := ix.Initialise(ctx); err != nil {
			return errutils.Wrapf(err, "failed to initialise %s/%s", i.Name, ix.Type())
		}
	}
	return nil
}
