package source

import (
	"context"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// DefaultDepth is the relation depth used when callers do not choose one.
// Three levels are enough for a root, its relations and the copies of the
// root those relations point back to.
const DefaultDepth = 3

// Store fetches flat records. Reference columns hold the primary key of the
// related record, or an array of keys for to-many relations.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Record returns the record of desc.Target whose primary key renders as
	// id. Missing records are reported with an error coded
	// [errors.ErrCodeNotFound].
	Record(ctx context.Context, desc *schema.Descriptor, id string) (map[string]any, error)

	// Close releases store resources.
	Close() error
}

// Source implements [schema.Source] over a registry and a record store.
type Source struct {
	name  string
	reg   *schema.Registry
	store Store
}

// New creates a Source. The name identifies the source in cache keys.
func New(name string, reg *schema.Registry, store Store) *Source {
	return &Source{name: name, reg: reg, store: store}
}

// Name returns the source identifier.
func (s *Source) Name() string { return s.name }

// Registry returns the schema the source serves.
func (s *Source) Registry() *schema.Registry { return s.reg }

// Descriptor returns the descriptor for typeName.
func (s *Source) Descriptor(ctx context.Context, typeName string) (*schema.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.reg.Lookup(typeName)
}

// EntityGraph assembles typeName/id with relations loaded to depth.
func (s *Source) EntityGraph(ctx context.Context, typeName, id string, depth int) (*entity.Entity, error) {
	return Assemble(ctx, s.reg, s.store, typeName, id, depth)
}

// Types returns the registered type names in declaration order.
func (s *Source) Types(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.reg.Names(), nil
}

// Close closes the underlying store.
func (s *Source) Close() error {
	return s.store.Close()
}

var _ schema.Source = (*Source)(nil)
