// Package schema describes entity types and the store that supplies them.
//
// A [Descriptor] is the metadata for one entity type: its columns, which
// column is the primary key and which columns are declared unique. The
// decomposition engine only ever reads descriptors; they are supplied by a
// [Source] and cached per export.
//
// Descriptors are usually written as TOML documents:
//
//	[[types]]
//	target = "User"
//
//	  [[types.columns]]
//	  property = "id"
//	  primary = true
//
//	  [[types.columns]]
//	  property = "email"
//	  unique = true
//
//	  [[types.columns]]
//	  property = "articles"
//	  type = "reference"
//	  reference = "Article"
//	  multiple = true
package schema

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
)

// Column data types.
const (
	TypeString    = "string"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeDate      = "date"
	TypeObject    = "object"
	TypeReference = "reference"
)

// Column describes one property of an entity type.
type Column struct {
	Property  string `toml:"property" json:"property"`
	Type      string `toml:"type,omitempty" json:"type,omitempty"`
	Primary   bool   `toml:"primary,omitempty" json:"primary,omitempty"`
	Unique    bool   `toml:"unique,omitempty" json:"unique,omitempty"`
	Reference string `toml:"reference,omitempty" json:"reference,omitempty"` // Referenced type for reference columns
	Multiple  bool   `toml:"multiple,omitempty" json:"multiple,omitempty"`   // To-many reference
}

// IsReference reports whether the column holds a relation to another type.
func (c Column) IsReference() bool {
	return c.Type == TypeReference || c.Reference != ""
}

// Descriptor is the schema metadata for one entity type.
type Descriptor struct {
	Target  string   `toml:"target" json:"target"` // Canonical type name
	Columns []Column `toml:"columns" json:"columns"`
}

// PrimaryColumn returns the primary key column.
// Returns false if the descriptor declares none.
func (d *Descriptor) PrimaryColumn() (Column, bool) {
	for _, c := range d.Columns {
		if c.Primary {
			return c, true
		}
	}
	return Column{}, false
}

// UniqueColumns returns the columns flagged unique that are not the primary
// key, in declaration order.
func (d *Descriptor) UniqueColumns() []Column {
	var out []Column
	for _, c := range d.Columns {
		if c.Unique && !c.Primary {
			out = append(out, c)
		}
	}
	return out
}

// Column returns the column for a property.
func (d *Descriptor) Column(property string) (Column, bool) {
	i := slices.IndexFunc(d.Columns, func(c Column) bool { return c.Property == property })
	if i < 0 {
		return Column{}, false
	}
	return d.Columns[i], true
}

// References returns the reference columns in declaration order.
func (d *Descriptor) References() []Column {
	var out []Column
	for _, c := range d.Columns {
		if c.IsReference() {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that the descriptor is usable for decomposition: a valid
// target name, exactly one primary column, unique property names and a
// target type for every reference column.
func (d *Descriptor) Validate() error {
	if err := errors.ValidateTypeName(d.Target); err != nil {
		return err
	}
	seen := make(map[string]bool, len(d.Columns))
	primaries := 0
	for _, c := range d.Columns {
		if c.Property == "" {
			return errors.New(errors.ErrCodeInvalidDescriptor, "%s: column with empty property", d.Target)
		}
		if seen[c.Property] {
			return errors.New(errors.ErrCodeInvalidDescriptor, "%s: duplicate column %q", d.Target, c.Property)
		}
		seen[c.Property] = true
		if c.Primary {
			primaries++
		}
		if c.IsReference() {
			if c.Primary {
				return errors.New(errors.ErrCodeInvalidDescriptor, "%s: reference column %q cannot be primary", d.Target, c.Property)
			}
			if c.Reference == "" {
				return errors.New(errors.ErrCodeInvalidDescriptor, "%s: reference column %q has no target type", d.Target, c.Property)
			}
		}
	}
	if primaries != 1 {
		return errors.New(errors.ErrCodeInvalidDescriptor, "%s: want exactly one primary column, got %d", d.Target, primaries)
	}
	return nil
}

// PrimaryValue returns the primary key value of e according to d.
func (d *Descriptor) PrimaryValue(e *entity.Entity) any {
	pk, ok := d.PrimaryColumn()
	if !ok {
		return nil
	}
	v, _ := e.Get(pk.Property)
	return v
}

// Source is the entity store consumed by the export pipeline.
//
// Implementations must be safe for concurrent use: descriptor lookups for
// distinct types may be issued in parallel.
type Source interface {
	// Descriptor returns the schema metadata for a type. It fails with an
	// error coded [errors.ErrCodeUnknownType] if the type is not registered.
	Descriptor(ctx context.Context, typeName string) (*Descriptor, error)

	// EntityGraph returns the entity typeName/id with its relations loaded
	// up to depth levels.
	EntityGraph(ctx context.Context, typeName, id string, depth int) (*entity.Entity, error)

	// Types lists the registered type names in a stable order.
	Types(ctx context.Context) ([]string, error)
}

// UnknownType returns the error a Source reports for an unregistered type.
func UnknownType(typeName string) error {
	return errors.New(errors.ErrCodeUnknownType, "type %q is not registered", typeName)
}

// Registry is an in-memory, read-only set of descriptors keyed by target.
type Registry struct {
	byName map[string]*Descriptor
	order  []string
}

// NewRegistry validates and indexes descriptors.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[d.Target]; dup {
			return nil, errors.New(errors.ErrCodeInvalidDescriptor, "type %q declared twice", d.Target)
		}
		r.byName[d.Target] = d
		r.order = append(r.order, d.Target)
	}
	for _, d := range descs {
		for _, c := range d.References() {
			if _, ok := r.byName[c.Reference]; !ok {
				return nil, errors.New(errors.ErrCodeInvalidDescriptor, "%s.%s references unknown type %q", d.Target, c.Property, c.Reference)
			}
		}
	}
	return r, nil
}

// Lookup returns the descriptor for typeName.
func (r *Registry) Lookup(typeName string) (*Descriptor, error) {
	d, ok := r.byName[typeName]
	if !ok {
		return nil, UnknownType(typeName)
	}
	return d, nil
}

// Names returns the registered type names in declaration order.
func (r *Registry) Names() []string { return slices.Clone(r.order) }

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.order) }

// String implements fmt.Stringer.
func (r *Registry) String() string {
	return fmt.Sprintf("schema.Registry(%d types)", len(r.order))
}
