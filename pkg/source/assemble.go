package source

import (
	"context"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// Assemble builds the entity typeName/id from store records, following
// reference columns up to depth hops. Each record is fetched from the
// store at most once per call; each visit still yields a new entity.
func Assemble(ctx context.Context, reg *schema.Registry, store Store, typeName, id string, depth int) (*entity.Entity, error) {
	if depth < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "depth must be >= 0, got %d", depth)
	}
	if err := errors.ValidateEntityID(id); err != nil {
		return nil, err
	}
	a := &assembler{
		ctx:     ctx,
		reg:     reg,
		store:   store,
		records: make(map[recordKey]map[string]any),
	}
	return a.build(typeName, id, depth)
}

type recordKey struct {
	typeName string
	id       string
}

type assembler struct {
	ctx     context.Context
	reg     *schema.Registry
	store   Store
	records map[recordKey]map[string]any
}

func (a *assembler) record(desc *schema.Descriptor, id string) (map[string]any, error) {
	k := recordKey{desc.Target, id}
	if r, ok := a.records[k]; ok {
		return r, nil
	}
	r, err := a.store.Record(a.ctx, desc, id)
	if err != nil {
		return nil, err
	}
	a.records[k] = r
	return r, nil
}

func (a *assembler) build(typeName, id string, depth int) (*entity.Entity, error) {
	if err := a.ctx.Err(); err != nil {
		return nil, err
	}
	desc, err := a.reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	raw, err := a.record(desc, id)
	if err != nil {
		return nil, err
	}

	e := entity.New(desc.Target)
	for _, col := range desc.Columns {
		v, ok := raw[col.Property]
		if !ok {
			continue
		}
		if col.IsReference() {
			if depth == 0 {
				continue
			}
			rel, err := a.relation(desc, col, v, depth-1)
			if err != nil {
				return nil, err
			}
			e.Set(col.Property, rel)
			continue
		}
		cv, err := Coerce(col, v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s/%s.%s", desc.Target, id, col.Property)
		}
		e.Set(col.Property, cv)
	}
	return e, nil
}

func (a *assembler) relation(desc *schema.Descriptor, col schema.Column, v any, depth int) (any, error) {
	if v == nil {
		if col.Multiple {
			return entity.NewList(col.Reference), nil
		}
		return nil, nil
	}
	if !col.Multiple {
		id, err := foreignKey(desc, col, v)
		if err != nil {
			return nil, err
		}
		return a.build(col.Reference, id, depth)
	}

	ids, ok := v.([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s.%s: to-many reference must be an array, got %T", desc.Target, col.Property, v)
	}
	list := entity.NewList(col.Reference)
	for _, raw := range ids {
		if raw == nil {
			continue
		}
		id, err := foreignKey(desc, col, raw)
		if err != nil {
			return nil, err
		}
		child, err := a.build(col.Reference, id, depth)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, child)
	}
	return list, nil
}

func foreignKey(desc *schema.Descriptor, col schema.Column, v any) (string, error) {
	if !entity.IsScalar(v) {
		return "", errors.New(errors.ErrCodeInvalidFormat, "%s.%s: reference key must be a scalar, got %T", desc.Target, col.Property, v)
	}
	s, _ := entity.FormatScalar(v)
	return s, nil
}
