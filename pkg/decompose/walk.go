package decompose

import (
	"context"
	"strings"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// walker flattens an entity graph into nodes in root-first order.
type walker struct {
	ctx    context.Context
	descs  *descriptorSet
	root   identity
	nodes  []*Node
	onPath map[identity]*entity.Entity
}

func newWalker(ctx context.Context, descs *descriptorSet) *walker {
	return &walker{
		ctx:    ctx,
		descs:  descs,
		onPath: make(map[identity]*entity.Entity),
	}
}

// rootSegment is the first path segment of every token.
func rootSegment(root *entity.Entity) string {
	return strings.ToLower(root.Type)
}

// walkRoot walks the graph below root. The first node is always the root.
func (w *walker) walkRoot(root *entity.Entity) ([]*Node, error) {
	id, err := identify(w.descs, root, root.Type)
	if err != nil {
		return nil, err
	}
	w.root = id
	if err := w.walk(root, rootSegment(root), "", ""); err != nil {
		return nil, err
	}
	return w.nodes, nil
}

func (w *walker) walk(v any, fieldName, path, hint string) error {
	if entity.IsPrimitive(v) {
		return nil
	}
	switch x := v.(type) {
	case entity.Object:
		return nil
	case *entity.List:
		if x == nil || len(x.Items) == 0 {
			return nil
		}
		elem := x.ElemType()
		if elem == "" {
			elem = hint
		}
		for _, it := range x.Items {
			if err := w.walk(it, fieldName, path, elem); err != nil {
				return err
			}
		}
		return nil
	case *entity.Entity:
		if x == nil {
			return nil
		}
		return w.walkEntity(x, fieldName, path, hint)
	}
	return errors.New(errors.ErrCodeUnsupported, "%s: unsupported value of type %T", entity.JoinPath(path, fieldName), v)
}

func (w *walker) walkEntity(e *entity.Entity, fieldName, path, hint string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	id, err := identify(w.descs, e, hint)
	if err != nil {
		return err
	}
	nodePath := entity.JoinPath(path, fieldName)
	node := &Node{
		Type:      id.typ,
		FieldName: fieldName,
		Path:      nodePath,
		id:        id,
	}

	isRoot := len(w.nodes) == 0
	if !isRoot && id == w.root {
		node.rootCopy = true
		node.Data = e.Fields.Clone()
		w.nodes = append(w.nodes, node)
		return nil
	}
	if seen, ok := w.onPath[id]; ok {
		if seen == e {
			return errors.New(errors.ErrCodeCyclicGraph, "%s re-enters %s", nodePath, id)
		}
		return nil
	}

	node.Data = e.Fields.Clone()
	w.nodes = append(w.nodes, node)

	desc, err := w.descs.lookup(id.typ)
	if err != nil {
		return err
	}
	w.onPath[id] = e
	defer delete(w.onPath, id)
	for _, key := range e.Fields.Keys() {
		val, _ := e.Get(key)
		if val == nil {
			continue
		}
		var elemHint string
		if col, ok := desc.Column(key); ok {
			elemHint = col.Reference
		}
		if err := w.walk(val, key, nodePath, elemHint); err != nil {
			return err
		}
	}
	return nil
}

// identify resolves the type and primary key of e. Entities without a type
// fall back to hint, the element type of the list or column holding them.
func identify(descs *descriptorSet, e *entity.Entity, hint string) (identity, error) {
	typ := e.Type
	if typ == "" {
		typ = hint
	}
	if typ == "" {
		return identity{}, errors.New(errors.ErrCodeUnknownType, "entity has no type")
	}
	desc, err := descs.lookup(typ)
	if err != nil {
		return identity{}, err
	}
	pk, err := primaryKey(desc, e)
	if err != nil {
		return identity{}, err
	}
	return identity{typ: desc.Target, key: pk}, nil
}

// primaryKey renders the primary key of e. A missing or structured primary
// key leaves the entity without identity, which no key derivation can fix.
func primaryKey(desc *schema.Descriptor, e *entity.Entity) (string, error) {
	col, ok := desc.PrimaryColumn()
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidDescriptor, "%s: no primary column", desc.Target)
	}
	v, _ := e.Get(col.Property)
	if v == nil || !entity.IsScalar(v) {
		return "", errors.New(errors.ErrCodeAmbiguousKey, "%s: primary key %q is missing or not a scalar", desc.Target, col.Property)
	}
	s, _ := entity.FormatScalar(v)
	return s, nil
}
