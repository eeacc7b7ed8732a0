package decompose

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
)

// resolver rewrites inline relations into reference tokens. Targets are
// looked up by identity in the deduplicated node list, so every token names
// the canonical occurrence of its entity.
type resolver struct {
	descs *descriptorSet
	root  *Node
	byID  map[identity]*Node
}

func newResolver(descs *descriptorSet, nodes []*Node, root *Node) *resolver {
	byID := make(map[identity]*Node, len(nodes))
	for _, n := range nodes {
		byID[n.id] = n
	}
	return &resolver{descs: descs, root: root, byID: byID}
}

// resolveAll resolves the root first, then the remaining nodes in stack
// order.
func (r *resolver) resolveAll(nodes []*Node) error {
	if err := r.resolveNode(r.root); err != nil {
		return err
	}
	for _, n := range nodes {
		if n == r.root {
			continue
		}
		if err := r.resolveNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveNode(n *Node) error {
	desc, err := r.descs.lookup(n.Type)
	if err != nil {
		return err
	}
	for _, key := range n.Data.Keys() {
		v, _ := n.Data.Get(key)
		var hint string
		if col, ok := desc.Column(key); ok {
			hint = col.Reference
		}
		out, keep, err := r.resolveValue(n, key, v, hint)
		if err != nil {
			return err
		}
		if !keep {
			n.Data.Delete(key)
			continue
		}
		n.Data.Set(key, out)
	}
	return nil
}

// resolveValue returns the exported form of one property value. keep is
// false when the property must be dropped: an empty list, or a
// back-reference to the root.
func (r *resolver) resolveValue(n *Node, key string, v any, hint string) (out any, keep bool, err error) {
	if entity.IsPrimitive(v) {
		return v, true, nil
	}
	switch x := v.(type) {
	case entity.Object:
		s, err := literal(x)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s.%s", n.Path, key)
		}
		return s, true, nil
	case *entity.Entity:
		if x == nil {
			return nil, true, nil
		}
		return r.reference(n, x, hint)
	case *entity.List:
		return r.resolveList(n, key, x, hint)
	}
	return nil, false, errors.New(errors.ErrCodeUnsupported, "%s.%s: unsupported value of type %T", n.Path, key, v)
}

// resolveList builds a new list so that lists shared with the input graph
// are never modified.
func (r *resolver) resolveList(n *Node, key string, l *entity.List, hint string) (any, bool, error) {
	if l == nil || len(l.Items) == 0 {
		return nil, false, nil
	}
	elem := l.ElemType()
	if elem == "" {
		elem = hint
	}
	items := make([]any, 0, len(l.Items))
	for _, it := range l.Items {
		if it == nil {
			continue
		}
		var (
			out  any
			keep bool
			err  error
		)
		switch x := it.(type) {
		case *entity.List:
			out, keep, err = r.nestedList(n, key, x)
		default:
			out, keep, err = r.resolveValue(n, key, it, elem)
		}
		if err != nil {
			return nil, false, err
		}
		if keep {
			items = append(items, out)
		}
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	return &entity.List{Type: l.Type, Items: items}, true, nil
}

// nestedList encodes a list inside a list as a literal. Entities cannot be
// referenced from that position.
func (r *resolver) nestedList(n *Node, key string, l *entity.List) (any, bool, error) {
	for _, it := range l.Items {
		if _, ok := it.(*entity.Entity); ok {
			return nil, false, errors.New(errors.ErrCodeUnsupported, "%s.%s: entities in nested lists cannot be referenced", n.Path, key)
		}
	}
	s, err := literal(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s.%s", n.Path, key)
	}
	return s, true, nil
}

// reference returns the token for e, or drops it when e is the root.
func (r *resolver) reference(n *Node, e *entity.Entity, hint string) (any, bool, error) {
	id, err := identify(r.descs, e, hint)
	if err != nil {
		return nil, false, err
	}
	if id == r.root.id {
		return nil, false, nil
	}
	target, ok := r.byID[id]
	if !ok {
		return nil, false, errors.New(errors.ErrCodeUnresolvedReference, "%s: no block for %s", n.Path, id)
	}
	if target != n && !slices.Contains(n.refs, target) {
		n.refs = append(n.refs, target)
	}
	return target.Ref(), true, nil
}

// literal encodes plain data as JSON. Map keys are sorted by encoding/json,
// so the encoding is deterministic.
func literal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
