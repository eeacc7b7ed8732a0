package decompose

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// descriptorSet memoizes descriptor lookups for one export.
type descriptorSet struct {
	ctx    context.Context
	src    schema.Source
	byName map[string]*schema.Descriptor
}

// prefetch fetches the descriptor of every type reachable from root, one
// goroutine per distinct type.
func prefetch(ctx context.Context, src schema.Source, root *entity.Entity) (*descriptorSet, error) {
	set := &descriptorSet{ctx: ctx, src: src, byName: make(map[string]*schema.Descriptor)}
	types := collectTypes(root)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range types {
		g.Go(func() error {
			d, err := fetchDescriptor(gctx, src, t)
			if err != nil {
				return err
			}
			mu.Lock()
			set.add(t, d)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// lookup returns the descriptor for typeName, fetching types the prefetch
// could not see, such as untyped entities named only by a column.
func (s *descriptorSet) lookup(typeName string) (*schema.Descriptor, error) {
	if d, ok := s.byName[typeName]; ok {
		return d, nil
	}
	d, err := fetchDescriptor(s.ctx, s.src, typeName)
	if err != nil {
		return nil, err
	}
	s.add(typeName, d)
	return d, nil
}

func (s *descriptorSet) add(typeName string, d *schema.Descriptor) {
	s.byName[typeName] = d
	s.byName[d.Target] = d
}

// count returns the number of distinct descriptors held.
func (s *descriptorSet) count() int {
	seen := make(map[*schema.Descriptor]bool, len(s.byName))
	for _, d := range s.byName {
		seen[d] = true
	}
	return len(seen)
}

func fetchDescriptor(ctx context.Context, src schema.Source, typeName string) (*schema.Descriptor, error) {
	d, err := src.Descriptor(ctx, typeName)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, schema.UnknownType(typeName)
	}
	if err := d.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "descriptor %s", typeName)
	}
	return d, nil
}

// collectTypes lists the entity types reachable from root in first-seen
// order. Entities without a type take the element type of their list.
func collectTypes(root *entity.Entity) []string {
	var (
		types   []string
		seen    = make(map[string]bool)
		visited = make(map[*entity.Entity]bool)
	)
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	var visit func(v any, hint string)
	visit = func(v any, hint string) {
		switch x := v.(type) {
		case *entity.Entity:
			if x == nil || visited[x] {
				return
			}
			visited[x] = true
			t := x.Type
			if t == "" {
				t = hint
			}
			add(t)
			for _, k := range x.Fields.Keys() {
				val, _ := x.Get(k)
				visit(val, "")
			}
		case *entity.List:
			if x == nil {
				return
			}
			elem := x.ElemType()
			if elem == "" {
				elem = hint
			}
			for _, it := range x.Items {
				visit(it, elem)
			}
		}
	}
	visit(root, "")
	return types
}
