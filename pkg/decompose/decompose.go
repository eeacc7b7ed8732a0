package decompose

import (
	"context"

	"github.com/matzehuels/xmlbridge/pkg/dag"
	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// Options configures decomposition.
type Options struct {
	Logger func(string, ...any) // Progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Result is a decomposed entity graph.
type Result struct {
	Nodes   []*Node   // Blocks in emission order; the root is last
	Forward []Forward // References that point at a later block
	Graph   *dag.DAG  // Reference graph after cycle breaking
	Walked  int       // Nodes produced by the walk, before dedup
}

// Root returns the root block.
func (r *Result) Root() *Node {
	return r.Nodes[len(r.Nodes)-1]
}

// Decompose flattens the graph below root into reference-linked blocks.
// Descriptors are fetched from src once per type.
//
// The input graph is not modified. Errors carry the codes
// [errors.ErrCodeUnknownType], [errors.ErrCodeAmbiguousKey],
// [errors.ErrCodeUnresolvedReference] or [errors.ErrCodeCyclicGraph];
// all of them are fatal for the export.
func Decompose(ctx context.Context, src schema.Source, root *entity.Entity, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "root entity is nil")
	}
	if root.Type == "" {
		return nil, errors.New(errors.ErrCodeUnknownType, "root entity has no type")
	}

	descs, err := prefetch(ctx, src, root)
	if err != nil {
		return nil, err
	}
	opts.Logger("fetched %d descriptors", descs.count())

	nodes, err := newWalker(ctx, descs).walkRoot(root)
	if err != nil {
		return nil, err
	}
	walked := len(nodes)
	rootNode := nodes[0]

	nodes = dedup(nodes)
	opts.Logger("walked %d nodes, %d after dedup", walked, len(nodes))

	for _, n := range nodes {
		desc, err := descs.lookup(n.Type)
		if err != nil {
			return nil, err
		}
		if err := deriveKey(desc, n); err != nil {
			return nil, err
		}
	}

	if err := newResolver(descs, nodes, rootNode).resolveAll(nodes); err != nil {
		return nil, err
	}

	ordered, forward, g, err := order(nodes, rootNode)
	if err != nil {
		return nil, err
	}
	for _, f := range forward {
		opts.Logger("forward reference %s -> %s", f.From.Ref(), f.To.Ref())
	}

	return &Result{Nodes: ordered, Forward: forward, Graph: g, Walked: walked}, nil
}
