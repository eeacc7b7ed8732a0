package decompose

import (
	"strconv"

	"github.com/matzehuels/xmlbridge/pkg/dag"
	"github.com/matzehuels/xmlbridge/pkg/dag/transform"
	"github.com/matzehuels/xmlbridge/pkg/errors"
)

// Forward is a reference that points at a block emitted after the block
// holding it. It only arises from mutual references between non-root
// entities.
type Forward struct {
	From *Node
	To   *Node
	Edge dag.Edge // Edge removed from the reference graph
}

// Graph metadata keys set on reference graph nodes.
const (
	MetaType  = "type"
	MetaPath  = "path"
	MetaToken = "token"
	MetaRoot  = "root"
)

// referenceGraph builds the graph of token references between nodes. Node
// IDs are positions in nodes; edges point from the referencing node to the
// referenced one.
func referenceGraph(nodes []*Node, root *Node) *dag.DAG {
	g := dag.New(nil)
	pos := make(map[*Node]string, len(nodes))
	for i, n := range nodes {
		id := strconv.Itoa(i)
		pos[n] = id
		_ = g.AddNode(dag.Node{ID: id, Meta: dag.Metadata{
			MetaType:  n.Type,
			MetaPath:  n.Path,
			MetaToken: n.Ref().String(),
			MetaRoot:  n == root,
		}})
	}
	for _, n := range nodes {
		for _, t := range n.refs {
			_ = g.AddEdge(dag.Edge{From: pos[n], To: pos[t]})
		}
	}
	return g
}

// order sorts nodes so that referenced blocks come first. Independent nodes
// keep their relative order, which after dedup is leaf-first with the root
// last.
func order(nodes []*Node, root *Node) ([]*Node, []Forward, *dag.DAG, error) {
	g := referenceGraph(nodes, root)
	removed := transform.BreakCycles(g)

	ids, err := g.TopologicalOrder()
	if err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "order blocks")
	}
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = nodes[index(id)]
	}
	if out[len(out)-1] != root {
		return nil, nil, nil, errors.New(errors.ErrCodeInternal, "root block is not last")
	}

	forward := make([]Forward, len(removed))
	for i, e := range removed {
		forward[i] = Forward{From: nodes[index(e.From)], To: nodes[index(e.To)], Edge: e}
	}
	return out, forward, g, nil
}

func index(id string) int {
	i, _ := strconv.Atoi(id)
	return i
}
