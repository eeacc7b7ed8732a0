package decompose

import "slices"

// removeRootCopies drops every node other than the first that re-embeds the
// root entity.
func removeRootCopies(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nodes
	}
	root := nodes[0]
	return slices.DeleteFunc(nodes, func(n *Node) bool {
		return n != root && (n.rootCopy || n.id == root.id)
	})
}

// collapse merges nodes sharing a (type, primary key) into their first
// occurrence. The survivor absorbs properties that only later copies
// carry, so a shallow first copy still exports every loaded relation.
func collapse(nodes []*Node) []*Node {
	first := make(map[identity]*Node, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		survivor, ok := first[n.id]
		if !ok {
			first[n.id] = n
			out = append(out, n)
			continue
		}
		for _, k := range n.Data.Keys() {
			if v, _ := n.Data.Get(k); v != nil && !survivor.Data.Has(k) {
				survivor.Data.Set(k, v)
			}
		}
	}
	clear(nodes[len(out):])
	return out
}

// dedup runs both passes and reverses the result so the root is last.
func dedup(nodes []*Node) []*Node {
	nodes = collapse(removeRootCopies(nodes))
	slices.Reverse(nodes)
	return nodes
}
