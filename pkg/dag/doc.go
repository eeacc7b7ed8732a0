// Package dag provides a small insertion-ordered directed graph used to order
// the blocks of an exported document.
//
// # Overview
//
// An exported document lists one block per entity. Blocks reference each
// other through reference tokens, and an importer reading the document top
// to bottom expects every referenced block to be defined before the block
// that names it. Modeling blocks as nodes and references as edges turns that
// requirement into a topological ordering problem.
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [DAG.AddNode] and edges with
// [DAG.AddEdge]. Edges point from the referencing block to the referenced
// block:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "article"})
//	g.AddNode(dag.Node{ID: "article/author"})
//	g.AddEdge(dag.Edge{From: "article", To: "article/author"})
//
//	order, err := g.TopologicalOrder() // [article/author article]
//
// # Determinism
//
// Unlike a map-backed graph, every traversal here follows insertion order.
// Exporting the same graph twice must produce byte-identical documents, so
// the block order cannot depend on map iteration.
//
// # Cycles
//
// Mutual references between non-root entities (a user referencing their
// articles, each article referencing its author) form cycles in the
// reference graph. [transform.BreakCycles] removes back edges so that an
// ordering exists; the references themselves stay in the document.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
//
// [transform.BreakCycles]: github.com/matzehuels/xmlbridge/pkg/dag/transform.BreakCycles
package dag
