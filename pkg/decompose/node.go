package decompose

import (
	"github.com/matzehuels/xmlbridge/pkg/entity"
)

// Node is one block of the decomposed document.
type Node struct {
	Type      string        // Canonical type name
	FieldName string        // Field that reached the node; the root segment for the root
	Path      string        // Slash-joined field names from the root segment
	Data      entity.Record // Remaining properties; relations become tokens during resolution

	// KeyProp and KeyValue hold the natural key once derived.
	KeyProp  string
	KeyValue string

	id       identity
	rootCopy bool
	refs     []*Node // Nodes named by this node's tokens, in first-use order
}

// Ref returns the reference token that names this node.
func (n *Node) Ref() entity.Ref {
	return entity.Ref{Path: n.Path, Key: n.KeyProp, Value: n.KeyValue}
}

// identity is the (type, primary key) pair nodes collapse on.
type identity struct {
	typ string
	key string
}

func (id identity) String() string {
	return id.typ + "(" + id.key + ")"
}
