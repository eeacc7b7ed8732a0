// Package transform rewrites reference graphs so they can be ordered.
//
// A document block may reference another block that, directly or through a
// chain, references it back. Such graphs have no topological order.
// [BreakCycles] removes the back edges found by a deterministic depth-first
// search and reports them, so callers can log which references will appear
// ahead of their definition.
package transform
