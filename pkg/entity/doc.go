// Package entity defines the in-memory shape of an entity graph.
//
// # Overview
//
// An entity graph is a root [Entity] plus whatever related entities the
// store loaded alongside it. Every value in the graph belongs to a closed set
// of kinds, so decomposition never has to guess what a value is:
//
//   - Scalars: nil, string, bool, int, int64, float64, [json.Number] and
//     [time.Time]. Scalars are terminal.
//   - [*Entity]: an instance of a schema type. Entities are decomposed into
//     their own document blocks.
//   - [*List]: a to-many relation or an array property. The optional Type
//     field carries the element type when the store knows it.
//   - [Object]: plain structured data that is not modeled as an entity (a
//     JSON column, for example). Objects are terminal and exported as an
//     inline JSON literal.
//   - [Ref]: a resolved reference token (path#key:value). Refs replace
//     nested entities during reference resolution.
//
// # Records
//
// Entity properties live in a [Record], an insertion-ordered map. Ordering
// is part of the contract: exported documents list properties in the order
// the store declared them, which keeps repeated exports byte-identical.
//
// # Building graphs
//
//	author := entity.New("User").Set("id", 9).Set("email", "x@y.z")
//	article := entity.New("Article").
//	    Set("id", 1).
//	    Set("title", "A").
//	    Set("author", author)
//
// # Concurrency
//
// Entities and records are not safe for concurrent mutation. Graphs returned
// by a source are owned by the caller; decomposition copies every record it
// rewrites and never mutates the input graph.
package entity
