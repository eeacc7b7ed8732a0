// Package source loads entity graphs from flat record stores.
//
// # Overview
//
// The export pipeline consumes a [schema.Source]: something that can answer
// "what does type T look like" and "give me entity T/id with its relations
// loaded N levels deep". Most stores only hold flat records whose reference
// columns carry the IDs of related records. This package bridges the two:
//
//  1. A [Store] fetches one flat record by type and primary key
//  2. [Assemble] follows reference columns to build the entity graph
//  3. [Source] combines a [schema.Registry] with a Store into a schema.Source
//
// Implementations live in subpackages: [file] reads JSON fixtures from disk
// and [mongo] reads MongoDB collections.
//
// # Depth
//
// Assembly behaves like an ORM loading relations eagerly: every visit of a
// record produces a fresh entity instance, so a relation cycle such as
// Article → author → articles → Article materializes as finite copies
// rather than an in-memory loop. Depth 0 loads the root alone; each further
// level loads one more hop of relations. Relations beyond the depth limit
// are left out of the entity, not set to null.
//
// # Values
//
// Raw values are coerced per column by [Coerce]: date columns become
// [time.Time], nested maps become [entity.Object], arrays of scalars become
// [entity.List] values and JSON numbers are kept as [json.Number] so that
// integer keys render without a fractional part.
//
// [file]: github.com/matzehuels/xmlbridge/pkg/source/file
// [mongo]: github.com/matzehuels/xmlbridge/pkg/source/mongo
package source
