// Package decompose flattens an entity graph into a list of reference-linked
// blocks ready for rendering.
//
// # Overview
//
// An exported document holds one block per distinct entity. Relations do not
// nest; they are written as reference tokens of the form path#key:value,
// where path names the block the token points to and key:value its natural
// key. [Decompose] turns a loaded entity graph into those blocks:
//
//  1. Walk: every entity reachable from the root becomes a [Node] tagged
//     with its type, the field that reached it and its path from the root
//  2. Dedup: copies of the root and repeated occurrences of the same
//     (type, primary key) collapse onto their first occurrence
//  3. Keys: each node picks its natural key, preferring a unique column
//     over the primary key, which is then dropped
//  4. Resolve: inline relations become reference tokens; references back to
//     the root are removed
//  5. Order: nodes are sorted so every referenced block precedes the blocks
//     that name it, with the root last
//
// # Paths
//
// The root segment is the lowercased root type. Elements of a to-many
// relation share their parent's path segment, so an Article's tags all live
// at article/tags and are told apart by key.
//
// # Cycles
//
// Relation cycles through the root (an article's author listing the same
// article) are expected and elided. Any other in-memory cycle, where the
// walker re-enters the same entity instance already on its recursion path,
// fails with an error coded [errors.ErrCodeCyclicGraph]. Cycles between
// distinct copies of non-root entities are cut at the second occurrence.
//
// Mutual references between non-root blocks cannot all point backwards. The
// orderer breaks such cycles with [transform.BreakCycles]; the affected
// tokens are reported in [Result.Forward].
//
// [errors.ErrCodeCyclicGraph]: github.com/matzehuels/xmlbridge/pkg/errors.ErrCodeCyclicGraph
// [transform.BreakCycles]: github.com/matzehuels/xmlbridge/pkg/dag/transform.BreakCycles
package decompose
