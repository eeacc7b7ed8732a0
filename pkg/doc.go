// Package pkg holds the libraries behind xmlbridge, which exports an entity
// graph as a single reference-resolving XML import document.
//
// # Architecture
//
// A root entity and everything it references, up to a depth limit, flow
// through these packages:
//
//	[source] (file or MongoDB records + [schema] descriptors)
//	         ↓
//	[entity] graph rooted at TYPE/ID
//	         ↓
//	[decompose] (walk → dedup → keys → resolve → order, on [dag])
//	         ↓
//	[render/xmldoc] document, [render/nodelink] reference diagram
//	         ↓
//	[staging] directory
//
// [pipeline] ties the stages together, memoizing descriptors and documents
// through [cache] and reporting progress through [observability].
//
// # Quick Start
//
//	src, _ := file.Open("examples/blog")
//	runner := pipeline.NewRunner(src, nil, nil, nil)
//	defer runner.Close()
//
//	res, err := runner.Export(ctx, pipeline.Options{Type: "Article", ID: "1"})
//	// res.Artifacts["xml"] is the staged document
//
// Errors carry codes from [errors]; graph-shape failures such as a cycle
// through non-root entities or an unresolvable reference are reported with
// [errors.IsGraphError].
package pkg
