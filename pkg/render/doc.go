// Package render groups the output formats of a decomposition.
//
// # Documents
//
// The [xmldoc] subpackage renders the ordered blocks of a
// [decompose.Result] as an XML import document. This is the export format:
//
//	data, err := xmldoc.RenderResult(res)
//
// # Diagrams
//
// The [nodelink] subpackage draws the reference graph of a result with
// Graphviz. It is a debugging aid for checking why blocks were ordered the
// way they were:
//
//	dot := nodelink.ToDOT(res, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [xmldoc]: github.com/matzehuels/xmlbridge/pkg/render/xmldoc
// [nodelink]: github.com/matzehuels/xmlbridge/pkg/render/nodelink
// [decompose.Result]: github.com/matzehuels/xmlbridge/pkg/decompose.Result
package render
