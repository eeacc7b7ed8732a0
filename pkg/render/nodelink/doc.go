// Package nodelink draws the reference graph of a decomposition as a
// node-link diagram.
//
// # Usage
//
// Convert a [decompose.Result] to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(res, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Each block is a box labeled with its type and reference token. Arrows
// run from a block to the blocks it references, so the export order reads
// bottom to top. References dropped to break a cycle are dashed; they are
// the forward references of the exported document.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. The DOT output can also be fed to the dot command line tool.
//
// [decompose.Result]: github.com/matzehuels/xmlbridge/pkg/decompose.Result
package nodelink
