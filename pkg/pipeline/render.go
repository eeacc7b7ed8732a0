package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/xmlbridge/pkg/cache"
	"github.com/matzehuels/xmlbridge/pkg/decompose"
	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/render/nodelink"
	"github.com/matzehuels/xmlbridge/pkg/render/xmldoc"
)

// Extensions maps formats to staged file extensions.
var Extensions = map[string]string{
	FormatXML: xmldoc.Extension,
	FormatDOT: ".dot",
	FormatSVG: ".svg",
}

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, res *decompose.Result, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatXML:
			data, err = xmldoc.RenderResult(res)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(res, nodelink.Options{Detailed: true}))
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(res, nodelink.Options{}))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// block is the hashed form of a node: everything that reaches the document.
type block struct {
	Type string        `json:"type"`
	Data entity.Record `json:"data"`
}

// StackHash returns a content hash of the ordered blocks. Equal hashes
// render to equal documents.
func StackHash(nodes []*decompose.Node) (string, error) {
	blocks := make([]block, len(nodes))
	for i, n := range nodes {
		blocks[i] = block{Type: n.Type, Data: n.Data}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("hash blocks: %w", err)
	}
	return cache.Hash(data), nil
}
