package cache

// Keyer generates cache keys for the pipeline's cached artifacts.
type Keyer interface {
	// DescriptorKey identifies the descriptor of typeName in a source.
	DescriptorKey(source, typeName string) string

	// GraphKey identifies the exported document of one root entity.
	GraphKey(source, typeName, id string, opts GraphKeyOpts) string

	// DocumentKey identifies a rendering of a decomposed stack.
	DocumentKey(stackHash string, opts DocumentKeyOpts) string
}

// GraphKeyOpts are the load options that change an exported graph.
type GraphKeyOpts struct {
	Depth int `json:"depth"`
}

// DocumentKeyOpts are the render options that change a document.
type DocumentKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DescriptorKey returns "descriptor:<source>:<type>".
func (DefaultKeyer) DescriptorKey(source, typeName string) string {
	return "descriptor:" + source + ":" + typeName
}

// GraphKey hashes the entity coordinates with the load options.
func (DefaultKeyer) GraphKey(source, typeName, id string, opts GraphKeyOpts) string {
	return hashKey("graph", source, typeName, id, opts)
}

// DocumentKey hashes the stack hash with the render options.
func (DefaultKeyer) DocumentKey(stackHash string, opts DocumentKeyOpts) string {
	return hashKey("document", stackHash, opts)
}

var _ Keyer = DefaultKeyer{}
