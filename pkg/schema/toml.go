package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// document is the on-disk shape of a schema file.
type document struct {
	Types []*Descriptor `toml:"types"`
}

// ReadTOML decodes a schema document and returns a validated registry.
func ReadTOML(r io.Reader) (*Registry, error) {
	var doc document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode schema: unknown key %q", undecoded[0].String())
	}
	return NewRegistry(doc.Types...)
}

// LoadTOML reads a schema document from path.
func LoadTOML(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTOML(f)
}

// WriteTOML encodes descriptors as a schema document.
func WriteTOML(w io.Writer, descs ...*Descriptor) error {
	if err := toml.NewEncoder(w).Encode(document{Types: descs}); err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return nil
}
