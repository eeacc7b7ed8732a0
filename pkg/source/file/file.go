// Package file reads entity records from JSON fixtures on disk.
//
// A data directory holds a schema and one JSON array per type:
//
//	blog/
//	  schema.toml    descriptors, see package schema
//	  Article.json   [{"id": 1, "title": "Hello", "author": 7}, ...]
//	  User.json      [{"id": 7, "email": "x@y.z", "articles": [1]}]
//
// Reference columns hold the primary key of the related record. Type files
// are read on first use; a type without a file has no records.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
	"github.com/matzehuels/xmlbridge/pkg/source"
)

// SchemaFile is the schema document name inside a data directory.
const SchemaFile = "schema.toml"

// Open loads dir/schema.toml and returns a source over the type files in dir.
func Open(dir string) (*source.Source, error) {
	if err := errors.ValidatePath(dir); err != nil {
		return nil, err
	}
	reg, err := schema.LoadTOML(filepath.Join(dir, SchemaFile))
	if err != nil {
		return nil, err
	}
	return source.New("file:"+filepath.Clean(dir), reg, NewStore(dir)), nil
}

// Store is a [source.Store] over per-type JSON files.
type Store struct {
	dir string

	mu     sync.Mutex
	loaded map[string]error
	mem    *source.MemoryStore
}

// NewStore creates a store reading type files from dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		loaded: make(map[string]error),
		mem:    source.NewMemoryStore(),
	}
}

// Record returns the record of desc.Target with primary key id.
func (s *Store) Record(ctx context.Context, desc *schema.Descriptor, id string) (map[string]any, error) {
	if err := s.load(desc.Target); err != nil {
		return nil, err
	}
	return s.mem.Record(ctx, desc, id)
}

// Close does nothing.
func (s *Store) Close() error { return nil }

func (s *Store) load(typeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.loaded[typeName]; ok {
		return err
	}
	err := s.read(typeName)
	s.loaded[typeName] = err
	return err
}

func (s *Store) read(typeName string) error {
	path := filepath.Join(s.dir, typeName+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	recs, err := decodeRecords(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	s.mem.Put(typeName, recs...)
	return nil
}

// decodeRecords parses a JSON array of objects, keeping numbers as
// json.Number so integer keys round-trip as written.
func decodeRecords(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var recs []map[string]any
	if err := dec.Decode(&recs); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after records array")
	}
	return recs, nil
}

var _ source.Store = (*Store)(nil)
