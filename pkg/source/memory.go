package source

import (
	"context"
	"sync"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// MemoryStore is a [Store] over records held in memory, grouped by type.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]map[string]any
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]map[string]any)}
}

// Put appends records of typeName.
func (m *MemoryStore) Put(typeName string, recs ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[typeName] = append(m.records[typeName], recs...)
}

// Len returns the number of records of typeName.
func (m *MemoryStore) Len(typeName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[typeName])
}

// Record finds the record whose primary column renders as id.
func (m *MemoryStore) Record(ctx context.Context, desc *schema.Descriptor, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pk, ok := desc.PrimaryColumn()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidDescriptor, "%s: no primary column", desc.Target)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records[desc.Target] {
		if s, ok := entity.FormatScalar(r[pk.Property]); ok && r[pk.Property] != nil && s == id {
			return r, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "%s %q not found", desc.Target, id)
}

// Close does nothing.
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
