package pipeline

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xmlbridge/pkg/cache"
	"github.com/matzehuels/xmlbridge/pkg/observability"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// Source is a named entity source. The name scopes cache keys, so two
// sources with different data must not share a name.
type Source interface {
	schema.Source
	Name() string
}

// cachedSource serves descriptors through the cache. Entity graphs are
// always loaded from the underlying source.
type cachedSource struct {
	Source
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

func (s *cachedSource) Descriptor(ctx context.Context, typeName string) (*schema.Descriptor, error) {
	key := s.keyer.DescriptorKey(s.Name(), typeName)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var d schema.Descriptor
		if err := json.Unmarshal(data, &d); err == nil && d.Validate() == nil {
			observability.Cache().OnCacheHit(ctx, "descriptor")
			return &d, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "descriptor")

	d, err := s.Source.Descriptor(ctx, typeName)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(d); err == nil {
		if err := s.cache.Set(ctx, key, data, cache.DescriptorTTL); err != nil {
			s.logger.Debug("cache descriptor", "type", typeName, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "descriptor", len(data))
		}
	}
	return d, nil
}

