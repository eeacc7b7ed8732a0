package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Open creates the cache named by backend. For "file" target is a
// directory, for "redis" a connection URL; "none" ignores target.
func Open(ctx context.Context, backend, target string) (Cache, error) {
	switch backend {
	case "", BackendFile:
		c, err := NewFileCache(target)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, target)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
}
