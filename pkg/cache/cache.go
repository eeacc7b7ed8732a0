// Package cache provides the key-value cache used by the export pipeline.
//
// Two things are cached: schema descriptors (so repeated exports against a
// slow store skip the metadata round trip) and rendered documents (so an
// unchanged entity graph is never rendered twice). Backends implement
// [Cache]; keys are produced by a [Keyer] so every backend agrees on them.
//
// Backends:
//   - [FileCache]: JSON entries under a local directory (CLI default)
//   - [RedisCache]: shared cache for several exporters
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// DescriptorTTL bounds how long schema metadata is trusted.
	DescriptorTTL = 24 * time.Hour

	// GraphTTL bounds how long an exported document for one entity is
	// served without reloading the entity graph.
	GraphTTL = 10 * time.Minute

	// DocumentTTL applies to documents keyed by the hash of their content
	// source, which never goes stale.
	DocumentTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiry.
//
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored bytes and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
