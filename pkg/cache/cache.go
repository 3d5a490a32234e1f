// Package cache provides content-addressed caching for expensive tool output.
//
// Two things are cached in boardsnap:
//   - kicad-cli layer listings and version probes, stored in a [FileCache]
//     under the user cache directory and keyed by board-file content hash, so
//     repeated comparisons of the same board never re-invoke the tool.
//   - rendered comparison images, stored by the compare package in a
//     session-scoped directory using [Hash] of the target identity.
//
// The [Cache] interface allows caching to be disabled entirely via [NullCache].
package cache

import (
	"context"
	"time"
)

// TTLs for the persistent tool-output caches.
const (
	// TTLLayers is how long a board's layer listing stays valid. The key is
	// a content hash, so a stale entry can only occur if the tool itself
	// changes what it reports for identical input.
	TTLLayers = 7 * 24 * time.Hour

	// TTLProbe is how long a tool version probe stays valid.
	TTLProbe = 24 * time.Hour
)

// Cache is the interface for cache backends. A miss is not an error; Get
// reports it through its boolean return.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
