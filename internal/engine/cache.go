package engine

import (
	"context"
	"time"
)

// Cache is the persistence capability the engine consumes. It holds the
// whole-index snapshot under SnapshotKey and individual query results under
// derived keys. A failing cache degrades the engine (cold starts, repeated
// query work) but never breaks it.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Delete removes key if present.
	Delete(ctx context.Context, key string) error
}

// SnapshotKey is the cache key holding the serialized whole-index snapshot.
const SnapshotKey = "search_index"

const queryKeyPrefix = "search:q:"
