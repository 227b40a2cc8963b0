// Package cache defines the formula-result cache the harness uses to play
// the host's caching role. The core pack never touches it; caching is a
// per-formula TTL annotation that the host honors.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Store persists formula results keyed by formula name and a canonical
// hash of the raw invocation parameters.
type Store interface {
	// Get returns the cached result and whether a live entry was found.
	Get(ctx context.Context, formula, paramsHash string) (json.RawMessage, bool, error)

	// Put stores a result with the given time-to-live.
	Put(ctx context.Context, formula, paramsHash string, result json.RawMessage, ttl time.Duration) error

	Close() error
}

// HashParams produces a stable hash of raw invocation parameters.
// encoding/json sorts map keys, so equal parameter sets hash equally
// regardless of insertion order.
func HashParams(params map[string]any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
