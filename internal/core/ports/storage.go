package ports

import (
	"context"
	"time"
)

// Scope is one key-value storage scope (durable or ephemeral).
type Scope interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Remove deletes keys; missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
	// Ping checks the backing store is reachable.
	Ping(ctx context.Context) error
}
