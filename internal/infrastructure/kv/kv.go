package kv

import "context"

// Store is a namespaced string key-value store. There are no transactions
// and no atomic multi-key writes; callers own any higher-level consistency.
type Store interface {
	// Get returns the value for key. The second result is false when the
	// key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
