package cache

import "context"

// FetchFn is the function signature Store expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Store exposes the caching operations the entity synchronizer needs: the
// read-through path used by list queries, and the explicit read/write path
// used by optimistic mutations. It is exported so that other packages can
// provide alternate cache backends.
type Store interface {
	// GetOrFetch returns the cached value under key, calling fetchFn on a
	// miss and installing the result. A fetchFn error is returned as-is and
	// nothing is cached.
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	// Get returns the cached value under key, if present.
	Get(ctx context.Context, key string) (any, bool)
	// Set installs value under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error
	// Delete removes the entry under key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// Keys returns the keys currently held by the store.
	Keys(ctx context.Context) []string
}

// GetOrFetch is a type-safe wrapper function that provides generic support for Store.
func GetOrFetch[T any](ctx context.Context, store Store, key string, fetchFn FetchFn[T]) (T, error) {
	result, err := store.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		var zero T
		return zero, err
	}
	if result == nil {
		var zero T
		return zero, nil
	}
	return result.(T), nil
}

// GetTyped is a type-safe wrapper around Store.Get. A cached value of a
// different type is treated as a miss.
func GetTyped[T any](ctx context.Context, store Store, key string) (T, bool) {
	result, ok := store.Get(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typed, true
}
