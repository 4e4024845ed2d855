// Package cache provides the shared query cache used by the entity
// synchronizer: a Store interface with typed helpers, a deterministic query
// key builder, and configuration for the default in-memory backend.
//
// # Query keys
//
// A query key identifies "this list of entities under this filter context".
// It is built from an entity base path plus the active filter parameters:
//
//	key := cache.BuildKey("/tables", cache.ListParams{Location: 1, Date: "2024-01-01"})
//	// "/tables?location=1&date=2024-01-01"
//
// The key is used both as the cache lookup key and as the request path, so
// building it is the only place filter context is encoded. Two calls with
// identical parameters yield identical strings; zero-valued optional
// parameters are omitted rather than rendered as placeholders.
//
// # Store
//
// Store is intentionally small: a read-through GetOrFetch for list queries,
// plus explicit Get/Set/Delete for the optimistic write path. The default
// implementation is backed by sturdyc (see internal/cacheinfra); it is shared
// process-wide by every subscriber of the same key.
//
// The interface is any-based so a single store can hold lists of every entity
// type; GetOrFetch[T] and GetTyped[T] recover type safety at the call site.
package cache
