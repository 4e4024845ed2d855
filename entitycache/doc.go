// Package entitycache synchronizes cached entity lists with a REST backend.
//
// # Overview
//
// Cache[T] parameterizes one pattern over every entity type: list reads go
// through a shared query-keyed store, and every mutation follows the same
// optimistic lifecycle so the caller sees its change with zero perceived
// latency while the server remains the source of truth.
//
// # Mutation lifecycle
//
// Each mutation attempt is an explicit transaction:
//
//  1. Begin cancels any in-flight fetch for the key (a slow GET must not
//     overwrite the optimistic value), snapshots the cached list, applies the
//     speculative rewrite (insert in canonical order, patch by id, or remove
//     by id), and installs the result synchronously.
//  2. The network call runs. On failure, Abort restores the snapshot exactly.
//  3. Settle runs in all cases: the key is marked stale so the next read
//     refetches from the backend, and server-rendered routes configured for
//     the entity are revalidated.
//
// Failures are not retried; rollback is immediate and silent. User-facing
// notification is the consumer's concern.
//
// # Ordering
//
// Every cached list must be sorted exactly the way the server returns it,
// so optimistic inserts reproduce the canonical ordering via Options.Less.
// A comparator that diverges from the server causes a visible reorder when
// the reconciling refetch lands.
//
// # Custom rewrites
//
// Entities embedded in another entity's list (gameplays inside tables) do not
// fit the flat Create/Update/Delete shape. Those callers use Mutate directly
// with their own rewrite function and request, sharing the same
// begin/abort/settle discipline.
package entitycache
