package entitycache

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/cafekit/go-entity-cache/cache"
	"github.com/cafekit/go-entity-cache/rest"
)

// Result is the tri-state a watcher receives: data, an error, or a loading
// hint after a key went stale. Consumers must check Err before rendering.
type Result[T any] struct {
	Data    []T
	Err     error
	Loading bool
}

// Options parameterizes a Cache for one entity type.
type Options[T any] struct {
	// BasePath is the entity's REST collection path, e.g. "/tables".
	BasePath string

	// ID extracts an entity's identifier, normalized to a string.
	ID func(T) string

	// Less is the canonical comparator for this entity's list endpoint. It
	// must mirror the server's ordering exactly, otherwise reconciliation
	// visibly reorders the list. Nil keeps insertion order.
	Less func(a, b T) bool

	// Revalidate names the server-rendered routes regenerated after every
	// mutation of this entity. Empty means no revalidation.
	Revalidate []string

	// Revalidator performs the route regeneration calls. Nil disables it.
	Revalidator *rest.Revalidator

	// Logger for the mutation lifecycle. Nil falls back to the standard logger.
	Logger logrus.FieldLogger
}

// Cache synchronizes the cached lists of one entity type with the REST
// backend. Reads go through the shared store; mutations rewrite the cached
// list speculatively, roll back on failure, and mark the key stale on
// settlement so the next read reconciles with server truth. No other
// component touches cache state directly.
type Cache[T any] struct {
	opts     Options[T]
	store    cache.Store
	client   *rest.Client
	log      logrus.FieldLogger
	inflight *xsync.MapOf[string, *fetchHandle]
	stale    *xsync.MapOf[string, struct{}]
	watchers *xsync.MapOf[string, []chan Result[T]]
}

type fetchHandle struct {
	cancel context.CancelFunc
}

// New creates a Cache for one entity type on top of the shared store and
// request client.
func New[T any](store cache.Store, client *rest.Client, opts Options[T]) *Cache[T] {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache[T]{
		opts:     opts,
		store:    store,
		client:   client,
		log:      log.WithField("entity", opts.BasePath),
		inflight: xsync.NewMapOf[string, *fetchHandle](),
		stale:    xsync.NewMapOf[string, struct{}](),
		watchers: xsync.NewMapOf[string, []chan Result[T]](),
	}
}

// Key derives the query key for this entity under the given filter context.
func (c *Cache[T]) Key(p cache.ListParams) string {
	return cache.BuildKey(c.opts.BasePath, p)
}

// List returns the cached list under key, fetching from the backend on a
// miss or after the key went stale. Concurrent callers share one in-flight
// request.
func (c *Cache[T]) List(ctx context.Context, key string) ([]T, error) {
	if _, wasStale := c.stale.LoadAndDelete(key); wasStale {
		if err := c.store.Delete(ctx, key); err != nil {
			return nil, err
		}
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	handle := &fetchHandle{cancel: cancel}
	c.inflight.Store(key, handle)
	defer c.inflight.Compute(key, func(old *fetchHandle, loaded bool) (*fetchHandle, bool) {
		if loaded && old == handle {
			return nil, true
		}
		return old, !loaded
	})

	list, err := cache.GetOrFetch(fetchCtx, c.store, key, func(ctx context.Context) ([]T, error) {
		return rest.Get[[]T](ctx, c.client, key)
	})
	if err != nil {
		return nil, err
	}
	c.notify(key, Result[T]{Data: list})
	return list, nil
}

// Prefetch warms the cache for a set of keys, e.g. before handing state to a
// server-rendered page. The first fetch failure aborts.
func (c *Cache[T]) Prefetch(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := c.List(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Watch subscribes to cache changes under key. The returned stop function
// must be called when the watcher goes away. Slow watchers may miss
// intermediate states; the latest Result always follows.
func (c *Cache[T]) Watch(key string) (<-chan Result[T], func()) {
	ch := make(chan Result[T], 16)
	c.watchers.Compute(key, func(old []chan Result[T], _ bool) ([]chan Result[T], bool) {
		return append(old, ch), false
	})
	stop := func() {
		c.watchers.Compute(key, func(old []chan Result[T], loaded bool) ([]chan Result[T], bool) {
			if !loaded {
				return nil, true
			}
			next := make([]chan Result[T], 0, len(old))
			for _, w := range old {
				if w != ch {
					next = append(next, w)
				}
			}
			return next, len(next) == 0
		})
	}
	return ch, stop
}

func (c *Cache[T]) notify(key string, res Result[T]) {
	subs, ok := c.watchers.Load(key)
	if !ok {
		return
	}
	for _, ch := range subs {
		select {
		case ch <- res:
		default:
		}
	}
}

// CancelPending cancels any in-flight fetch for key so a slow GET cannot
// overwrite a later optimistic write.
func (c *Cache[T]) CancelPending(key string) {
	if handle, ok := c.inflight.LoadAndDelete(key); ok {
		handle.cancel()
	}
}

// Txn records one mutation attempt: the key it rewrote and the snapshot
// taken before the speculative write. It is consumed by either settle
// (discard) or abort (restore).
type Txn[T any] struct {
	ID       string
	Key      string
	Previous []T
	had      bool
}

// Begin cancels in-flight fetches for key, snapshots the current list,
// applies rewrite, and installs the result synchronously. The caller sees the
// speculative list before any network call resolves.
func (c *Cache[T]) Begin(ctx context.Context, key string, rewrite func(current []T) []T) Txn[T] {
	c.CancelPending(key)

	current, had := cache.GetTyped[[]T](ctx, c.store, key)
	snapshot := append([]T(nil), current...)

	next := rewrite(append([]T(nil), current...))
	if err := c.store.Set(ctx, key, next); err != nil {
		c.log.WithField("key", key).WithError(err).Warn("optimistic write failed")
	}
	c.notify(key, Result[T]{Data: next})

	tx := Txn[T]{ID: uuid.NewString(), Key: key, Previous: snapshot, had: had}
	c.log.WithFields(logrus.Fields{"key": key, "txn": tx.ID}).Debug("mutation begun")
	return tx
}

// Abort restores the pre-mutation snapshot exactly.
func (c *Cache[T]) Abort(ctx context.Context, tx Txn[T]) {
	if tx.had {
		if err := c.store.Set(ctx, tx.Key, tx.Previous); err != nil {
			c.log.WithField("key", tx.Key).WithError(err).Warn("rollback write failed")
		}
	} else {
		if err := c.store.Delete(ctx, tx.Key); err != nil {
			c.log.WithField("key", tx.Key).WithError(err).Warn("rollback delete failed")
		}
	}
	c.notify(tx.Key, Result[T]{Data: tx.Previous})
	c.log.WithFields(logrus.Fields{"key": tx.Key, "txn": tx.ID}).Debug("mutation rolled back")
}

// Settle marks the key stale so the next read refetches from the source of
// truth, and triggers server-rendered route revalidation when configured.
// It runs after success and after failure alike; the cached value (optimistic
// or restored) stays visible until that refetch.
func (c *Cache[T]) Settle(ctx context.Context, tx Txn[T]) {
	c.stale.Store(tx.Key, struct{}{})

	if c.opts.Revalidator != nil && len(c.opts.Revalidate) > 0 {
		// Failures keep the last good render; nothing to do beyond logging,
		// which the revalidator already does.
		_ = c.opts.Revalidator.Revalidate(ctx, c.opts.Revalidate)
	}

	current, _ := cache.GetTyped[[]T](ctx, c.store, tx.Key)
	c.notify(tx.Key, Result[T]{Data: current, Loading: true})
	c.log.WithFields(logrus.Fields{"key": tx.Key, "txn": tx.ID}).Debug("mutation settled")
}

// Mutate runs one mutation attempt against key: speculative rewrite, the
// network call, rollback on failure, settlement in all cases. The error from
// call is returned untouched.
func (c *Cache[T]) Mutate(ctx context.Context, key string, rewrite func(current []T) []T, call func(ctx context.Context) error) error {
	tx := c.Begin(ctx, key, rewrite)
	err := call(ctx)
	if err != nil {
		c.Abort(ctx, tx)
	}
	c.Settle(ctx, tx)
	return err
}

// Create persists item via POST, optimistically inserting it into the cached
// list under key in canonical order. The item may lack a server-assigned id
// until the backend responds; the returned entity carries it.
func (c *Cache[T]) Create(ctx context.Context, key string, item T) (T, error) {
	var created T
	err := c.Mutate(ctx, key, func(current []T) []T {
		next := append(current, item)
		c.sortList(next)
		return next
	}, func(ctx context.Context) error {
		var err error
		created, err = rest.Post[T, T](ctx, c.client, c.opts.BasePath, item)
		return err
	})
	return created, err
}

// Update persists a partial update via PATCH by id, optimistically patching
// the matching cached element in place. An id absent from the cached list is
// a silent no-op locally; the reconciling refetch reveals whatever the server
// did.
func (c *Cache[T]) Update(ctx context.Context, key, id string, updates map[string]any) (T, error) {
	var updated T
	err := c.Mutate(ctx, key, func(current []T) []T {
		for i := range current {
			if c.opts.ID(current[i]) == id {
				current[i] = Merge(current[i], updates)
			}
		}
		c.sortList(current)
		return current
	}, func(ctx context.Context) error {
		var err error
		updated, err = rest.Patch[map[string]any, T](ctx, c.client, c.opts.BasePath+"/"+id, updates)
		return err
	})
	return updated, err
}

// Delete removes the entity via DELETE by id, optimistically filtering it out
// of the cached list. Deleting an id absent from the cached list leaves the
// list unchanged.
func (c *Cache[T]) Delete(ctx context.Context, key, id string) error {
	return c.Mutate(ctx, key, func(current []T) []T {
		next := current[:0]
		for _, item := range current {
			if c.opts.ID(item) != id {
				next = append(next, item)
			}
		}
		c.sortList(next)
		return next
	}, func(ctx context.Context) error {
		return c.client.Delete(ctx, c.opts.BasePath+"/"+id)
	})
}

func (c *Cache[T]) sortList(list []T) {
	if c.opts.Less == nil {
		return
	}
	sort.SliceStable(list, func(i, j int) bool {
		return c.opts.Less(list[i], list[j])
	})
}
