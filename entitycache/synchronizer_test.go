package entitycache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cafekit/go-entity-cache/cache"
	"github.com/cafekit/go-entity-cache/rest"
)

type item struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func itemLess(a, b item) bool { return a.Name < b.Name }

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestStore(t *testing.T) cache.Store {
	t.Helper()
	store, err := cache.NewStore(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache.NewStore() error: %v", err)
	}
	return store
}

func newItemCache(t *testing.T, handler http.Handler) (*Cache[item], cache.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := newTestStore(t)
	client := rest.NewClient(server.URL, rest.WithLogger(quietLogger()))
	c := New(store, client, Options[item]{
		BasePath: "/items",
		ID:       func(i item) string { return i.ID },
		Less:     itemLess,
		Logger:   quietLogger(),
	})
	return c, store
}

func TestCache_List_SharesOneFetch(t *testing.T) {
	fetches := 0
	c, _ := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		json.NewEncoder(w).Encode([]item{{ID: "1", Name: "a"}})
	}))

	key := c.Key(cache.ListParams{Location: 1})
	for i := 0; i < 3; i++ {
		list, err := c.List(context.Background(), key)
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		if len(list) != 1 || list[0].ID != "1" {
			t.Fatalf("List() = %v", list)
		}
	}

	if fetches != 1 {
		t.Errorf("backend fetched %d times, want 1", fetches)
	}
}

func TestCache_Create_OptimisticInsertKeepsCanonicalOrder(t *testing.T) {
	serverItems := []item{{ID: "1", Name: "b"}, {ID: "2", Name: "d"}}
	c, store := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(item{ID: "3", Name: "c"})
			return
		}
		json.NewEncoder(w).Encode(serverItems)
	}))

	key := c.Key(cache.ListParams{Location: 1})
	ctx := context.Background()
	if _, err := c.List(ctx, key); err != nil {
		t.Fatalf("List() error: %v", err)
	}

	if _, err := c.Create(ctx, key, item{Name: "c"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// The settled key is stale but the optimistic value remains installed
	// until the next read; it must already sit in canonical order.
	got, ok := cache.GetTyped[[]item](ctx, store, key)
	if !ok {
		t.Fatal("cache entry missing after settle")
	}
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	if !reflect.DeepEqual(names, []string{"b", "c", "d"}) {
		t.Errorf("optimistic order = %v, want [b c d]", names)
	}
}

func TestCache_Create_RollbackRestoresExactly(t *testing.T) {
	serverItems := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	c, store := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			http.Error(w, "validation failed", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(serverItems)
	}))

	key := c.Key(cache.ListParams{})
	ctx := context.Background()
	before, err := c.List(ctx, key)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	if _, err := c.Create(ctx, key, item{Name: "z"}); err == nil {
		t.Fatal("Create() error = nil, want backend failure")
	}

	after, ok := cache.GetTyped[[]item](ctx, store, key)
	if !ok {
		t.Fatal("cache entry missing after rollback")
	}
	if !reflect.DeepEqual(after, before) {
		t.Errorf("rollback state = %v, want %v", after, before)
	}
}

func TestCache_Update_PatchesMatchingElement(t *testing.T) {
	serverItems := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	c, store := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			json.NewEncoder(w).Encode(item{ID: "2", Name: "renamed"})
			return
		}
		json.NewEncoder(w).Encode(serverItems)
	}))

	key := c.Key(cache.ListParams{})
	ctx := context.Background()
	if _, err := c.List(ctx, key); err != nil {
		t.Fatalf("List() error: %v", err)
	}

	updated, err := c.Update(ctx, key, "2", map[string]any{"name": "renamed"})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if updated.Name != "renamed" {
		t.Errorf("Update() = %+v", updated)
	}

	got, _ := cache.GetTyped[[]item](ctx, store, key)
	want := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "renamed"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cached list = %v, want %v", got, want)
	}
}

func TestCache_Update_UnknownIDIsNoop(t *testing.T) {
	serverItems := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	c, store := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			json.NewEncoder(w).Encode(item{})
			return
		}
		json.NewEncoder(w).Encode(serverItems)
	}))

	key := c.Key(cache.ListParams{})
	ctx := context.Background()
	before, err := c.List(ctx, key)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	if _, err := c.Update(ctx, key, "404", map[string]any{"name": "x"}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, _ := cache.GetTyped[[]item](ctx, store, key)
	if !reflect.DeepEqual(got, before) {
		t.Errorf("list changed for unknown id: %v, want %v", got, before)
	}
}

func TestCache_Delete_RemovesExactlyOne(t *testing.T) {
	serverItems := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}, {ID: "3", Name: "c"}}
	c, store := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(serverItems)
	}))

	key := c.Key(cache.ListParams{})
	ctx := context.Background()
	if _, err := c.List(ctx, key); err != nil {
		t.Fatalf("List() error: %v", err)
	}

	if err := c.Delete(ctx, key, "2"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	got, _ := cache.GetTyped[[]item](ctx, store, key)
	if len(got) != 2 {
		t.Fatalf("list length = %d, want 2", len(got))
	}
	for _, it := range got {
		if it.ID == "2" {
			t.Errorf("deleted id still present: %v", got)
		}
	}

	// Deleting a nonexistent id leaves the list unchanged.
	before := got
	if err := c.Delete(ctx, key, "404"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	after, _ := cache.GetTyped[[]item](ctx, store, key)
	if !reflect.DeepEqual(after, before) {
		t.Errorf("list changed for nonexistent id: %v, want %v", after, before)
	}
}

func TestCache_SettleMarksStaleForRefetch(t *testing.T) {
	fetches := 0
	serverItems := []item{{ID: "1", Name: "a"}}
	c, _ := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created := item{ID: "2", Name: "b"}
			serverItems = append(serverItems, created)
			json.NewEncoder(w).Encode(created)
			return
		}
		fetches++
		json.NewEncoder(w).Encode(serverItems)
	}))

	key := c.Key(cache.ListParams{})
	ctx := context.Background()
	if _, err := c.List(ctx, key); err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if _, err := c.Create(ctx, key, item{Name: "b"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// The key went stale on settle, so this read reconciles with the server.
	list, err := c.List(ctx, key)
	if err != nil {
		t.Fatalf("List() after settle error: %v", err)
	}
	if fetches != 2 {
		t.Errorf("backend fetched %d times, want 2 (initial + reconciling refetch)", fetches)
	}
	if len(list) != 2 || list[1].ID != "2" {
		t.Errorf("reconciled list = %v", list)
	}
}

func TestCache_MutationCancelsInflightFetch(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	c, store := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(item{ID: "9", Name: "new"})
			return
		}
		entered <- struct{}{}
		<-release
		json.NewEncoder(w).Encode([]item{{ID: "1", Name: "stale"}})
	}))
	defer close(release)

	key := c.Key(cache.ListParams{})
	ctx := context.Background()

	listErr := make(chan error, 1)
	go func() {
		_, err := c.List(ctx, key)
		listErr <- err
	}()
	<-entered

	// The optimistic write must win over the stale in-flight read.
	if _, err := c.Create(ctx, key, item{Name: "new"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := <-listErr; err == nil {
		t.Error("cancelled List() returned nil error")
	}

	got, ok := cache.GetTyped[[]item](ctx, store, key)
	if !ok {
		t.Fatal("cache entry missing after mutation")
	}
	for _, it := range got {
		if it.Name == "stale" {
			t.Errorf("stale fetch overwrote the optimistic value: %v", got)
		}
	}
}

func TestCache_WatchSeesOptimisticThenSettled(t *testing.T) {
	serverItems := []item{{ID: "1", Name: "a"}}
	c, _ := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(item{ID: "2", Name: "b"})
			return
		}
		json.NewEncoder(w).Encode(serverItems)
	}))

	key := c.Key(cache.ListParams{})
	ctx := context.Background()
	if _, err := c.List(ctx, key); err != nil {
		t.Fatalf("List() error: %v", err)
	}

	ch, stop := c.Watch(key)
	defer stop()

	if _, err := c.Create(ctx, key, item{Name: "b"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	var results []Result[item]
	for len(results) < 2 {
		select {
		case res := <-ch:
			results = append(results, res)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d notifications", len(results))
		}
	}

	if len(results[0].Data) != 2 || results[0].Loading {
		t.Errorf("first notification = %+v, want optimistic data", results[0])
	}
	if !results[1].Loading {
		t.Errorf("second notification = %+v, want loading hint after settle", results[1])
	}
}

func TestCache_MutateOnEmptyCacheRollsBackToMiss(t *testing.T) {
	c, store := newItemCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))

	key := c.Key(cache.ListParams{})
	ctx := context.Background()

	// No List() beforehand: the key has never been populated.
	if _, err := c.Create(ctx, key, item{Name: "x"}); err == nil {
		t.Fatal("Create() error = nil, want failure")
	}

	if _, ok := store.Get(ctx, key); ok {
		t.Error("rollback left an entry for a key that was never populated")
	}
}
