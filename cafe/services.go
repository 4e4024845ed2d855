package cafe

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cafekit/go-entity-cache/cache"
	"github.com/cafekit/go-entity-cache/entitycache"
	"github.com/cafekit/go-entity-cache/pkg/di"
	"github.com/cafekit/go-entity-cache/rest"
)

// NewTableCache builds the synchronizer for the per-location, per-date table
// lists. Table mutations affect no server-rendered routes.
func NewTableCache(c *di.Container) *entitycache.Cache[Table] {
	return di.NewEntityCache(c, entitycache.Options[Table]{
		BasePath: PathTables,
		ID:       func(t Table) string { return strconv.Itoa(t.ID) },
		Less:     TableLess,
	})
}

// NewVisitCache builds the synchronizer for visit lists. Visits keep server
// order; views sort per display need.
func NewVisitCache(c *di.Container) *entitycache.Cache[Visit] {
	return di.NewEntityCache(c, entitycache.Options[Visit]{
		BasePath: PathVisits,
		ID:       func(v Visit) string { return strconv.Itoa(v.ID) },
	})
}

// NewGameCache builds the synchronizer for the game catalog.
func NewGameCache(c *di.Container) *entitycache.Cache[Game] {
	return di.NewEntityCache(c, entitycache.Options[Game]{
		BasePath:   PathGames,
		ID:         func(g Game) string { return strconv.Itoa(g.ID) },
		Less:       GameLess,
		Revalidate: RevalidationMap[PathGames],
	})
}

// NewUserCache builds the synchronizer for users.
func NewUserCache(c *di.Container) *entitycache.Cache[User] {
	return di.NewEntityCache(c, entitycache.Options[User]{
		BasePath:   PathUsers,
		ID:         func(u User) string { return u.ID },
		Less:       UserLess,
		Revalidate: RevalidationMap[PathUsers],
	})
}

// NewMembershipCache builds the synchronizer for memberships.
func NewMembershipCache(c *di.Container) *entitycache.Cache[Membership] {
	return di.NewEntityCache(c, entitycache.Options[Membership]{
		BasePath:   PathMemberships,
		ID:         func(m Membership) string { return strconv.Itoa(m.ID) },
		Less:       MembershipLess,
		Revalidate: RevalidationMap[PathMemberships],
	})
}

// NewMenuCategoryCache builds the synchronizer for menu categories.
func NewMenuCategoryCache(c *di.Container) *entitycache.Cache[MenuCategory] {
	return di.NewEntityCache(c, entitycache.Options[MenuCategory]{
		BasePath:   PathMenuCategories,
		ID:         func(m MenuCategory) string { return strconv.Itoa(m.ID) },
		Less:       MenuCategoryLess,
		Revalidate: RevalidationMap[PathMenuCategories],
	})
}

// NewMenuItemCache builds the synchronizer for menu items.
func NewMenuItemCache(c *di.Container) *entitycache.Cache[MenuItem] {
	return di.NewEntityCache(c, entitycache.Options[MenuItem]{
		BasePath:   PathMenuItems,
		ID:         func(m MenuItem) string { return strconv.Itoa(m.ID) },
		Less:       MenuItemLess,
		Revalidate: RevalidationMap[PathMenuItems],
	})
}

// GameplayService mutates gameplays, which live embedded in the cached table
// lists: every gameplay mutation is a nested rewrite of the tables under the
// same query key, sharing the tables cache's begin/abort/settle discipline.
type GameplayService struct {
	tables *entitycache.Cache[Table]
	store  cache.Store
	client *rest.Client
}

// NewGameplayService wires a GameplayService against the shared tables cache.
func NewGameplayService(c *di.Container, tables *entitycache.Cache[Table]) *GameplayService {
	return &GameplayService{
		tables: tables,
		store:  c.Store(),
		client: c.Client(),
	}
}

// Create starts a gameplay at the given table. The cached table immediately
// shows the gameplay appended; a table id absent from the cached list leaves
// the list unchanged.
func (s *GameplayService) Create(ctx context.Context, tablesKey string, tableID int, g Gameplay) (Gameplay, error) {
	var created Gameplay
	err := s.tables.Mutate(ctx, tablesKey, func(current []Table) []Table {
		return rewriteTable(current, tableID, func(t Table) Table {
			t.Gameplays = append(append([]Gameplay(nil), t.Gameplays...), g)
			return t
		})
	}, func(ctx context.Context) error {
		var err error
		created, err = rest.Post[Gameplay, Gameplay](ctx, s.client, fmt.Sprintf("%s/%d/gameplay", PathTables, tableID), g)
		return err
	})
	return created, err
}

// Update patches a gameplay by its own id, rewriting it in place inside its
// table's gameplay list.
func (s *GameplayService) Update(ctx context.Context, tablesKey string, tableID, id int, updates map[string]any) (Gameplay, error) {
	var updated Gameplay
	err := s.tables.Mutate(ctx, tablesKey, func(current []Table) []Table {
		return rewriteTable(current, tableID, func(t Table) Table {
			gameplays := append([]Gameplay(nil), t.Gameplays...)
			for i := range gameplays {
				if gameplays[i].ID == id {
					gameplays[i] = entitycache.Merge(gameplays[i], updates)
				}
			}
			t.Gameplays = gameplays
			return t
		})
	}, func(ctx context.Context) error {
		var err error
		updated, err = rest.Patch[map[string]any, Gameplay](ctx, s.client, fmt.Sprintf("%s/%d", PathGameplays, id), updates)
		return err
	})
	return updated, err
}

// Delete removes a gameplay from its table.
func (s *GameplayService) Delete(ctx context.Context, tablesKey string, tableID, id int) error {
	return s.tables.Mutate(ctx, tablesKey, func(current []Table) []Table {
		return rewriteTable(current, tableID, func(t Table) Table {
			gameplays := make([]Gameplay, 0, len(t.Gameplays))
			for _, g := range t.Gameplays {
				if g.ID != id {
					gameplays = append(gameplays, g)
				}
			}
			t.Gameplays = gameplays
			return t
		})
	}, func(ctx context.Context) error {
		return s.client.Delete(ctx, fmt.Sprintf("%s/%d/gameplay/%d", PathTables, tableID, id))
	})
}

// Query runs a paginated, filtered gameplay query through the shared store.
func (s *GameplayService) Query(ctx context.Context, p cache.ListParams) (GameplayPage, error) {
	key := cache.BuildKey(PathGameplayQuery, p)
	return cache.GetOrFetch(ctx, s.store, key, func(ctx context.Context) (GameplayPage, error) {
		return rest.Get[GameplayPage](ctx, s.client, key)
	})
}

// Analytics returns play counts grouped by the field named in p (game or
// mentor), cached under the full filter context.
func (s *GameplayService) Analytics(ctx context.Context, p cache.ListParams) ([]GameplayCount, error) {
	key := cache.BuildKey(PathGameplayGroups, p)
	return cache.GetOrFetch(ctx, s.store, key, func(ctx context.Context) ([]GameplayCount, error) {
		return rest.Get[[]GameplayCount](ctx, s.client, key)
	})
}

// rewriteTable replaces the table with the given id using fn, preserving
// list positions of all other tables and re-sorting canonically. An absent id
// returns the list unchanged.
func rewriteTable(tables []Table, id int, fn func(Table) Table) []Table {
	found := false
	next := make([]Table, len(tables))
	for i, t := range tables {
		if t.ID == id {
			next[i] = fn(t)
			found = true
		} else {
			next[i] = t
		}
	}
	if !found {
		return tables
	}
	return next
}

// VisitService records staff presence. Visits are created when someone
// arrives and finished in place when they leave; there is no delete.
type VisitService struct {
	visits *entitycache.Cache[Visit]
	client *rest.Client
	now    func() time.Time
}

// NewVisitService wires a VisitService against the shared visit cache.
func NewVisitService(c *di.Container, visits *entitycache.Cache[Visit]) *VisitService {
	return &VisitService{
		visits: visits,
		client: c.Client(),
		now:    time.Now,
	}
}

// Create records an arrival.
func (s *VisitService) Create(ctx context.Context, key string, v Visit) (Visit, error) {
	return s.visits.Create(ctx, key, v)
}

// Finish closes an open visit. The backend stamps the finish hour; the
// optimistic rewrite mirrors it with the local clock until reconciliation.
func (s *VisitService) Finish(ctx context.Context, key string, id int) (Visit, error) {
	var finished Visit
	finishHour := TimeString(s.now())
	err := s.visits.Mutate(ctx, key, func(current []Visit) []Visit {
		for i := range current {
			if current[i].ID == id {
				current[i].FinishHour = finishHour
			}
		}
		return current
	}, func(ctx context.Context) error {
		var err error
		finished, err = rest.Patch[map[string]any, Visit](ctx, s.client, fmt.Sprintf("%s/%d", PathVisits, id), map[string]any{})
		return err
	})
	return finished, err
}
