package cafe

// Location ids of the two branches.
const (
	FirstLocation  = 1
	SecondLocation = 2
)

// DefaultMentorID is the house account that is always part of the
// mentor-selection pool, staffed or not.
const DefaultMentorID = "dv"

// Entity collection paths on the REST backend.
const (
	PathTables         = "/tables"
	PathGameplays      = "/gameplays"
	PathGameplayQuery  = "/gameplays/query"
	PathGameplayGroups = "/gameplays/group"
	PathVisits         = "/visits"
	PathGames          = "/games"
	PathUsers          = "/users"
	PathMemberships    = "/memberships"
	PathMenuCategories = "/menu/categories"
	PathMenuItems      = "/menu/items"
)

// RevalidationMap names the server-rendered routes that must be regenerated
// whenever an entity at the key path is mutated. Entities absent from the map
// affect no server-rendered pages.
var RevalidationMap = map[string][]string{
	PathUsers:          {"/1", "/2", "/gameplays", "/users"},
	PathGames:          {"/1", "/2", "/gameplays", "/games"},
	PathMemberships:    {"/memberships"},
	PathMenuCategories: {"/menu"},
	PathMenuItems:      {"/menu"},
}
