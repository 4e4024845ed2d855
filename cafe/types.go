package cafe

import (
	"encoding/json"
	"strconv"
)

// FlexID is an identifier that arrives over the wire as either a JSON number
// or a JSON string, depending on the entity.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// User is a staff member who can mentor gameplays.
type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// Game is a catalog entry.
type Game struct {
	ID        int    `json:"_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
	Expansion bool   `json:"expansion"`
	Locations []int  `json:"locations"`
}

// Gameplay is one instance of playing a game at a table. It lives embedded in
// exactly one Table's gameplay list but is addressable by its own id for
// update and delete.
type Gameplay struct {
	ID          int    `json:"_id,omitempty"`
	Date        string `json:"date"`
	StartHour   string `json:"startHour"`
	FinishHour  string `json:"finishHour,omitempty"`
	PlayerCount int    `json:"playerCount"`
	Game        int    `json:"game,omitempty"`
	Mentor      User   `json:"mentor"`
	Location    int    `json:"location"`
}

// InProgress reports whether the gameplay has not finished yet.
func (g Gameplay) InProgress() bool {
	return g.FinishHour == ""
}

// Table is a physical café table opened for a play session.
type Table struct {
	ID          int        `json:"_id,omitempty"`
	Name        string     `json:"name"`
	Date        string     `json:"date"`
	PlayerCount int        `json:"playerCount"`
	Location    int        `json:"location,omitempty"`
	StartHour   string     `json:"startHour"`
	FinishHour  string     `json:"finishHour,omitempty"`
	Gameplays   []Gameplay `json:"gameplays"`
}

// Open reports whether the table has no finish hour recorded yet.
func (t Table) Open() bool {
	return t.FinishHour == ""
}

// Visit is a staff member's presence window at a location, open-ended until
// finished.
type Visit struct {
	ID         int    `json:"_id"`
	Location   int    `json:"location"`
	Date       string `json:"date"`
	User       User   `json:"user"`
	StartHour  string `json:"startHour"`
	FinishHour string `json:"finishHour,omitempty"`
}

// Active reports whether the person is currently at the café.
func (v Visit) Active() bool {
	return v.FinishHour == ""
}

// Membership is a customer membership window.
type Membership struct {
	ID        int    `json:"_id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// MenuCategory groups menu items in display order.
type MenuCategory struct {
	ID    int    `json:"_id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// MenuItem is a food or drink entry with one price per location.
type MenuItem struct {
	ID          int     `json:"_id"`
	Name        string  `json:"name"`
	Category    int     `json:"category"`
	PriceFirst  float64 `json:"priceFirst"`
	PriceSecond float64 `json:"priceSecond"`
}

// Price returns the item's price at the given location id.
func (m MenuItem) Price(location int) float64 {
	if location == SecondLocation {
		return m.PriceSecond
	}
	return m.PriceFirst
}

// GameplayPage is a paginated gameplay query result.
type GameplayPage struct {
	TotalCount int        `json:"totalCount"`
	Items      []Gameplay `json:"items"`
}

// GameplayCount is one row of the play-count analytics grouping. The id is
// a game id or a mentor id depending on the grouping field.
type GameplayCount struct {
	ID        FlexID `json:"_id"`
	PlayCount int    `json:"playCount"`
}

// TableID renders a table id for request paths and cache lookups.
func TableID(id int) string {
	return strconv.Itoa(id)
}
