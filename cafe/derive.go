package cafe

import (
	"reflect"
	"sync"
)

// TableStats is the dashboard header derived from one cached table list.
type TableStats struct {
	OpenTables      int
	TotalTables     int
	ActiveCustomers int
	TotalCustomers  int
}

// StatsFor derives the dashboard counts: active customers sit at open tables,
// total customers count every table of the day.
func StatsFor(tables []Table) TableStats {
	var stats TableStats
	stats.TotalTables = len(tables)
	for _, t := range tables {
		stats.TotalCustomers += t.PlayerCount
		if t.Open() {
			stats.OpenTables++
			stats.ActiveCustomers += t.PlayerCount
		}
	}
	return stats
}

// OpenTables filters to the tables still open.
func OpenTables(tables []Table) []Table {
	open := make([]Table, 0, len(tables))
	for _, t := range tables {
		if t.Open() {
			open = append(open, t)
		}
	}
	return open
}

// SplitColumns distributes tables round-robin across n display columns,
// preserving list order within each column.
func SplitColumns(tables []Table, n int) [][]Table {
	if n <= 0 {
		n = 1
	}
	columns := make([][]Table, n)
	for i, t := range tables {
		columns[i%n] = append(columns[i%n], t)
	}
	return columns
}

// FindDefaultMentor locates the house account in a user list.
func FindDefaultMentor(users []User) *User {
	for i := range users {
		if users[i].ID == DefaultMentorID {
			return &users[i]
		}
	}
	return nil
}

// MentorPool derives the mentor-selection pool for new gameplays: the default
// house user plus everyone with an open visit. The pool is memoized by deep
// equality so a recompute from unchanged inputs keeps the previous slice
// identity, sparing downstream consumers a spurious refresh.
type MentorPool struct {
	mu   sync.Mutex
	pool []User
}

// Update recomputes the pool from the current visit list and returns it.
func (p *MentorPool) Update(defaultMentor *User, visits []Visit) []User {
	next := []User{}
	if defaultMentor != nil {
		next = append(next, *defaultMentor)
	}
	for _, v := range visits {
		if v.Active() {
			next = append(next, v.User)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if reflect.DeepEqual(p.pool, next) {
		return p.pool
	}
	p.pool = next
	return p.pool
}
