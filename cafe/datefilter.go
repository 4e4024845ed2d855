package cafe

import (
	"time"

	"github.com/cafekit/go-entity-cache/cache"
)

// DateFilter selects a preset date range for analytics queries.
type DateFilter string

// Date range presets, matching the values the filter dropdown submits.
const (
	FilterManual    DateFilter = "0"
	FilterThisWeek  DateFilter = "1"
	FilterLastWeek  DateFilter = "2"
	FilterThisMonth DateFilter = "3"
	FilterLastMonth DateFilter = "4"
)

// StartEndDates resolves a preset into wire-format range bounds relative to
// now. Open-ended presets (this week, this month) leave the end date empty;
// FilterManual leaves both empty for the caller to fill in.
func (f DateFilter) StartEndDates(now time.Time) (startDate, endDate string) {
	switch f {
	case FilterThisWeek:
		return cache.FormatDate(startOfISOWeek(now)), ""
	case FilterLastWeek:
		lastWeek := now.AddDate(0, 0, -7)
		return cache.FormatDate(startOfISOWeek(lastWeek)), cache.FormatDate(endOfISOWeek(lastWeek))
	case FilterThisMonth:
		return cache.FormatDate(startOfMonth(now)), ""
	case FilterLastMonth:
		lastMonth := startOfMonth(now).AddDate(0, 0, -1)
		return cache.FormatDate(startOfMonth(lastMonth)), cache.FormatDate(endOfMonth(lastMonth))
	}
	return "", ""
}

func startOfISOWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return truncateDay(t).AddDate(0, 0, -daysSinceMonday)
}

func endOfISOWeek(t time.Time) time.Time {
	return startOfISOWeek(t).AddDate(0, 0, 6)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, -1)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
