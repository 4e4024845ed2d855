package cafe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HourFormat is the wire format for clock times ("14:30").
const HourFormat = "15:04"

// TimeString renders t's clock time in the wire format.
func TimeString(t time.Time) string {
	return t.Format(HourFormat)
}

// parseClock resolves an "HH:MM" string on the given calendar day.
func parseClock(day time.Time, hhmm string) (time.Time, bool) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Duration reports how long a session running from startHour to finishHour on
// the given day lasted. A session without a finish hour is still running: on
// the current day it is measured against now; on a past day it is closed out
// at end of day. Sessions crossing midnight wrap forward.
func Duration(day time.Time, startHour, finishHour string, now time.Time) time.Duration {
	start, ok := parseClock(day, startHour)
	if !ok {
		return 0
	}

	var finish time.Time
	switch {
	case finishHour != "":
		finish, ok = parseClock(day, finishHour)
		if !ok {
			return 0
		}
	case sameDay(day, now):
		finish = now
	default:
		finish = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
	}

	d := finish.Sub(start)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d
}

// FormatDuration renders a duration as "1h 30m", dropping the hour part for
// sub-hour durations.
func FormatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
