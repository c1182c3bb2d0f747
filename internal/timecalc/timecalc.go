package timecalc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique record ID based on timestamp and random suffix.
func GenerateID(t time.Time) string {
	return fmt.Sprintf("%s-%s", t.Format("20060102-150405"), uuid.NewString()[:8])
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatHours renders decimal hours with two decimals, e.g. "7.98h".
func FormatHours(hours float64) string {
	return fmt.Sprintf("%.2fh", hours)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := AddDays(t, -(wd - 1))
	sunday := EndOfDay(AddDays(monday, 6))
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns the first instant of t's calendar day. That is
// 00:00:00 unless a DST change skips midnight, in which case it is the
// instant the new offset takes effect.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	if start.Day() != d {
		if _, end := start.ZoneBounds(); !end.IsZero() {
			return end
		}
	}
	return start
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// DayEnd returns 23:59:00 of the same day. Shift segments that run past
// midnight are closed at this instant so that their time of day stays
// inside [0, 24).
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, t.Location())
}

// AddDays returns the start of the calendar day n days after t's day.
// Days are counted by calendar date, not by 24h steps.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return StartOfDay(time.Date(y, m, d+n, 12, 0, 0, 0, t.Location()))
}

// NextDay returns the start of the calendar day after t.
func NextDay(t time.Time) time.Time {
	return AddDays(t, 1)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD flag value as the start of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return StartOfDay(time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc)), nil
}
