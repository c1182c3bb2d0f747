package timecalc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeOfDay is matched by every *ParseError.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// ParseError reports a time-of-day string that does not match "H:MM am|pm".
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time of day %q: want H:MM am|pm", e.Input)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidTimeOfDay
}

var timeOfDayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([ap]m)$`)

// ParseTimeOfDayStrict parses strings like "9:30am", "12:05 PM" or "11:59pm"
// into decimal hours in [0, 24). 12am is 0 and 12pm is 12.
func ParseTimeOfDayStrict(s string) (float64, error) {
	m := timeOfDayPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, &ParseError{Input: s}
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, &ParseError{Input: s}
	}
	hour %= 12
	if m[3] == "pm" {
		hour += 12
	}
	return float64(hour) + float64(minute)/60, nil
}

// ParseTimeOfDay is ParseTimeOfDayStrict with unparsable input read as 0.
func ParseTimeOfDay(s string) float64 {
	h, err := ParseTimeOfDayStrict(s)
	if err != nil {
		return 0
	}
	return h
}

// FormatTimeOfDay renders t in its own location as a 12-hour clock string
// without a space before the meridiem, e.g. "9:05pm".
func FormatTimeOfDay(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "am"
	if t.Hour() >= 12 {
		meridiem = "pm"
	}
	return fmt.Sprintf("%d:%02d%s", hour, t.Minute(), meridiem)
}
