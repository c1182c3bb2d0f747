package shifts

import (
	"encoding/json"
	"time"

	"github.com/Tiliavir/tclock/internal/timecalc"
)

// Segment is the part of one clocked interval that falls inside a single
// calendar day. Start and End carry the location the day was computed in.
type Segment struct {
	Start   time.Time
	End     time.Time
	Virtual bool
}

// StartLabel renders the segment start as a time of day, e.g. "9:30am".
func (s Segment) StartLabel() string {
	return timecalc.FormatTimeOfDay(s.Start)
}

// EndLabel renders the segment end as a time of day, e.g. "11:59pm".
func (s Segment) EndLabel() string {
	return timecalc.FormatTimeOfDay(s.End)
}

// Day returns the calendar day the segment belongs to.
func (s Segment) Day() time.Time {
	return timecalc.StartOfDay(s.Start)
}

// Hours returns the segment duration computed from its time-of-day labels.
func (s Segment) Hours() float64 {
	return SpanHours(s.StartLabel(), s.EndLabel())
}

// SpanHours returns the hours between two time-of-day strings. An end
// before the start wraps past midnight. Unparsable strings count as 12am.
func SpanHours(start, end string) float64 {
	from := timecalc.ParseTimeOfDay(start)
	to := timecalc.ParseTimeOfDay(end)
	if to >= from {
		return to - from
	}
	return (24 - from) + to
}

type segmentJSON struct {
	Start   string    `json:"start"`
	End     string    `json:"end"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Virtual bool      `json:"virtual"`
	Hours   float64   `json:"hours"`
}

func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(segmentJSON{
		Start:   s.StartLabel(),
		End:     s.EndLabel(),
		StartAt: s.Start,
		EndAt:   s.End,
		Virtual: s.Virtual,
		Hours:   s.Hours(),
	})
}
