package shifts

import (
	"encoding/json"
	"slices"
	"time"
)

// Shift aggregates every segment an employee worked on one calendar day.
// Hours always equals the sum of the segment hours; use Add to keep it so.
type Shift struct {
	Date     time.Time
	Employee string
	Segments []Segment
	Hours    float64
}

// Add appends seg and recomputes Hours.
func (s *Shift) Add(seg Segment) {
	s.Segments = append(s.Segments, seg)
	var total float64
	for _, sg := range s.Segments {
		total += sg.Hours()
	}
	s.Hours = total
}

type shiftJSON struct {
	Date     string    `json:"date"`
	Employee string    `json:"employee"`
	Segments []Segment `json:"segments"`
	Hours    float64   `json:"hours"`
}

func (s Shift) MarshalJSON() ([]byte, error) {
	segs := s.Segments
	if segs == nil {
		segs = []Segment{}
	}
	return json.Marshal(shiftJSON{
		Date:     s.Date.Format("2006-01-02"),
		Employee: s.Employee,
		Segments: segs,
		Hours:    s.Hours,
	})
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// Accumulator collects segments into one Shift per calendar day.
type Accumulator struct {
	employee string
	byDay    map[dayKey]*Shift
}

func NewAccumulator(employee string) *Accumulator {
	return &Accumulator{
		employee: employee,
		byDay:    make(map[dayKey]*Shift),
	}
}

// Add attaches seg to the shift of its start day, creating it if needed.
func (a *Accumulator) Add(seg Segment) {
	k := keyOf(seg.Start)
	sh, ok := a.byDay[k]
	if !ok {
		sh = &Shift{Date: seg.Day(), Employee: a.employee}
		a.byDay[k] = sh
	}
	sh.Add(seg)
}

// Shifts returns a copy of the collected shifts sorted by date.
func (a *Accumulator) Shifts() []Shift {
	out := make([]Shift, 0, len(a.byDay))
	for _, sh := range a.byDay {
		cp := *sh
		cp.Segments = slices.Clone(sh.Segments)
		out = append(out, cp)
	}
	slices.SortFunc(out, func(x, y Shift) int {
		return x.Date.Compare(y.Date)
	})
	return out
}
