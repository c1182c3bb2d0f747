package shifts

import (
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/tclock/internal/timecalc"
)

// ErrInvalidInterval is matched by every *InvalidIntervalError.
var ErrInvalidInterval = errors.New("invalid interval")

// InvalidIntervalError reports an interval whose end lies before its start.
type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: end %s is before start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

func (e *InvalidIntervalError) Is(target error) bool {
	return target == ErrInvalidInterval
}

// SplitAcrossDays cuts [start, end] into one segment per calendar day in
// loc. The first day closes at 11:59pm, later days open at 12:00am and
// days in between span 12:00am-11:59pm. Only the last segment can be
// virtual.
func SplitAcrossDays(start, end time.Time, finalVirtual bool, loc *time.Location) ([]Segment, error) {
	if end.Before(start) {
		return nil, &InvalidIntervalError{Start: start, End: end}
	}
	if loc == nil {
		loc = time.Local
	}
	start, end = start.In(loc), end.In(loc)

	if timecalc.SameDay(start, end) {
		return []Segment{{Start: start, End: end, Virtual: finalVirtual}}, nil
	}

	startDay := timecalc.StartOfDay(start)
	endDay := timecalc.StartOfDay(end)

	var segs []Segment
	for day := startDay; !day.After(endDay); day = timecalc.NextDay(day) {
		switch {
		case day.Equal(startDay):
			segs = append(segs, Segment{Start: start, End: timecalc.DayEnd(day)})
		case day.Equal(endDay):
			segs = append(segs, Segment{Start: day, End: end, Virtual: finalVirtual})
		default:
			segs = append(segs, Segment{Start: day, End: timecalc.DayEnd(day)})
		}
	}
	return segs, nil
}
