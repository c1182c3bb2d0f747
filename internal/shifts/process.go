// Package shifts rebuilds per-day shifts from raw clock-in/clock-out events.
//
// Reconstruction is pure: it performs no I/O and keeps no state between
// calls. The only outside input is the Clock consulted when an open
// interval is closed at "now".
package shifts

import (
	"cmp"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/tclock/internal/model"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Options controls how Process treats the edges of the event window.
type Options struct {
	// PeriodStart, when set, opens an interval at the start of the window
	// if the first event is a clock-out.
	PeriodStart time.Time
	// SynthesizeOpenEnd closes a trailing open interval at Clock.Now()
	// with a virtual final segment. Otherwise the open interval is dropped.
	SynthesizeOpenEnd bool
	Clock             Clock
	// Location decides calendar days. Nil means time.Local.
	Location *time.Location
	Logger   *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Process pairs clock events into intervals and returns the employee's
// shifts sorted by date. Duplicate clock-ins and clock-outs without an
// open interval are skipped. The only error is ErrInvalidInterval, when
// PeriodStart or Clock.Now() lies before the instant it would be paired
// with.
func Process(events []model.ClockEvent, employee string, opts Options) ([]Shift, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("employee", employee))

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b model.ClockEvent) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	acc := NewAccumulator(employee)
	addInterval := func(start, end time.Time, virtual bool) error {
		segs, err := SplitAcrossDays(start, end, virtual, opts.Location)
		if err != nil {
			return err
		}
		for _, seg := range segs {
			acc.Add(seg)
		}
		return nil
	}

	var (
		openAt time.Time
		isOpen bool
	)
	if !opts.PeriodStart.IsZero() && len(sorted) > 0 && sorted[0].ClockOut {
		openAt, isOpen = opts.PeriodStart, true
		log.Debug("window starts mid-shift", zap.Time("period_start", openAt))
	}

	for _, ev := range sorted {
		at := ev.Time(opts.Location)
		if !ev.ClockOut {
			if isOpen {
				log.Debug("ignoring clock-in while clocked in", zap.Time("at", at))
				continue
			}
			openAt, isOpen = at, true
			continue
		}
		if !isOpen {
			log.Debug("ignoring clock-out without clock-in", zap.Time("at", at))
			continue
		}
		if err := addInterval(openAt, at, false); err != nil {
			return nil, err
		}
		isOpen = false
	}

	if isOpen {
		if opts.SynthesizeOpenEnd {
			if err := addInterval(openAt, opts.Clock.Now(), true); err != nil {
				return nil, err
			}
		} else {
			log.Debug("dropping open interval", zap.Time("since", openAt))
		}
	}
	return acc.Shifts(), nil
}

// TotalHours is the sum of hours over Process(events, employee, opts).
func TotalHours(events []model.ClockEvent, employee string, opts Options) (float64, error) {
	shifts, err := Process(events, employee, opts)
	if err != nil {
		return 0, err
	}
	return SumHours(shifts), nil
}

// SumHours adds up the hours of the given shifts.
func SumHours(shifts []Shift) float64 {
	var total float64
	for _, s := range shifts {
		total += s.Hours
	}
	return total
}
