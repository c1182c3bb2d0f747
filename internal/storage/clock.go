package storage

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/shifts"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

// lookbackDays bounds how far back LastRecord searches for an employee's
// most recent swipe.
const lookbackDays = 31

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
)

// LastRecord returns the newest record of employee at or before now, or
// nil if there is none within the lookback window.
func LastRecord(base string, loc *time.Location, employee string, now time.Time) (*model.ClockRecord, error) {
	if loc == nil {
		loc = time.Local
	}
	day := now.In(loc)
	for i := 0; i < lookbackDays; i++ {
		df, err := LoadDay(base, timecalc.AddDays(day, -i))
		if err != nil {
			return nil, err
		}
		for j := len(df.Records) - 1; j >= 0; j-- {
			r := df.Records[j]
			if r.Employee == employee && r.Timestamp <= now.Unix() {
				return &r, nil
			}
		}
	}
	return nil, nil
}

// Status reports whether employee is clocked in at now, together with the
// record that decided it.
func Status(base string, loc *time.Location, employee string, now time.Time) (bool, *model.ClockRecord, error) {
	last, err := LastRecord(base, loc, employee, now)
	if err != nil {
		return false, nil, err
	}
	return last != nil && !last.ClockOut, last, nil
}

// ClockIn records a clock-in for employee at now. It fails with
// ErrAlreadyClockedIn if the employee's last swipe was a clock-in.
func ClockIn(base string, loc *time.Location, employee string, now time.Time) (model.ClockRecord, error) {
	return clock(base, loc, employee, now, false)
}

// ClockOut records a clock-out for employee at now. It fails with
// ErrNotClockedIn unless the employee's last swipe was a clock-in.
func ClockOut(base string, loc *time.Location, employee string, now time.Time) (model.ClockRecord, error) {
	return clock(base, loc, employee, now, true)
}

func clock(base string, loc *time.Location, employee string, now time.Time, out bool) (model.ClockRecord, error) {
	clockedIn, _, err := Status(base, loc, employee, now)
	if err != nil {
		return model.ClockRecord{}, err
	}
	if out && !clockedIn {
		return model.ClockRecord{}, fmt.Errorf("%s: %w", employee, ErrNotClockedIn)
	}
	if !out && clockedIn {
		return model.ClockRecord{}, fmt.Errorf("%s: %w", employee, ErrAlreadyClockedIn)
	}
	return Append(base, loc, model.ClockRecord{
		Employee:  employee,
		Timestamp: now.Unix(),
		ClockOut:  out,
		Source:    model.SourceManual,
	})
}

// Interval is a worked span written back by ReplaceDay.
type Interval struct {
	Start time.Time
	End   time.Time
}

// ReplaceDay removes every record of employee on day and writes one
// clock-in/clock-out pair per interval. Intervals are validated and every
// affected day file is loaded before anything is written, so a bad
// interval or an unreadable file leaves the store untouched.
func ReplaceDay(base string, loc *time.Location, employee string, day time.Time, intervals []Interval) error {
	if loc == nil {
		loc = time.Local
	}
	for _, iv := range intervals {
		if iv.End.Before(iv.Start) {
			return &shifts.InvalidIntervalError{Start: iv.Start, End: iv.End}
		}
	}

	pending := map[string]*pendingDay{}
	load := func(d time.Time) (*pendingDay, error) {
		key := d.Format("2006-01-02")
		if p, ok := pending[key]; ok {
			return p, nil
		}
		df, err := LoadDay(base, d)
		if err != nil {
			return nil, err
		}
		p := &pendingDay{day: d, df: df}
		pending[key] = p
		return p, nil
	}

	target, err := load(timecalc.StartOfDay(day.In(loc)))
	if err != nil {
		return err
	}
	kept := target.df.Records[:0]
	for _, r := range target.df.Records {
		if r.Employee != employee {
			kept = append(kept, r)
		}
	}
	target.df.Records = kept

	for _, iv := range intervals {
		for _, rec := range []model.ClockRecord{
			{Employee: employee, Timestamp: iv.Start.Unix(), Source: model.SourceAmend},
			{Employee: employee, Timestamp: iv.End.Unix(), ClockOut: true, Source: model.SourceAmend},
		} {
			p, err := load(dayOf(rec.Timestamp, loc))
			if err != nil {
				return err
			}
			rec.ID = timecalc.GenerateID(time.Unix(rec.Timestamp, 0).In(loc))
			p.df.Records = append(p.df.Records, rec)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(pending)) {
		p := pending[key]
		if err := SaveDay(base, p.day, p.df); err != nil {
			return err
		}
	}
	return nil
}

type pendingDay struct {
	day time.Time
	df  model.DayFile
}

// FirstRecord returns the earliest record of employee on day, or nil.
func FirstRecord(base string, loc *time.Location, employee string, day time.Time) (*model.ClockRecord, error) {
	if loc == nil {
		loc = time.Local
	}
	df, err := LoadDay(base, timecalc.StartOfDay(day.In(loc)))
	if err != nil {
		return nil, err
	}
	sortRecords(df.Records)
	for _, r := range df.Records {
		if r.Employee == employee {
			return &r, nil
		}
	}
	return nil, nil
}

// Outcome describes what UpsertExternal did.
type Outcome int

const (
	Created Outcome = iota
	Unchanged
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// UpsertExternal writes rec keyed by its ExternalID. A record with the same
// ExternalID in the same day file is left alone when identical and
// overwritten (keeping its ID) otherwise. Only the day file of
// rec.Timestamp is searched. dryRun reports the outcome without writing.
func UpsertExternal(base string, loc *time.Location, rec model.ClockRecord, dryRun bool) (Outcome, error) {
	if rec.ExternalID == "" {
		return 0, fmt.Errorf("upsert requires an external id")
	}
	day := dayOf(rec.Timestamp, loc)
	df, err := LoadDay(base, day)
	if err != nil {
		return 0, err
	}

	for i, existing := range df.Records {
		if existing.ExternalID != rec.ExternalID {
			continue
		}
		if existing.Employee == rec.Employee && existing.Timestamp == rec.Timestamp &&
			existing.ClockOut == rec.ClockOut {
			return Unchanged, nil
		}
		if dryRun {
			return Updated, nil
		}
		rec.ID = existing.ID
		df.Records[i] = rec
		return Updated, SaveDay(base, day, df)
	}

	if dryRun {
		return Created, nil
	}
	if _, err := Append(base, loc, rec); err != nil {
		return 0, err
	}
	return Created, nil
}
