// Package report reconstructs shifts for every employee in a time window.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/shifts"
	"github.com/Tiliavir/tclock/internal/storage"
)

// EmployeeReport holds one employee's shifts within the window.
type EmployeeReport struct {
	Employee   string         `json:"employee"`
	Shifts     []shifts.Shift `json:"shifts"`
	TotalHours float64        `json:"total_hours"`
}

// Report is the result of Build.
type Report struct {
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	Employees  []EmployeeReport `json:"employees"`
	TotalHours float64          `json:"total_hours"`
}

// Options configures Build.
type Options struct {
	From, To          time.Time
	Location          *time.Location
	SynthesizeOpenEnd bool
	Clock             shifts.Clock
	// Workers bounds concurrent reconstruction. Values below 1 mean 1.
	Workers int
	Logger  *zap.Logger
}

// Build groups records by employee and reconstructs each employee's shifts
// concurrently. Records are expected to lie within [From, To]; the window
// may begin mid-shift, so From is used as the period start. An open shift
// is closed no later than To.
func Build(ctx context.Context, records []model.ClockRecord, opts Options) (*Report, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = shifts.SystemClock
	}
	workers := max(opts.Workers, 1)

	names := storage.Employees(records)
	reports := make([]EmployeeReport, len(names))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, name := range names {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			sh, err := shifts.Process(model.Events(storage.ForEmployee(records, name)), name, shifts.Options{
				PeriodStart:       opts.From,
				SynthesizeOpenEnd: opts.SynthesizeOpenEnd,
				Clock:             windowClock(opts.Clock, opts.To),
				Location:          opts.Location,
				Logger:            opts.Logger,
			})
			if err != nil {
				return err
			}
			// Each goroutine owns one slot.
			reports[i] = EmployeeReport{Employee: name, Shifts: sh, TotalHours: shifts.SumHours(sh)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	r := &Report{From: opts.From, To: opts.To, Employees: reports}
	for _, er := range reports {
		r.TotalHours += er.TotalHours
	}
	opts.Logger.Debug("report built",
		zap.Int("employees", len(reports)),
		zap.Float64("total_hours", r.TotalHours))
	return r, nil
}

// windowClock caps c at to, so shifts still open when the window ends are
// closed at its end rather than at the present.
func windowClock(c shifts.Clock, to time.Time) shifts.Clock {
	if to.IsZero() {
		return c
	}
	return shifts.ClockFunc(func() time.Time {
		now := c.Now()
		if now.After(to) {
			return to
		}
		return now
	})
}
