package cmd

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/tclock/internal/shifts"
	"github.com/Tiliavir/tclock/internal/storage"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

var (
	amendDate  string
	amendForce bool
)

var amendCmd = &cobra.Command{
	Use:   "amend --date YYYY-MM-DD <start-end>...",
	Short: "Replace one day's clock records with the given segments",
	Long: `Deletes every clock record of the employee on the given day and writes
one clock-in/clock-out pair per segment. Segments use the 12-hour clock,
e.g. "9:00am-12:30pm 1:15pm-5:00pm". A segment whose end is before its
start runs past midnight. Pass no segments to clear the day.

If the employee's first record on that day is a clock-out, it closes a
shift that began the day before. Deleting it would pair that clock-in with
the first new clock-out, so amend refuses unless --force is given.`,
	RunE: runAmend,
}

func init() {
	amendCmd.Flags().StringVar(&amendDate, "date", "", "Day to replace (YYYY-MM-DD)")
	amendCmd.Flags().BoolVar(&amendForce, "force", false, "Amend even if it removes the clock-out of a shift that began the day before")
	_ = amendCmd.MarkFlagRequired("date")
}

func runAmend(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	emp, err := e.requireEmployee()
	if err != nil {
		return err
	}
	day, err := timecalc.ParseDate(amendDate, e.loc)
	if err != nil {
		return usageError(err)
	}

	intervals := make([]storage.Interval, 0, len(args))
	for _, arg := range args {
		iv, err := parseSegment(arg, day)
		if err != nil {
			return usageError(err)
		}
		intervals = append(intervals, iv)
	}

	if !amendForce {
		first, err := storage.FirstRecord(e.base, e.loc, emp, day)
		if err != nil {
			return storageError(err)
		}
		if first != nil && first.ClockOut {
			return usageError(fmt.Errorf("%s's first record on %s is the clock-out of a shift that began the day before; pass --force to delete it anyway",
				emp, day.Format("2006-01-02")))
		}
	}

	if err := storage.ReplaceDay(e.base, e.loc, emp, day, intervals); err != nil {
		if errors.Is(err, shifts.ErrInvalidInterval) {
			return usageError(err)
		}
		return storageError(err)
	}
	logger.Info("day amended",
		zap.String("employee", emp),
		zap.String("date", day.Format("2006-01-02")),
		zap.Int("segments", len(intervals)))

	fmt.Fprintf(cmd.OutOrStdout(), "Replaced %s for %s with %d segment(s).\n",
		day.Format("2006-01-02"), emp, len(intervals))
	return nil
}

// parseSegment turns "9:00am-5:00pm" into an interval on day.
func parseSegment(s string, day time.Time) (storage.Interval, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return storage.Interval{}, fmt.Errorf("invalid segment %q: want start-end, e.g. 9:00am-5:00pm", s)
	}
	startH, err := timecalc.ParseTimeOfDayStrict(startStr)
	if err != nil {
		return storage.Interval{}, fmt.Errorf("invalid segment %q: %w", s, err)
	}
	endH, err := timecalc.ParseTimeOfDayStrict(endStr)
	if err != nil {
		return storage.Interval{}, fmt.Errorf("invalid segment %q: %w", s, err)
	}

	start := atHours(day, startH)
	end := atHours(day, endH)
	if end.Before(start) {
		end = atHours(timecalc.NextDay(day), endH)
	}
	return storage.Interval{Start: start, End: end}, nil
}

// atHours returns the instant hours after midnight of day.
func atHours(day time.Time, hours float64) time.Time {
	minutes := int(math.Round(hours * 60))
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}
