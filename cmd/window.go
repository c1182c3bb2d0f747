package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tclock/internal/timecalc"
)

// windowFlags selects the time range a command looks at.
type windowFlags struct {
	today bool
	week  bool
	from  string
	to    string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&w.today, "today", false, "Only today")
	cmd.Flags().BoolVar(&w.week, "week", false, "This ISO week")
	cmd.Flags().StringVar(&w.from, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	cmd.Flags().StringVar(&w.to, "to", "", "End date (YYYY-MM-DD); defaults to today")
}

// resolve returns the selected [from, to] range. With no flag set the
// range is this week when weekDefault is true and today otherwise.
func (w *windowFlags) resolve(now time.Time, loc *time.Location, weekDefault bool) (time.Time, time.Time, error) {
	switch {
	case w.from != "" || w.to != "":
		if w.from == "" {
			return time.Time{}, time.Time{}, usageError(errors.New("--from is required when --to is specified"))
		}
		from, err := timecalc.ParseDate(w.from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, usageError(err)
		}
		to := timecalc.EndOfDay(now)
		if w.to != "" {
			t, err := timecalc.ParseDate(w.to, loc)
			if err != nil {
				return time.Time{}, time.Time{}, usageError(err)
			}
			to = timecalc.EndOfDay(t)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, usageError(errors.New("--to is before --from"))
		}
		return from, to, nil
	case w.week:
		from, to := timecalc.WeekRange(now)
		return from, to, nil
	case w.today:
		return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
	case weekDefault:
		from, to := timecalc.WeekRange(now)
		return from, to, nil
	}
	return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
}
