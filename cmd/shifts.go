package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/shifts"
	"github.com/Tiliavir/tclock/internal/storage"
)

var (
	shiftsWindow windowFlags
	shiftsOpen   bool
)

var shiftsCmd = &cobra.Command{
	Use:   "shifts",
	Short: "Show reconstructed shifts for one employee",
	Long: `Pairs clock-ins with clock-outs and lists the worked segments per day.
Shifts that cross midnight are split at 11:59pm. Segments marked with *
were closed at the current time because the employee is still clocked in.`,
	Args: cobra.NoArgs,
	RunE: runShifts,
}

func init() {
	shiftsWindow.register(shiftsCmd)
	shiftsCmd.Flags().BoolVar(&shiftsOpen, "open", false, "Close a running shift at the current time (overrides config)")
}

func runShifts(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	emp, err := e.requireEmployee()
	if err != nil {
		return err
	}
	from, to, err := shiftsWindow.resolve(e.now(), e.loc, true)
	if err != nil {
		return err
	}
	synth := e.cfg.Report.SynthesizeOpenEnd
	if cmd.Flags().Changed("open") {
		synth = shiftsOpen
	}

	list, err := employeeShifts(e, emp, from, to, synth)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(w, "No shifts found.")
		return nil
	}
	for _, sh := range list {
		fmt.Fprintln(w, sh.Date.Format("Mon 2006-01-02"))
		for _, seg := range sh.Segments {
			mark := ""
			if seg.Virtual {
				mark = " *"
			}
			fmt.Fprintf(w, "  %8s - %-8s %6.2fh%s\n", seg.StartLabel(), seg.EndLabel(), seg.Hours(), mark)
		}
		fmt.Fprintf(w, "  %-19s %6.2fh\n", "Day total", sh.Hours)
	}
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintf(w, "%-21s %6.2fh\n", "Total", shifts.SumHours(list))
	return nil
}

// employeeShifts loads the records of emp in [from, to] and rebuilds them
// into shifts. A shift still open at to is closed at the current time when
// synth is set, and never later than to.
func employeeShifts(e *env, emp string, from, to time.Time, synth bool) ([]shifts.Shift, error) {
	records, err := storage.LoadRange(e.base, e.loc, from, to)
	if err != nil {
		return nil, storageError(err)
	}
	records = storage.ForEmployee(records, emp)

	list, err := shifts.Process(model.Events(records), emp, shifts.Options{
		PeriodStart:       from,
		SynthesizeOpenEnd: synth,
		Clock: shifts.ClockFunc(func() time.Time {
			if now := e.now(); now.Before(to) {
				return now
			}
			return to
		}),
		Location: e.loc,
		Logger:   logger,
	})
	if errors.Is(err, shifts.ErrInvalidInterval) {
		// Records stamped in the future relative to the clock.
		return nil, usageError(err)
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// hoursInWindow is the total of employeeShifts.
func hoursInWindow(e *env, emp string, from, to time.Time, synth bool) (float64, error) {
	list, err := employeeShifts(e, emp, from, to, synth)
	if err != nil {
		return 0, err
	}
	return shifts.SumHours(list), nil
}
