package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/storage"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether you are clocked in",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	emp, err := e.requireEmployee()
	if err != nil {
		return err
	}
	now := e.now()
	w := cmd.OutOrStdout()

	clockedIn, last, err := storage.Status(e.base, e.loc, emp, now)
	if err != nil {
		return storageError(err)
	}

	// Today's hours count a running shift up to now.
	today, err := hoursInWindow(e, emp, timecalc.StartOfDay(now), now, true)
	if err != nil {
		return err
	}

	if clockedIn {
		since := last.Event().Time(e.loc)
		fmt.Fprintf(w, "%s is clocked in.\n", emp)
		fmt.Fprintf(w, "  Since: %s\n", since.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(now.Unix()-last.Timestamp))
		fmt.Fprintf(w, "Today: %s worked.\n", timecalc.FormatHours(today))
		return nil
	}

	fmt.Fprintf(w, "%s is clocked out.\n", emp)
	if last != nil {
		fmt.Fprintf(w, "  Last %s: %s\n", direction(*last), last.Event().Time(e.loc).Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "Today: %s worked.\n", timecalc.FormatHours(today))
	return nil
}

func direction(r model.ClockRecord) string {
	if r.ClockOut {
		return "out"
	}
	return "in"
}
