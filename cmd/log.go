package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/storage"
)

var (
	logWindow windowFlags
	logAll    bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List raw clock records",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logWindow.register(logCmd)
	logCmd.Flags().BoolVar(&logAll, "all", false, "Show every employee")
}

func runLog(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	from, to, err := logWindow.resolve(e.now(), e.loc, false)
	if err != nil {
		return err
	}

	records, err := storage.LoadRange(e.base, e.loc, from, to)
	if err != nil {
		return storageError(err)
	}
	if !logAll {
		emp, err := e.requireEmployee()
		if err != nil {
			return err
		}
		records = storage.ForEmployee(records, emp)
	}

	printRecords(cmd.OutOrStdout(), records, e)
	return nil
}

// printRecords groups records by date and prints them.
func printRecords(w io.Writer, records []model.ClockRecord, e *env) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	var currentDay string
	for _, r := range records {
		t := r.Event().Time(e.loc)
		day := t.Format("2006-01-02")
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}
		fmt.Fprintf(w, "  %s  %-3s  %-16s %s\n", t.Format("15:04:05"), direction(r), r.Employee, r.Source)
	}
}
