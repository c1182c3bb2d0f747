package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tclock/internal/export"
	"github.com/Tiliavir/tclock/internal/report"
	"github.com/Tiliavir/tclock/internal/shifts"
	"github.com/Tiliavir/tclock/internal/storage"
)

var (
	reportWindow windowFlags
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show worked hours for all employees",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportWindow.register(reportCmd)
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json, xlsx")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write to file instead of stdout (required for xlsx)")
}

func runReport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	from, to, err := reportWindow.resolve(e.now(), e.loc, true)
	if err != nil {
		return err
	}
	if reportFormat == export.FormatXLSX && reportOutput == "" {
		return usageError(fmt.Errorf("--output is required for --format xlsx"))
	}

	records, err := storage.LoadRange(e.base, e.loc, from, to)
	if err != nil {
		return storageError(err)
	}

	r, err := report.Build(context.Background(), records, report.Options{
		From:              from,
		To:                to,
		Location:          e.loc,
		SynthesizeOpenEnd: e.cfg.Report.SynthesizeOpenEnd,
		Clock:             shifts.ClockFunc(func() time.Time { return e.now() }),
		Workers:           e.cfg.Report.Workers,
		Logger:            logger,
	})
	if err != nil {
		return usageError(err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if reportOutput != "" {
		f, err := os.Create(reportOutput)
		if err != nil {
			return storageError(fmt.Errorf("creating %s: %w", reportOutput, err))
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, reportFormat, r); err != nil {
		return usageError(err)
	}
	if reportOutput != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s report for %d employee(s) to %s\n",
			reportFormat, len(r.Employees), reportOutput)
	}
	return nil
}
