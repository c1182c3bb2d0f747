package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/tclock/internal/storage"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Clock in now",
	Args:  cobra.NoArgs,
	RunE:  runIn,
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Clock out now",
	Args:  cobra.NoArgs,
	RunE:  runOut,
}

func runIn(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	emp, err := e.requireEmployee()
	if err != nil {
		return err
	}
	now := e.now()

	rec, err := storage.ClockIn(e.base, e.loc, emp, now)
	if errors.Is(err, storage.ErrAlreadyClockedIn) {
		return usageError(err)
	}
	if err != nil {
		return storageError(err)
	}
	logger.Info("clocked in", zap.String("employee", emp), zap.String("id", rec.ID))

	fmt.Fprintf(cmd.OutOrStdout(), "%s clocked in at %s\n", emp, timecalc.FormatTimeOfDay(now))
	return nil
}

func runOut(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	emp, err := e.requireEmployee()
	if err != nil {
		return err
	}
	now := e.now()

	_, last, err := storage.Status(e.base, e.loc, emp, now)
	if err != nil {
		return storageError(err)
	}
	rec, err := storage.ClockOut(e.base, e.loc, emp, now)
	if errors.Is(err, storage.ErrNotClockedIn) {
		return usageError(err)
	}
	if err != nil {
		return storageError(err)
	}
	logger.Info("clocked out", zap.String("employee", emp), zap.String("id", rec.ID))

	today, err := hoursInWindow(e, emp, timecalc.StartOfDay(now), now, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s clocked out at %s. Elapsed: %s\n",
		emp, timecalc.FormatTimeOfDay(now), formatElapsed(rec.Timestamp-last.Timestamp))
	fmt.Fprintf(cmd.OutOrStdout(), "Today: %s\n", timecalc.FormatHours(today))
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
