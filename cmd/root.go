package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Tiliavir/tclock/internal/config"
	"github.com/Tiliavir/tclock/internal/storage"
)

var (
	configPath string
	employee   string
	verbose    bool

	logger *zap.Logger
	// nowFunc is the wall clock; tests replace it.
	nowFunc = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "tclock",
	Short: "tclock – a file-based employee time clock",
	Long: `tclock records clock-in and clock-out swipes and rebuilds them into
per-day shifts, splitting shifts that cross midnight.
All data is stored as human-readable JSON files in ~/.tclock/.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// exitError carries the process exit code for an error: 1 for usage and
// validation problems, 2 for storage failures.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error   { return &exitError{code: 1, err: err} }
func storageError(err error) error { return &exitError{code: 2, err: err} }

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tclock/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&employee, "employee", "", "Employee name (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(shiftsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(amendCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(outlookCmd)
}

// env is the resolved runtime setting shared by all commands.
type env struct {
	cfg  *config.Config
	base string
	loc  *time.Location
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, usageError(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, usageError(err)
	}
	base := cfg.DataDir
	if base == "" {
		if base, err = storage.BaseDir(); err != nil {
			return nil, storageError(err)
		}
	}
	if employee != "" {
		cfg.Employee = employee
	}
	logger.Debug("environment loaded",
		zap.String("data_dir", base),
		zap.String("timezone", loc.String()),
		zap.String("employee", cfg.Employee))
	return &env{cfg: cfg, base: base, loc: loc}, nil
}

// requireEmployee returns the configured employee or a usage error.
func (e *env) requireEmployee() (string, error) {
	if e.cfg.Employee == "" {
		return "", usageError(errors.New("no employee set: pass --employee or set employee in the config file"))
	}
	return e.cfg.Employee, nil
}

// now returns the current time in the configured location.
func (e *env) now() time.Time {
	return nowFunc().In(e.loc)
}
