package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tclock/internal/msgraph"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

var (
	outlookSyncWindow windowFlags
	outlookSyncDate   string
	outlookSyncDryRun bool
	outlookSyncTZ     string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Record Outlook calendar events as clock-in/clock-out pairs",
	Args:  cobra.NoArgs,
	RunE:  runOutlookSync,
}

func init() {
	outlookSyncWindow.register(outlookSyncCmd)
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (overrides config)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	emp, err := e.requireEmployee()
	if err != nil {
		return err
	}

	from, to, err := outlookSyncWindow.resolve(e.now(), e.loc, false)
	if err != nil {
		return err
	}
	if outlookSyncDate != "" {
		d, err := timecalc.ParseDate(outlookSyncDate, e.loc)
		if err != nil {
			return usageError(err)
		}
		from, to = timecalc.StartOfDay(d), timecalc.EndOfDay(d)
	}

	timezone := e.cfg.Outlook.Timezone
	if outlookSyncTZ != "" {
		timezone = outlookSyncTZ
	}

	w := cmd.OutOrStdout()
	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(w, "Syncing Outlook events for %s (%s → %s)%s...\n",
		emp, from.Format("2006-01-02"), to.Format("2006-01-02"), dryTag)
	fmt.Fprintln(w)

	ctx := context.Background()
	oauthCfg := msgraph.OAuth2Config(e.cfg.Outlook.TenantID, e.cfg.Outlook.ClientID)
	store := msgraph.DefaultTokenStore(e.base)

	tok, err := msgraph.Authenticate(ctx, oauthCfg, store, cmd.ErrOrStderr(), logger)
	if err != nil {
		return usageError(fmt.Errorf("authentication failed: %w", err))
	}

	client := msgraph.NewClient(ctx, tok, oauthCfg, store, logger)
	events, err := client.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		return usageError(fmt.Errorf("failed to fetch calendar events: %w", err))
	}

	result, err := msgraph.SyncEvents(events, msgraph.SyncOptions{
		Base:     e.base,
		Employee: emp,
		Location: e.loc,
		Timezone: timezone,
		DryRun:   outlookSyncDryRun,
		Out:      w,
		Logger:   logger,
	})
	if err != nil {
		return usageError(fmt.Errorf("sync error: %w", err))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d imported\n", result.Imported)
	fmt.Fprintf(w, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(w, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Fprintf(w, "  %d errors\n", result.Errors)
		return storageError(fmt.Errorf("%d event(s) failed", result.Errors))
	}
	return nil
}
