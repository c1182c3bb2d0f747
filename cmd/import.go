package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tclock/internal/importer"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import clock logs from a JSON export",
	Long: `Reads {"clock_logs": [{"user", "out", "timestamp"}]} or a bare array of
such rows. Rows already imported are left unchanged, so re-running an
import is safe. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Print planned operations without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return usageError(fmt.Errorf("opening %s: %w", args[0], err))
		}
		defer f.Close()
		in = f
	}

	rows, err := importer.Parse(in)
	if err != nil {
		return usageError(err)
	}
	result, err := importer.Import(e.base, e.loc, rows, importDryRun, logger)
	if err != nil {
		return usageError(err)
	}

	w := cmd.OutOrStdout()
	dryTag := ""
	if importDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(w, "Imported %d row(s)%s:\n", len(rows), dryTag)
	fmt.Fprintf(w, "  %d created\n", result.Created)
	fmt.Fprintf(w, "  %d unchanged\n", result.Unchanged)
	fmt.Fprintf(w, "  %d updated\n", result.Updated)
	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  ! %s\n", msg)
		}
		return storageError(fmt.Errorf("%d row(s) failed", len(result.Errors)))
	}
	return nil
}
