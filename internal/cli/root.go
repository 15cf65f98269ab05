// Package cli implements the popis command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/popis/internal/config"
)

// RootOptions holds global flags and the configuration they resolve to.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	LogPath    string

	cfg      *config.Config
	closeLog func()
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "popis",
		Short: "popis - barcode stock-take reconciliation",
		Long: `Reconcile physical stock counts against an uploaded manifest.

Manifests are imported from CSV/TSV exports or photos, counted item by item
through the HTTP API, and summarized in reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
			if err != nil {
				return err
			}
			// Logs go to stderr so command output stays machine-readable;
			// the server keeps the stdout/stderr split.
			stdout := cmd.ErrOrStderr()
			if cmd.Name() == "serve" {
				stdout = os.Stdout
			}
			closeLog, err := setupLogger(stdout, cmd.ErrOrStderr(), cfg.Log.Path)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.closeLog = closeLog
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.closeLog != nil {
				opts.closeLog()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: ./popis.yaml if present)")
	cmd.PersistentFlags().StringVarP(&opts.DBPath, "db", "d", "", "SQLite database path (default: popis.sqlite3)")
	cmd.PersistentFlags().StringVarP(&opts.LogPath, "log", "l", "", "log file path (default: no file)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))

	return cmd
}
