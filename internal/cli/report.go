package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidFormats are the output formats of the report command.
var ValidFormats = []string{"text", "json"}

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	Days   int
	Format string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recent sessions",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.reports.Build(cmd.Context(), opts.Days)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return rep.WriteText(cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.Days, "days", 1, "lookback window in days")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	return cmd
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [session-id]",
		Short: "Print a session and its items as text",
		Long:  "Print a session and its items as plain text. Without an id the newest session is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			text, err := a.reports.SessionSummary(cmd.Context(), id)
			if err != nil && id != "" {
				return fmt.Errorf("session %s: %w", id, err)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
