package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	Name   string
	Format string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create a session from a manifest file",
		Long: `Create an inventory session from a manifest.

CSV, TSV and TXT exports need a header row naming the barcode, product name
and quantity columns. JPEG and PNG photos are run through text recognition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := a.readManifest(cmd.Context(), args[0], opts.Format)
			if err != nil {
				return err
			}
			session, err := a.engine.CreateSession(cmd.Context(), opts.Name, lines)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s) with %d items\n",
				session.ID, session.Name, session.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "session name (default: today's date)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "manifest format: delimited or recognized (default: from file name)")
	return cmd
}
