// Package export handles the statement CSV export command.
package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"topglobal/statements/cmd/root"
	"topglobal/statements/internal/report"
)

// Cmd represents the export command.
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Import a statement and export its line dispositions to CSV",
	Long: `Import a bank statement file, match its lines to loans, and write the
resulting line dispositions (state, matched loan, distribution, review flags)
to a CSV file.`,
	RunE: exportFunc,
}

func exportFunc(cmd *cobra.Command, args []string) error {
	if root.SharedFlags.Output == "" {
		return fmt.Errorf("output file is required")
	}

	rt, err := root.NewRuntime()
	if err != nil {
		return err
	}

	stmt, result, err := rt.ImportStatement()
	if err != nil {
		return err
	}
	root.LogSummary(stmt, result)

	if err := report.WriteFile(stmt, root.SharedFlags.Output, root.Log); err != nil {
		return err
	}
	root.Log.WithField("file", root.SharedFlags.Output).Info("Statement export completed")
	return nil
}
