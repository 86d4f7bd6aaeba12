// Package importcmd handles the statement import command.
package importcmd

import (
	"github.com/spf13/cobra"

	"topglobal/statements/cmd/root"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

// Cmd represents the import command.
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement file",
	Long: `Import a bank statement file using the portfolio's configured format.
Each row becomes a statement line; positive amounts stay pending and are
auto-matched against the loan book, the rest are discarded for review.`,
	RunE: importFunc,
}

func importFunc(cmd *cobra.Command, args []string) error {
	rt, err := root.NewRuntime()
	if err != nil {
		return err
	}

	stmt, result, err := rt.ImportStatement()
	if err != nil {
		return err
	}
	root.LogSummary(stmt, result)
	root.Log.WithField("pending_unmatched", len(stmt.PendingUnmatched())).Info("Lines awaiting manual review")

	for _, line := range stmt.Lines {
		if line.State != models.LinePending || line.MatchedLoanID == 0 {
			continue
		}
		root.Log.WithFields(
			logging.Field{Key: "concept", Value: line.Concept},
			logging.Field{Key: "amount", Value: line.Amount.StringFixed(2)},
			logging.Field{Key: "loan", Value: line.MatchedLoanID},
		).Info("Line matched")
	}
	return nil
}
