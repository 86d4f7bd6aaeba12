// Package process handles the payment posting command.
package process

import (
	"github.com/spf13/cobra"

	"topglobal/statements/cmd/root"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

// Cmd represents the process command.
var Cmd = &cobra.Command{
	Use:   "process",
	Short: "Import, match, and post a statement's payments",
	Long: `Run the full pipeline on a bank statement file: import it, match its
lines to loans, distribute each matched amount across the outstanding
installment concepts, and post one ledger payment per matched line.`,
	RunE: processFunc,
}

func processFunc(cmd *cobra.Command, args []string) error {
	rt, err := root.NewRuntime()
	if err != nil {
		return err
	}

	stmt, result, err := rt.ImportStatement()
	if err != nil {
		return err
	}
	root.LogSummary(stmt, result)

	posted := 0
	for _, line := range stmt.Lines {
		if line.State != models.LinePending || line.MatchedLoanID == 0 {
			continue
		}
		if err := rt.Poster.Process(cmd.Context(), line); err != nil {
			root.Log.WithError(err).WithFields(
				logging.Field{Key: "concept", Value: line.Concept},
				logging.Field{Key: "amount", Value: line.Amount.StringFixed(2)},
			).Error("Failed to post payment")
			continue
		}
		posted++
		root.Log.WithFields(
			logging.Field{Key: "loan", Value: line.MatchedLoanID},
			logging.Field{Key: "amount", Value: line.Amount.StringFixed(2)},
			logging.Field{Key: "payment", Value: line.PostedPaymentRef},
			logging.Field{Key: "partial", Value: line.PartialPayment},
		).Info("Payment posted")
	}
	stmt.State = models.StatementProcessed

	root.Log.WithFields(
		logging.Field{Key: "posted", Value: posted},
		logging.Field{Key: "allocations", Value: len(rt.Ledger.Allocations())},
	).Info("Statement processing completed")
	return nil
}
