// Package match handles the statement matching command.
package match

import (
	"github.com/spf13/cobra"

	"topglobal/statements/cmd/root"
	"topglobal/statements/internal/logging"
)

// UseAI enables the AI association pass for lines the heuristic
// strategies left unmatched.
var UseAI bool

// Cmd represents the match command.
var Cmd = &cobra.Command{
	Use:   "match",
	Short: "Import a statement and match its lines to loans",
	Long: `Import a bank statement file and match its pending lines to loans using
the repeat, reference, identity-number, and fuzzy-name strategies. With --ai,
lines still unmatched afterwards are sent to the AI association pass.`,
	RunE: matchFunc,
}

// Init defines the match command flags.
func Init() {
	Cmd.Flags().BoolVar(&UseAI, "ai", false, "Run AI association for lines the strategies left unmatched")
}

func matchFunc(cmd *cobra.Command, args []string) error {
	rt, err := root.NewRuntime()
	if err != nil {
		return err
	}

	stmt, result, err := rt.ImportStatement()
	if err != nil {
		return err
	}
	root.LogSummary(stmt, result)

	if UseAI && len(stmt.PendingUnmatched()) > 0 {
		associator, closeClient, err := rt.NewAssociator()
		if err != nil {
			// AI problems never invalidate the heuristic matches.
			root.Log.WithError(err).Warn("AI association unavailable")
		} else {
			defer closeClient()
			aiResult, err := associator.Associate(cmd.Context(), stmt, rt.Portfolio.LenderID)
			if err != nil {
				root.Log.WithError(err).Warn("AI association failed")
			} else {
				root.Log.WithFields(
					logging.Field{Key: "assigned", Value: aiResult.Assigned},
					logging.Field{Key: "errors", Value: len(aiResult.Errors)},
				).Info("AI association completed")
				if summary := aiResult.Summary(); summary != "" {
					root.Log.Warn(summary)
				}
			}
		}
	}

	for _, line := range stmt.PendingUnmatched() {
		root.Log.WithFields(
			logging.Field{Key: "concept", Value: line.Concept},
			logging.Field{Key: "remarks", Value: line.Remarks},
			logging.Field{Key: "amount", Value: line.Amount.StringFixed(2)},
		).Warn("Line left unmatched")
	}
	return nil
}
