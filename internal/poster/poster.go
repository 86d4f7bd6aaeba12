// Package poster commits a line's final distribution as a posted payment
// against the Loan Ledger.
package poster

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"topglobal/statements/internal/audit"
	"topglobal/statements/internal/importerror"
	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

// Poster posts payments and finalizes statement lines.
type Poster struct {
	ledger ledger.LoanLedger
	trail  *audit.Trail
	log    logging.Logger
}

// New creates a poster. The audit trail may be nil.
func New(l ledger.LoanLedger, trail *audit.Trail, logger logging.Logger) *Poster {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Poster{ledger: l, trail: trail, log: logger}
}

// Process posts one payment for the line plus one allocation entry per
// distribution item that received anything, then marks the line processed.
// It fails when the line has no matched loan or was already processed.
func (p *Poster) Process(ctx context.Context, line *models.StatementLine) error {
	if line.MatchedLoanID == 0 {
		return &importerror.MissingLoanAssignmentError{Line: strconv.FormatInt(line.ID, 10)}
	}
	if line.State == models.LineProcessed {
		return &importerror.AlreadyProcessedError{Line: strconv.FormatInt(line.ID, 10)}
	}

	date := line.CalcDate
	if date.IsZero() {
		date = line.Date
	}
	memo := line.Remarks
	if memo == "" {
		memo = line.Concept
	}

	paymentRef, err := p.ledger.PostPayment(ctx, line.MatchedLoanID, date, line.Amount, memo)
	if err != nil {
		return fmt.Errorf("failed to post payment for line %d: %w", line.ID, err)
	}

	for _, item := range line.Items {
		if !item.Paid.IsPositive() {
			continue
		}
		alloc := ledger.Allocation{
			PaymentRef:    paymentRef,
			LoanID:        line.MatchedLoanID,
			ObligationRef: item.ObligationRef,
			Amount:        item.Paid,
			Category:      ledgerCategory(item.Kind),
			Date:          date,
			DueDate:       item.DueDate,
		}
		if err := p.ledger.PostAllocation(ctx, alloc); err != nil {
			return fmt.Errorf("failed to post allocation for line %d: %w", line.ID, err)
		}
	}

	if err := line.MarkProcessed(paymentRef); err != nil {
		return err
	}

	p.log.WithFields(
		logging.Field{Key: "line", Value: line.ID},
		logging.Field{Key: "loan", Value: line.MatchedLoanID},
		logging.Field{Key: "payment", Value: paymentRef},
	).Info("Line processed")
	if p.trail != nil {
		p.trail.Append(audit.Event{
			Time:   time.Now(),
			Entity: "line",
			Ref:    line.ID,
			Action: "processed",
			Detail: fmt.Sprintf("payment %s posted to loan %d", paymentRef, line.MatchedLoanID),
		})
	}
	return nil
}

// ledgerCategory maps a concept kind to the ledger's allocation vocabulary.
// Ad-hoc extraordinary labels fall into the catch-all category.
func ledgerCategory(kind models.ConceptKind) string {
	switch kind {
	case models.ConceptCapital:
		return "capital"
	case models.ConceptInterest:
		return "interes"
	case models.ConceptLateFee:
		return "mora"
	case models.ConceptPenalty:
		return "penalizacion"
	default:
		return "otros"
	}
}
