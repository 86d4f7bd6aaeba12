package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineState is the lifecycle of a statement line. Transitions are monotonic
// except for the manual discard/restore pair: pending→discarded,
// discarded→pending, pending→processed. Nothing leaves processed.
type LineState string

const (
	LinePending   LineState = "pending"
	LineDiscarded LineState = "discarded"
	LineProcessed LineState = "processed"
)

// StatementLine is one normalized payment candidate extracted from a
// statement row.
type StatementLine struct {
	ID          int64
	StatementID int64
	PortfolioID int64
	LenderID    int64

	Date    time.Time
	Amount  decimal.Decimal
	Concept string
	Remarks string

	State         LineState
	MatchedLoanID int64
	AutoMatched   bool
	Reviewed      bool

	CalcDate       time.Time
	ApplyPenalties bool
	ApplyLateFees  bool

	Items             []*DistributionItem
	DistributedAmount decimal.Decimal
	PartialPayment    bool

	PostedPaymentRef string

	// Persisted distinguishes saved lines from transient ones so that
	// side-effecting operations (recompute, posting) never run against a
	// record that is still being built.
	Persisted bool
}

// NewStatementLine creates a pending line with the penalty/late-fee switches
// enabled, matching the defaults of the distribution engine.
func NewStatementLine(statementID, portfolioID, lenderID int64) *StatementLine {
	return &StatementLine{
		StatementID:    statementID,
		PortfolioID:    portfolioID,
		LenderID:       lenderID,
		State:          LinePending,
		ApplyPenalties: true,
		ApplyLateFees:  true,
	}
}

// Discard moves a pending line to discarded.
func (l *StatementLine) Discard() error {
	if l.State != LinePending {
		return fmt.Errorf("cannot discard line %d in state %s", l.ID, l.State)
	}
	l.State = LineDiscarded
	return nil
}

// Restore moves a discarded line back to pending.
func (l *StatementLine) Restore() error {
	if l.State != LineDiscarded {
		return fmt.Errorf("cannot restore line %d in state %s", l.ID, l.State)
	}
	l.State = LinePending
	return nil
}

// MarkProcessed finalizes the line with its posted payment reference.
// Only the payment poster calls this.
func (l *StatementLine) MarkProcessed(paymentRef string) error {
	if l.State == LineProcessed {
		return fmt.Errorf("line %d already processed", l.ID)
	}
	if l.MatchedLoanID == 0 {
		return fmt.Errorf("line %d has no matched loan", l.ID)
	}
	l.State = LineProcessed
	l.PostedPaymentRef = paymentRef
	return nil
}

// ToggleReviewed flips the manual review flag.
func (l *StatementLine) ToggleReviewed() {
	l.Reviewed = !l.Reviewed
}

// EligibleForMatching reports whether the matcher should consider this line.
func (l *StatementLine) EligibleForMatching() bool {
	return l.State == LinePending && l.MatchedLoanID == 0
}

// AssignLoan records a loan match on the line. auto marks heuristic or AI
// assignments that still need human validation.
func (l *StatementLine) AssignLoan(loanID int64, auto bool) {
	l.MatchedLoanID = loanID
	l.AutoMatched = auto
}
