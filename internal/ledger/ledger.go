// Package ledger defines the boundary to the external Loan Ledger: loan
// lookup for the matcher and obligation listing plus payment posting for the
// distribution and posting stages. The ledger itself is a separate system of
// record; this package only models what the pipeline reads and writes.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LoanState is the lifecycle state of a loan in the ledger.
type LoanState string

const (
	LoanDraft      LoanState = "draft"
	LoanFormalized LoanState = "formalized"
	LoanConfirmed  LoanState = "confirmed"
	LoanClosed     LoanState = "closed"
)

// ActiveLoanStates are the states a loan must be in for heuristic matching.
// Draft loans are only offered to the AI association candidate pool.
var ActiveLoanStates = []LoanState{LoanFormalized, LoanConfirmed}

// Participant is a counterparty taking part in a loan.
type Participant struct {
	CounterpartyID int64
	Name           string
	IdentityCode   string
}

// Loan is the matcher's view of a ledger loan.
type Loan struct {
	ID           int64
	Name         string
	LenderID     int64
	State        LoanState
	Participants []Participant
}

// Obligation is one outstanding installment with its unpaid components.
// Penalty and late-fee accruals are evaluated by the ledger at the as-of
// date passed to ListOutstandingObligations.
type Obligation struct {
	Number  int
	Ref     string
	DueDate time.Time

	Amount    decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal

	PenaltyAccrued decimal.Decimal
	LateFeeAccrued decimal.Decimal

	PaidPrincipal decimal.Decimal
	PaidInterest  decimal.Decimal
	PaidPenalty   decimal.Decimal
	PaidLateFee   decimal.Decimal
}

// Allocation is one category-tagged share of a posted payment.
type Allocation struct {
	PaymentRef    string
	LoanID        int64
	ObligationRef string
	Amount        decimal.Decimal
	Category      string
	Date          time.Time
	DueDate       time.Time
}

// LoanLedger is the consumed interface of the external ledger.
type LoanLedger interface {
	// ListOutstandingObligations returns up to limit installments of the
	// loan that are not fully settled, ordered by ascending installment
	// number, with accruals evaluated at asOf.
	ListOutstandingObligations(ctx context.Context, loanID int64, asOf time.Time, limit int) ([]Obligation, error)

	// PostPayment records a payment against a loan and returns its reference.
	PostPayment(ctx context.Context, loanID int64, date time.Time, amount decimal.Decimal, memo string) (string, error)

	// PostAllocation records one allocation entry under a posted payment.
	PostAllocation(ctx context.Context, alloc Allocation) error
}

// LoanLookup is the loan search surface the matcher needs.
type LoanLookup interface {
	// FindByReference finds a loan under the lender whose name matches the
	// reference token, case-insensitively.
	FindByReference(ctx context.Context, lenderID int64, reference string) (*Loan, error)

	// FindParticipation finds a loan under the lender, in one of the given
	// states, in which the counterparty participates.
	FindParticipation(ctx context.Context, counterpartyID, lenderID int64, states []LoanState) (*Loan, error)

	// LenderLoans lists the lender's loans in the given states with their
	// participants.
	LenderLoans(ctx context.Context, lenderID int64, states []LoanState) ([]*Loan, error)

	// Get returns a loan by id.
	Get(ctx context.Context, loanID int64) (*Loan, error)
}
