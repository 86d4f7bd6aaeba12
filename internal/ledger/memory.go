package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccrualFunc computes a penalty or late-fee balance due at a date.
type AccrualFunc func(asOf time.Time) decimal.Decimal

// NoAccrual is the zero accrual function.
func NoAccrual(time.Time) decimal.Decimal { return decimal.Zero }

// Installment is the memory ledger's record for one schedule entry. The
// accrual functions stand in for the ledger-side penalty and late-fee
// computations that depend on the valuation date.
type Installment struct {
	Number  int
	Ref     string
	DueDate time.Time

	Amount    decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal

	PenaltyAt AccrualFunc
	LateFeeAt AccrualFunc

	PaidPrincipal decimal.Decimal
	PaidInterest  decimal.Decimal
	PaidPenalty   decimal.Decimal
	PaidLateFee   decimal.Decimal

	Settled bool
}

// Payment is a posted payment held by the memory ledger.
type Payment struct {
	Ref    string
	LoanID int64
	Date   time.Time
	Amount decimal.Decimal
	Memo   string
}

// Memory is an in-memory ledger used by the CLI wiring and the tests.
// Reads tolerate concurrency; writes are serialized.
type Memory struct {
	mu          sync.RWMutex
	loans       map[int64]*Loan
	schedules   map[int64][]*Installment
	payments    map[string]*Payment
	allocations []Allocation
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		loans:     make(map[int64]*Loan),
		schedules: make(map[int64][]*Installment),
		payments:  make(map[string]*Payment),
	}
}

// AddLoan registers a loan and its installment schedule.
func (m *Memory) AddLoan(loan *Loan, schedule []*Installment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].Number < schedule[j].Number })
	m.schedules[loan.ID] = schedule
}

// Payments returns posted payments, for assertions and the export report.
func (m *Memory) Payments() []*Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}

// Allocations returns posted allocation entries in posting order.
func (m *Memory) Allocations() []Allocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Allocation(nil), m.allocations...)
}

func (m *Memory) ListOutstandingObligations(ctx context.Context, loanID int64, asOf time.Time, limit int) ([]Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	schedule, ok := m.schedules[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %d not found", loanID)
	}

	var out []Obligation
	for _, inst := range schedule {
		if inst.Settled {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		penaltyAt, lateFeeAt := inst.PenaltyAt, inst.LateFeeAt
		if penaltyAt == nil {
			penaltyAt = NoAccrual
		}
		if lateFeeAt == nil {
			lateFeeAt = NoAccrual
		}
		out = append(out, Obligation{
			Number:         inst.Number,
			Ref:            inst.Ref,
			DueDate:        inst.DueDate,
			Amount:         inst.Amount,
			Principal:      inst.Principal,
			Interest:       inst.Interest,
			PenaltyAccrued: penaltyAt(asOf),
			LateFeeAccrued: lateFeeAt(asOf),
			PaidPrincipal:  inst.PaidPrincipal,
			PaidInterest:   inst.PaidInterest,
			PaidPenalty:    inst.PaidPenalty,
			PaidLateFee:    inst.PaidLateFee,
		})
	}
	return out, nil
}

func (m *Memory) PostPayment(ctx context.Context, loanID int64, date time.Time, amount decimal.Decimal, memo string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.loans[loanID]; !ok {
		return "", fmt.Errorf("loan %d not found", loanID)
	}
	ref := uuid.New().String()
	m.payments[ref] = &Payment{
		Ref:    ref,
		LoanID: loanID,
		Date:   date,
		Amount: amount,
		Memo:   memo,
	}
	return ref, nil
}

func (m *Memory) PostAllocation(ctx context.Context, alloc Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[alloc.PaymentRef]; !ok {
		return fmt.Errorf("payment %s not found", alloc.PaymentRef)
	}
	m.allocations = append(m.allocations, alloc)
	return nil
}

func (m *Memory) FindByReference(ctx context.Context, lenderID int64, reference string) (*Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(reference)
	for _, loan := range m.loans {
		if loan.LenderID != lenderID {
			continue
		}
		if strings.Contains(strings.ToLower(loan.Name), needle) {
			return loan, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindParticipation(ctx context.Context, counterpartyID, lenderID int64, states []LoanState) (*Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, loan := range m.loans {
		if loan.LenderID != lenderID || !stateIn(loan.State, states) {
			continue
		}
		for _, p := range loan.Participants {
			if p.CounterpartyID == counterpartyID {
				return loan, nil
			}
		}
	}
	return nil, nil
}

func (m *Memory) LenderLoans(ctx context.Context, lenderID int64, states []LoanState) ([]*Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Loan
	for _, loan := range m.loans {
		if loan.LenderID == lenderID && stateIn(loan.State, states) {
			out = append(out, loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Get(ctx context.Context, loanID int64) (*Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loans[loanID], nil
}

func stateIn(s LoanState, states []LoanState) bool {
	for _, candidate := range states {
		if s == candidate {
			return true
		}
	}
	return false
}
