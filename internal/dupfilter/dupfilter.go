// Package dupfilter rejects statement rows that already exist as a line in
// another statement of the same portfolio, so that re-importing a file never
// duplicates payment candidates.
package dupfilter

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"topglobal/statements/internal/models"
)

// AmountEpsilon is the tolerance below which two amounts count as equal for
// duplicate detection.
var AmountEpsilon = decimal.NewFromFloat(0.01)

type entry struct {
	concept string
	remarks string
	date    time.Time
	amount  decimal.Decimal
}

// Filter is a portfolio-scoped duplicate index. Reads may run concurrently;
// writes are serialized.
type Filter struct {
	mu          sync.RWMutex
	byPortfolio map[int64][]entry
}

// New creates an empty filter.
func New() *Filter {
	return &Filter{byPortfolio: make(map[int64][]entry)}
}

// Seed indexes the existing lines of a portfolio, typically those belonging
// to its previously imported statements.
func (f *Filter) Seed(portfolioID int64, lines []*models.StatementLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range lines {
		f.byPortfolio[portfolioID] = append(f.byPortfolio[portfolioID], entry{
			concept: l.Concept,
			remarks: l.Remarks,
			date:    l.Date,
			amount:  l.Amount,
		})
	}
}

// Add indexes one newly created candidate.
func (f *Filter) Add(portfolioID int64, concept, remarks string, date time.Time, amount decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byPortfolio[portfolioID] = append(f.byPortfolio[portfolioID], entry{
		concept: concept,
		remarks: remarks,
		date:    date,
		amount:  amount,
	})
}

// IsDuplicate reports whether an equal candidate already exists in the
// portfolio: same concept, same remarks, same date, amount within epsilon.
func (f *Filter) IsDuplicate(portfolioID int64, concept, remarks string, date time.Time, amount decimal.Decimal) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.byPortfolio[portfolioID] {
		if e.concept == concept &&
			e.remarks == remarks &&
			e.date.Equal(date) &&
			e.amount.Sub(amount).Abs().LessThan(AmountEpsilon) {
			return true
		}
	}
	return false
}
