package models

import (
	"fmt"
	"time"
)

// StatementState is the lifecycle of an imported statement file.
type StatementState string

const (
	StatementDraft     StatementState = "draft"
	StatementImported  StatementState = "imported"
	StatementProcessed StatementState = "processed"
)

// Portfolio pairs a lender with a statement format. Statements are imported
// into exactly one portfolio, and duplicate detection is scoped to it.
type Portfolio struct {
	ID       int64            `yaml:"id"`
	Name     string           `yaml:"name"`
	LenderID int64            `yaml:"lender_id"`
	Lender   string           `yaml:"lender"`
	Format   *StatementFormat `yaml:"format"`
	Active   bool             `yaml:"active"`
}

// DeriveName fills in the portfolio name from lender and format names when
// no explicit name has been set.
func (p *Portfolio) DeriveName() {
	if p.Name != "" {
		return
	}
	if p.Lender != "" && p.Format != nil && p.Format.Name != "" {
		p.Name = fmt.Sprintf("%s - %s", p.Lender, p.Format.Name)
	}
}

// Statement is one imported file and the lines extracted from it.
type Statement struct {
	ID          int64
	Ref         string
	Date        time.Time
	PortfolioID int64
	State       StatementState
	Lines       []*StatementLine
}

// LineCounts is the aggregate disposition of a statement's lines.
type LineCounts struct {
	Pending   int
	Discarded int
	Processed int
}

// CountLines tallies lines by state.
func (s *Statement) CountLines() LineCounts {
	var c LineCounts
	for _, l := range s.Lines {
		switch l.State {
		case LinePending:
			c.Pending++
		case LineDiscarded:
			c.Discarded++
		case LineProcessed:
			c.Processed++
		}
	}
	return c
}

// PendingUnmatched returns the pending lines that still lack a loan, the
// population both the heuristic matcher and the AI association work on.
func (s *Statement) PendingUnmatched() []*StatementLine {
	var out []*StatementLine
	for _, l := range s.Lines {
		if l.State == LinePending && l.MatchedLoanID == 0 {
			out = append(out, l)
		}
	}
	return out
}
