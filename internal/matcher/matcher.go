// Package matcher assigns loans to pending statement lines. An ordered list
// of heuristic strategies runs per line, first success wins; an AI-assisted
// association over a whole statement is available as an optional fallback
// for the lines the heuristics leave unmatched.
package matcher

import (
	"context"
	"fmt"

	"topglobal/statements/internal/audit"
	"topglobal/statements/internal/directory"
	"topglobal/statements/internal/distribution"
	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

// Default caps for the fuzzy name strategy: how many capitalized tokens of
// the remarks are probed, and how many counterparties a token may return.
const (
	DefaultFuzzyTokenCap      = 3
	DefaultCounterpartyHitCap = 5
)

// Candidate is one line under consideration together with the portfolio
// context the repeat strategy needs: all lines of the portfolio in creation
// order.
type Candidate struct {
	Line           *models.StatementLine
	PortfolioLines []*models.StatementLine
}

// Strategy is one loan assignment heuristic. A zero loan id with a nil
// error means the strategy found nothing and the next one runs.
type Strategy interface {
	Name() string
	Match(ctx context.Context, cand *Candidate) (int64, error)
}

// Matcher runs the strategy chain and triggers distribution recompute on
// success.
type Matcher struct {
	strategies []Strategy
	engine     *distribution.Engine
	trail      *audit.Trail
	log        logging.Logger
}

// New creates a matcher with the standard strategy order: repeat match,
// reference code, identity number, fuzzy name.
func New(loans ledger.LoanLookup, dir directory.Directory, engine *distribution.Engine, tokenCap, hitCap int, logger logging.Logger) *Matcher {
	if tokenCap <= 0 {
		tokenCap = DefaultFuzzyTokenCap
	}
	if hitCap <= 0 {
		hitCap = DefaultCounterpartyHitCap
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Matcher{
		strategies: []Strategy{
			&repeatStrategy{},
			&referenceStrategy{loans: loans},
			&identityStrategy{dir: dir, loans: loans},
			&fuzzyNameStrategy{dir: dir, loans: loans, tokenCap: tokenCap, hitCap: hitCap},
		},
		engine: engine,
		log:    logger,
	}
}

// SetTrail attaches an audit trail; assignments append to it.
func (m *Matcher) SetTrail(trail *audit.Trail) {
	m.trail = trail
}

// Match tries to assign a loan to the candidate's line. It returns the name
// of the winning strategy, or "" when no strategy matched; an unmatched line
// stays pending and is not an error.
func (m *Matcher) Match(ctx context.Context, cand *Candidate) (string, error) {
	line := cand.Line
	if !line.EligibleForMatching() || line.Remarks == "" || line.LenderID == 0 {
		return "", nil
	}

	for _, s := range m.strategies {
		loanID, err := s.Match(ctx, cand)
		if err != nil {
			return "", err
		}
		if loanID == 0 {
			continue
		}

		line.AssignLoan(loanID, true)
		m.log.WithFields(
			logging.Field{Key: "line", Value: line.ID},
			logging.Field{Key: "loan", Value: loanID},
			logging.Field{Key: "strategy", Value: s.Name()},
		).Info("Loan assigned automatically")
		m.record(line, fmt.Sprintf("Loan %d assigned by %s strategy", loanID, s.Name()))

		if err := m.engine.Recompute(ctx, line); err != nil {
			return s.Name(), err
		}
		return s.Name(), nil
	}
	return "", nil
}

// MatchStatement runs the strategy chain over every pending unmatched line
// of the statement and returns how many lines were assigned. portfolioLines
// holds all lines of the portfolio in creation order, this statement's
// included, for the repeat strategy.
func (m *Matcher) MatchStatement(ctx context.Context, stmt *models.Statement, portfolioLines []*models.StatementLine) (int, error) {
	assigned := 0
	for _, line := range stmt.PendingUnmatched() {
		name, err := m.Match(ctx, &Candidate{Line: line, PortfolioLines: portfolioLines})
		if err != nil {
			return assigned, err
		}
		if name != "" {
			assigned++
		}
	}
	return assigned, nil
}

// Assign records a manual loan selection on a line and recomputes its
// distribution. Manual picks are not flagged auto-matched.
func (m *Matcher) Assign(ctx context.Context, line *models.StatementLine, loanID int64) error {
	line.AssignLoan(loanID, false)
	m.record(line, fmt.Sprintf("Loan %d assigned manually", loanID))
	return m.engine.Recompute(ctx, line)
}

func (m *Matcher) record(line *models.StatementLine, detail string) {
	if m.trail == nil {
		return
	}
	m.trail.Append(audit.Event{
		Entity: "line",
		Ref:    line.ID,
		Action: "matched",
		Detail: detail,
	})
}
