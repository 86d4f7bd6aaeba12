// Package distribution builds the ordered obligation schedule for a line's
// matched loan and runs the waterfall allocation of the line's amount over
// it. Recompute and Distribute perform a read-modify-write over the line's
// full item set and must not run concurrently for the same line; callers
// serialize access per line.
package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"topglobal/statements/internal/audit"
	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

var (
	// CentEpsilon is the exhaustion threshold of the waterfall: a remainder
	// below it allocates nothing further.
	CentEpsilon = decimal.NewFromFloat(0.01)

	// PendingThreshold is the minimum unpaid amount, per obligation
	// category, that produces a pending distribution item. It also bounds
	// the residual rounding absorbed into the interest component.
	PendingThreshold = decimal.NewFromFloat(0.02)
)

// DefaultObligationFetchCap bounds how many outstanding installments a
// recompute requests from the ledger.
const DefaultObligationFetchCap = 25

// Engine rebuilds and distributes a line's obligation schedule.
type Engine struct {
	ledger   ledger.LoanLedger
	fetchCap int
	concepts *ConceptRegistry
	trail    *audit.Trail
	log      logging.Logger
}

// NewEngine creates a distribution engine. fetchCap <= 0 selects the
// default obligation fetch cap.
func NewEngine(l ledger.LoanLedger, fetchCap int, logger logging.Logger) *Engine {
	if fetchCap <= 0 {
		fetchCap = DefaultObligationFetchCap
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Engine{
		ledger:   l,
		fetchCap: fetchCap,
		concepts: NewConceptRegistry(),
		log:      logger,
	}
}

// SetTrail attaches an audit trail; recomputes append to it.
func (e *Engine) SetTrail(trail *audit.Trail) {
	e.trail = trail
}

// pendingItem is one freshly computed schedule slot before it is merged
// into the line's distribution items.
type pendingItem struct {
	amount  decimal.Decimal
	dueDate time.Time
	kind    models.ConceptKind
	ref     string
}

// Recompute refreshes the line's regular distribution items from the
// ledger's outstanding obligations and re-runs the waterfall. Extraordinary
// items are preserved ahead of regular ones; stale regular items beyond the
// computed schedule are truncated. A line that is transient, unmatched or
// dateless is left untouched.
func (e *Engine) Recompute(ctx context.Context, line *models.StatementLine) error {
	if !line.Persisted {
		return nil
	}
	if line.MatchedLoanID == 0 || line.Date.IsZero() {
		return nil
	}

	line.CalcDate = line.Date
	e.log.WithFields(
		logging.Field{Key: "line", Value: line.ID},
		logging.Field{Key: "loan", Value: line.MatchedLoanID},
	).Debug("Recomputing distribution schedule")

	obligations, err := e.ledger.ListOutstandingObligations(ctx, line.MatchedLoanID, line.CalcDate, e.fetchCap)
	if err != nil {
		return fmt.Errorf("failed to list obligations for loan %d: %w", line.MatchedLoanID, err)
	}

	pending := e.pendingSchedule(obligations)
	e.mergeItems(line, pending)
	e.Distribute(line)

	if e.trail != nil {
		e.trail.Append(audit.Event{
			Entity: "line",
			Ref:    line.ID,
			Action: "distributed",
			Detail: fmt.Sprintf("Distributed %s of %s over %d items", line.DistributedAmount.StringFixed(2), line.Amount.StringFixed(2), len(line.Items)),
		})
	}
	return nil
}

// pendingSchedule expands outstanding obligations into pending slots in the
// fixed priority order: penalty, late fee, interest, principal.
func (e *Engine) pendingSchedule(obligations []ledger.Obligation) []pendingItem {
	var out []pendingItem
	for _, ob := range obligations {
		interest := ob.Interest

		// Source schedules sometimes carry a one-cent residual between the
		// declared total and its components; absorb it into interest.
		diff := ob.Amount.Sub(ob.Principal.Add(interest))
		if !diff.IsZero() && diff.Abs().LessThan(PendingThreshold) {
			interest = interest.Add(diff)
		}

		categories := []struct {
			amount decimal.Decimal
			kind   models.ConceptKind
		}{
			{ob.PenaltyAccrued.Sub(ob.PaidPenalty), models.ConceptPenalty},
			{ob.LateFeeAccrued.Sub(ob.PaidLateFee), models.ConceptLateFee},
			{interest.Sub(ob.PaidInterest), models.ConceptInterest},
			{ob.Principal.Sub(ob.PaidPrincipal), models.ConceptCapital},
		}
		for _, c := range categories {
			if c.amount.GreaterThanOrEqual(PendingThreshold) {
				out = append(out, pendingItem{
					amount:  c.amount,
					dueDate: ob.DueDate,
					kind:    c.kind,
					ref:     ob.Ref,
				})
			}
		}
	}
	return out
}

// mergeItems writes the computed schedule into the line's items, reusing
// regular slots in place by position. Extraordinary items stay first and are
// renumbered; regular items beyond the fresh schedule are dropped.
func (e *Engine) mergeItems(line *models.StatementLine, pending []pendingItem) {
	models.SortItems(line.Items)

	idx := 0
	for _, item := range line.Items {
		if !item.Extraordinary {
			break
		}
		item.OrderIndex = idx + 1
		item.Enabled = true
		item.Kind = e.concepts.Resolve(item.Label)
		idx++
	}

	for _, p := range pending {
		kind := p.kind
		if idx < len(line.Items) {
			item := line.Items[idx]
			item.OrderIndex = idx + 1
			item.DueDate = p.dueDate
			item.Amount = p.amount
			item.Kind = kind
			item.Label = kind.Label()
			item.ObligationRef = p.ref
			item.Enabled = true
			item.Extraordinary = false
		} else {
			line.Items = append(line.Items, &models.DistributionItem{
				OrderIndex:    idx + 1,
				DueDate:       p.dueDate,
				Amount:        p.amount,
				Kind:          kind,
				Label:         kind.Label(),
				ObligationRef: p.ref,
				Enabled:       true,
			})
		}
		idx++
	}

	line.Items = line.Items[:idx]
}

// Distribute runs the waterfall: items are consumed in final order,
// extraordinary first, until the line's amount is exhausted. Disabled items
// and categories suppressed by the line's penalty/late-fee switches receive
// nothing. The item that exhausts the remainder without covering its
// obligation is flagged partial, which in turn leaves the line unreviewed.
func (e *Engine) Distribute(line *models.StatementLine) {
	if len(line.Items) == 0 {
		return
	}

	models.SortItems(line.Items)

	remaining := line.Amount
	distributed := decimal.Zero
	for _, item := range line.Items {
		skip := remaining.LessThan(CentEpsilon) ||
			!item.Enabled ||
			(!line.ApplyLateFees && item.Kind == models.ConceptLateFee) ||
			(!line.ApplyPenalties && item.Kind == models.ConceptPenalty)
		if skip {
			item.Paid = decimal.Zero
			item.Partial = false
			continue
		}

		if item.Amount.Round(2).GreaterThan(remaining.Round(2)) {
			item.Paid = remaining
			item.Partial = true
			line.PartialPayment = true
			distributed = distributed.Add(remaining)
			remaining = decimal.Zero
		} else {
			item.Paid = item.Amount
			item.Partial = false
			line.PartialPayment = false
			distributed = distributed.Add(item.Amount)
			remaining = remaining.Sub(item.Amount)
		}
	}

	line.DistributedAmount = distributed
	line.Reviewed = !line.PartialPayment
}

// AddExtraordinary appends a manual allocation slot with the next order
// index, then recomputes so it sorts ahead of the regular schedule and the
// waterfall reruns.
func (e *Engine) AddExtraordinary(ctx context.Context, line *models.StatementLine, amount decimal.Decimal, label string) error {
	if !amount.IsPositive() || label == "" {
		return fmt.Errorf("extraordinary item needs a positive amount and a label")
	}

	maxOrder := 0
	for _, item := range line.Items {
		if item.OrderIndex > maxOrder {
			maxOrder = item.OrderIndex
		}
	}

	line.Items = append(line.Items, &models.DistributionItem{
		OrderIndex:    maxOrder + 1,
		DueDate:       line.Date,
		Amount:        amount,
		Kind:          e.concepts.Resolve(label),
		Label:         label,
		Enabled:       true,
		Extraordinary: true,
	})

	return e.Recompute(ctx, line)
}

// RemoveItem deletes one allocation slot and recomputes the schedule.
func (e *Engine) RemoveItem(ctx context.Context, line *models.StatementLine, orderIndex int, extraordinary bool) error {
	kept := line.Items[:0]
	for _, item := range line.Items {
		if item.OrderIndex == orderIndex && item.Extraordinary == extraordinary {
			continue
		}
		kept = append(kept, item)
	}
	line.Items = kept
	return e.Recompute(ctx, line)
}
