package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ConceptKind classifies a distribution item into the ledger's allocation
// vocabulary.
type ConceptKind string

const (
	ConceptCapital  ConceptKind = "capital"
	ConceptInterest ConceptKind = "interest"
	ConceptLateFee  ConceptKind = "late_fee"
	ConceptPenalty  ConceptKind = "penalty"
	ConceptOther    ConceptKind = "other"
)

// Label returns the display label for a kind. Ad-hoc extraordinary items
// carry their own label and ConceptOther.
func (k ConceptKind) Label() string {
	switch k {
	case ConceptCapital:
		return "Capital"
	case ConceptInterest:
		return "Interés"
	case ConceptLateFee:
		return "Mora"
	case ConceptPenalty:
		return "Penalización"
	default:
		return "Otros"
	}
}

// DistributionItem is one allocation slot under a statement line: an
// obligation amount plus the portion of the line's payment applied to it.
type DistributionItem struct {
	OrderIndex int
	DueDate    time.Time

	Amount decimal.Decimal
	Paid   decimal.Decimal

	Kind  ConceptKind
	Label string

	// ObligationRef links a regular item to the ledger installment it was
	// built from. Extraordinary items carry no reference.
	ObligationRef string

	Enabled       bool
	Extraordinary bool
	Partial       bool
}

// SortItems orders items as the waterfall consumes them: extraordinary
// items first, then ascending order index within each group. The sort is
// stable so manually created items keep their relative order.
func SortItems(items []*DistributionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Extraordinary != items[j].Extraordinary {
			return items[i].Extraordinary
		}
		return items[i].OrderIndex < items[j].OrderIndex
	})
}
