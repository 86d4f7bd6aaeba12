package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/models"
)

var payDay = time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// twoInstallments is a schedule whose first installment carries a one-cent
// residual between the total and its components.
func twoInstallments() []*ledger.Installment {
	return []*ledger.Installment{
		{
			Number:    1,
			Ref:       "CUOTA-1",
			DueDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount:    dec("100.00"),
			Principal: dec("80.00"),
			Interest:  dec("19.99"),
		},
		{
			Number:    2,
			Ref:       "CUOTA-2",
			DueDate:   time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
			Amount:    dec("100.00"),
			Principal: dec("80.00"),
			Interest:  dec("20.00"),
		},
	}
}

func newTestLedger(schedule []*ledger.Installment) *ledger.Memory {
	mem := ledger.NewMemory()
	mem.AddLoan(&ledger.Loan{ID: 10, Name: "Préstamo HIS 12345", LenderID: 1, State: ledger.LoanFormalized}, schedule)
	return mem
}

func matchedLine(amount string) *models.StatementLine {
	line := models.NewStatementLine(1, 1, 1)
	line.ID = 1
	line.Persisted = true
	line.Date = payDay
	line.Amount = dec(amount)
	line.AssignLoan(10, true)
	return line
}

func TestRecomputeBuildsSchedule(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("200.00")

	require.NoError(t, engine.Recompute(context.Background(), line))

	require.Len(t, line.Items, 4)
	assert.True(t, payDay.Equal(line.CalcDate))

	// Interest before capital within each installment, and the one-cent
	// residual of the first installment is absorbed into its interest.
	assert.Equal(t, models.ConceptInterest, line.Items[0].Kind)
	assert.Equal(t, "20.00", line.Items[0].Amount.StringFixed(2))
	assert.Equal(t, "CUOTA-1", line.Items[0].ObligationRef)

	assert.Equal(t, models.ConceptCapital, line.Items[1].Kind)
	assert.Equal(t, "80.00", line.Items[1].Amount.StringFixed(2))

	assert.Equal(t, models.ConceptInterest, line.Items[2].Kind)
	assert.Equal(t, "CUOTA-2", line.Items[2].ObligationRef)
	assert.Equal(t, models.ConceptCapital, line.Items[3].Kind)

	for i, item := range line.Items {
		assert.Equal(t, i+1, item.OrderIndex)
		assert.True(t, item.Enabled)
		assert.Equal(t, item.Kind.Label(), item.Label)
	}
}

func TestRecomputeGuards(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)

	transient := matchedLine("100.00")
	transient.Persisted = false
	require.NoError(t, engine.Recompute(context.Background(), transient))
	assert.Empty(t, transient.Items)

	unmatched := matchedLine("100.00")
	unmatched.MatchedLoanID = 0
	require.NoError(t, engine.Recompute(context.Background(), unmatched))
	assert.Empty(t, unmatched.Items)

	dateless := matchedLine("100.00")
	dateless.Date = time.Time{}
	require.NoError(t, engine.Recompute(context.Background(), dateless))
	assert.Empty(t, dateless.Items)
}

func TestDistributeFullPayment(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("100.00")

	require.NoError(t, engine.Recompute(context.Background(), line))

	assert.Equal(t, "20.00", line.Items[0].Paid.StringFixed(2))
	assert.Equal(t, "80.00", line.Items[1].Paid.StringFixed(2))
	assert.Equal(t, "0.00", line.Items[2].Paid.StringFixed(2))
	assert.Equal(t, "0.00", line.Items[3].Paid.StringFixed(2))

	assert.Equal(t, "100.00", line.DistributedAmount.StringFixed(2))
	assert.False(t, line.PartialPayment)
	assert.True(t, line.Reviewed)
}

func TestDistributePartialPayment(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("50.00")

	require.NoError(t, engine.Recompute(context.Background(), line))

	assert.Equal(t, "20.00", line.Items[0].Paid.StringFixed(2))
	assert.False(t, line.Items[0].Partial)

	// The item that exhausts the remainder is flagged partial; everything
	// after it gets nothing.
	assert.Equal(t, "30.00", line.Items[1].Paid.StringFixed(2))
	assert.True(t, line.Items[1].Partial)
	assert.Equal(t, "0.00", line.Items[2].Paid.StringFixed(2))
	assert.False(t, line.Items[2].Partial)

	assert.Equal(t, "50.00", line.DistributedAmount.StringFixed(2))
	assert.True(t, line.PartialPayment)
	assert.False(t, line.Reviewed)
}

func TestDistributeNeverExceedsAmount(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("150.50")

	require.NoError(t, engine.Recompute(context.Background(), line))

	total := decimal.Zero
	for _, item := range line.Items {
		total = total.Add(item.Paid)
	}
	assert.True(t, total.LessThanOrEqual(line.Amount))
	assert.Equal(t, "150.50", line.DistributedAmount.StringFixed(2))
}

func TestDistributeSuppressedCategories(t *testing.T) {
	schedule := []*ledger.Installment{
		{
			Number:    1,
			Ref:       "CUOTA-1",
			DueDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount:    dec("100.00"),
			Principal: dec("80.00"),
			Interest:  dec("20.00"),
			PenaltyAt: func(time.Time) decimal.Decimal { return dec("5.00") },
			LateFeeAt: func(time.Time) decimal.Decimal { return dec("3.00") },
		},
	}
	engine := NewEngine(newTestLedger(schedule), 0, nil)
	line := matchedLine("25.00")
	line.ApplyPenalties = false
	line.ApplyLateFees = false

	require.NoError(t, engine.Recompute(context.Background(), line))
	require.Len(t, line.Items, 4)

	assert.Equal(t, models.ConceptPenalty, line.Items[0].Kind)
	assert.Equal(t, "0.00", line.Items[0].Paid.StringFixed(2))
	assert.Equal(t, models.ConceptLateFee, line.Items[1].Kind)
	assert.Equal(t, "0.00", line.Items[1].Paid.StringFixed(2))

	// The suppressed categories leave the payment for interest and capital.
	assert.Equal(t, "20.00", line.Items[2].Paid.StringFixed(2))
	assert.Equal(t, "5.00", line.Items[3].Paid.StringFixed(2))
	assert.True(t, line.Items[3].Partial)
}

func TestDistributeDisabledItem(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("100.00")

	require.NoError(t, engine.Recompute(context.Background(), line))
	line.Items[0].Enabled = false
	engine.Distribute(line)

	assert.Equal(t, "0.00", line.Items[0].Paid.StringFixed(2))
	assert.Equal(t, "80.00", line.Items[1].Paid.StringFixed(2))
	assert.Equal(t, "20.00", line.Items[2].Paid.StringFixed(2))
}

func TestRecomputeTruncatesStaleItems(t *testing.T) {
	schedule := twoInstallments()
	engine := NewEngine(newTestLedger(schedule), 0, nil)
	line := matchedLine("200.00")

	require.NoError(t, engine.Recompute(context.Background(), line))
	require.Len(t, line.Items, 4)

	// After the second installment settles the stale slots disappear.
	schedule[1].Settled = true
	require.NoError(t, engine.Recompute(context.Background(), line))
	require.Len(t, line.Items, 2)
	assert.Equal(t, "CUOTA-1", line.Items[0].ObligationRef)
	assert.Equal(t, "CUOTA-1", line.Items[1].ObligationRef)
}

func TestAddExtraordinaryGoesFirst(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("100.00")

	require.NoError(t, engine.Recompute(context.Background(), line))
	require.NoError(t, engine.AddExtraordinary(context.Background(), line, dec("10.00"), "Comisión"))

	require.Len(t, line.Items, 5)
	first := line.Items[0]
	assert.True(t, first.Extraordinary)
	assert.Equal(t, "Comisión", first.Label)
	assert.Equal(t, models.ConceptOther, first.Kind)
	assert.Equal(t, 1, first.OrderIndex)

	// The extraordinary slot is consumed before the regular schedule.
	assert.Equal(t, "10.00", first.Paid.StringFixed(2))
	assert.Equal(t, "20.00", line.Items[1].Paid.StringFixed(2))
	assert.Equal(t, "70.00", line.Items[2].Paid.StringFixed(2))
	assert.True(t, line.Items[2].Partial)
}

func TestAddExtraordinaryValidation(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("100.00")

	assert.Error(t, engine.AddExtraordinary(context.Background(), line, dec("0.00"), "Comisión"))
	assert.Error(t, engine.AddExtraordinary(context.Background(), line, dec("10.00"), ""))
}

func TestRemoveItem(t *testing.T) {
	engine := NewEngine(newTestLedger(twoInstallments()), 0, nil)
	line := matchedLine("100.00")

	require.NoError(t, engine.Recompute(context.Background(), line))
	require.NoError(t, engine.AddExtraordinary(context.Background(), line, dec("10.00"), "Comisión"))
	require.Len(t, line.Items, 5)

	require.NoError(t, engine.RemoveItem(context.Background(), line, 1, true))
	require.Len(t, line.Items, 4)
	for _, item := range line.Items {
		assert.False(t, item.Extraordinary)
	}
	assert.Equal(t, "20.00", line.Items[0].Paid.StringFixed(2))
}

func TestConceptRegistry(t *testing.T) {
	r := NewConceptRegistry()

	assert.Equal(t, models.ConceptCapital, r.Resolve("Capital"))
	assert.Equal(t, models.ConceptInterest, r.Resolve("Interés"))
	assert.Equal(t, models.ConceptLateFee, r.Resolve("Mora"))
	assert.Equal(t, models.ConceptPenalty, r.Resolve("Penalización"))

	// Unknown labels register as the catch-all kind and stay stable.
	assert.Equal(t, models.ConceptOther, r.Resolve("Comisión"))
	assert.Equal(t, models.ConceptOther, r.Resolve("Comisión"))
}
