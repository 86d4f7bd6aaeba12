package importer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topglobal/statements/internal/audit"
	"topglobal/statements/internal/directory"
	"topglobal/statements/internal/distribution"
	"topglobal/statements/internal/importerror"
	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/matcher"
	"topglobal/statements/internal/models"
)

var statementDay = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func decimalFrom(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func csvPortfolio() *models.Portfolio {
	return &models.Portfolio{
		ID:       1,
		Name:     "Banco Sur - CSV",
		LenderID: 1,
		Lender:   "Banco Sur",
		Format: &models.StatementFormat{
			Name:          "CSV",
			Kind:          models.FormatCSV,
			HeaderPresent: true,
			Active:        true,
		},
		Active: true,
	}
}

func newStatement(id int64) *models.Statement {
	return &models.Statement{
		ID:          id,
		Ref:         "extracto.csv",
		Date:        statementDay,
		PortfolioID: 1,
		State:       models.StatementDraft,
	}
}

var sampleCSV = []byte(`IMPORTE,FECHA,CONCEPTO,ORDENANTE
"100,00",15/01/2026,Cuota enero,Juan Pérez
"-50,00",16/01/2026,Devolución,
"0,00",17/01/2026,Comisión,
sin importe,18/01/2026,Nota,
`)

func TestImportAssignsReference(t *testing.T) {
	imp := New(nil, nil, nil)
	stmt := newStatement(1)
	stmt.Ref = ""

	_, err := imp.Import(context.Background(), stmt, csvPortfolio(), sampleCSV, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, stmt.Ref)
}

func TestImportRowOutcomes(t *testing.T) {
	imp := New(nil, nil, nil)
	stmt := newStatement(1)

	result, err := imp.Import(context.Background(), stmt, csvPortfolio(), sampleCSV, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 1, result.Pending)
	assert.Equal(t, 3, result.Discarded)
	assert.Zero(t, result.SkippedDuplicates)
	assert.Equal(t, models.StatementImported, stmt.State)
	require.Len(t, stmt.Lines, 4)

	payment := stmt.Lines[0]
	assert.Equal(t, models.LinePending, payment.State)
	assert.Equal(t, "100.00", payment.Amount.StringFixed(2))
	assert.Equal(t, "Cuota enero", payment.Concept)
	assert.Equal(t, "Ordenante: Juan Pérez", payment.Remarks)
	assert.True(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC).Equal(payment.Date))
	assert.True(t, payment.Persisted)
	assert.NotZero(t, payment.ID)

	// Negative amounts are discarded keeping their magnitude.
	refund := stmt.Lines[1]
	assert.Equal(t, models.LineDiscarded, refund.State)
	assert.Equal(t, "50.00", refund.Amount.StringFixed(2))

	// Zero amounts are discarded at zero.
	zero := stmt.Lines[2]
	assert.Equal(t, models.LineDiscarded, zero.State)
	assert.True(t, zero.Amount.IsZero())

	// Unresolvable amounts are discarded at zero as well, with the
	// statement date fallback untouched.
	note := stmt.Lines[3]
	assert.Equal(t, models.LineDiscarded, note.State)
	assert.True(t, note.Amount.IsZero())
}

func TestImportSkipsDuplicatesFromOtherStatements(t *testing.T) {
	imp := New(nil, nil, nil)

	first := newStatement(1)
	_, err := imp.Import(context.Background(), first, csvPortfolio(), sampleCSV, nil)
	require.NoError(t, err)

	second := newStatement(2)
	result, err := imp.Import(context.Background(), second, csvPortfolio(), sampleCSV, first.Lines)
	require.NoError(t, err)

	// The payment candidate collides with the first import; the discarded
	// rows are recreated since only payment candidates are checked.
	assert.Equal(t, 1, result.SkippedDuplicates)
	assert.Equal(t, 3, result.Created)
	assert.Zero(t, result.Pending)
}

func TestImportRepeatedRowsWithinFileAreKept(t *testing.T) {
	data := []byte(`IMPORTE,FECHA,CONCEPTO,ORDENANTE
"100,00",15/01/2026,Cuota enero,Juan Pérez
"100,00",15/01/2026,Cuota enero,Juan Pérez
`)
	imp := New(nil, nil, nil)
	stmt := newStatement(1)

	result, err := imp.Import(context.Background(), stmt, csvPortfolio(), data, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Pending)
	assert.Zero(t, result.SkippedDuplicates)
}

func TestImportValidation(t *testing.T) {
	imp := New(nil, nil, nil)

	_, err := imp.Import(context.Background(), newStatement(1), csvPortfolio(), nil, nil)
	var missingFile *importerror.MissingFileError
	assert.ErrorAs(t, err, &missingFile)

	_, err = imp.Import(context.Background(), newStatement(1), &models.Portfolio{ID: 1}, sampleCSV, nil)
	var missingConfig *importerror.MissingPortfolioConfigError
	assert.ErrorAs(t, err, &missingConfig)

	badKind := csvPortfolio()
	badKind.Format.Kind = "pdf"
	_, err = imp.Import(context.Background(), newStatement(1), badKind, sampleCSV, nil)
	var unsupported *importerror.UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupported)

	badRange := csvPortfolio()
	badRange.Format.ColumnRange = "3:9"
	_, err = imp.Import(context.Background(), newStatement(1), badRange, sampleCSV, nil)
	var badRangeErr *importerror.InvalidColumnRangeError
	assert.ErrorAs(t, err, &badRangeErr)
}

func TestImportAutoMatches(t *testing.T) {
	mem := ledger.NewMemory()
	mem.AddLoan(&ledger.Loan{ID: 10, Name: "Préstamo HIS 12345", LenderID: 1, State: ledger.LoanFormalized}, []*ledger.Installment{
		{
			Number:    1,
			Ref:       "CUOTA-1",
			DueDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount:    decimalFrom("100.00"),
			Principal: decimalFrom("80.00"),
			Interest:  decimalFrom("20.00"),
		},
	})
	dir := directory.NewMemory()
	engine := distribution.NewEngine(mem, 0, nil)
	m := matcher.New(mem, dir, engine, 0, 0, nil)
	trail := audit.NewTrail(nil)
	imp := New(m, trail, nil)

	data := []byte(`IMPORTE,FECHA,CONCEPTO,OBSERVACIONES
"100,00",15/01/2026,Cuota,Recibo HIS 12345
`)
	stmt := newStatement(1)
	result, err := imp.Import(context.Background(), stmt, csvPortfolio(), data, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AutoMatched)
	require.Len(t, stmt.Lines, 1)
	line := stmt.Lines[0]
	assert.Equal(t, int64(10), line.MatchedLoanID)
	assert.True(t, line.AutoMatched)

	// The match triggered a distribution recompute.
	require.Len(t, line.Items, 2)
	assert.Equal(t, "100.00", line.DistributedAmount.StringFixed(2))
	assert.False(t, line.PartialPayment)

	// The import left an audit event.
	events := trail.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "statement", events[0].Entity)
	assert.Equal(t, "imported", events[0].Action)
}
