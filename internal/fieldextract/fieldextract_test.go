package fieldextract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topglobal/statements/internal/models"
	"topglobal/statements/internal/statementparser"
)

var importDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func headerRow(headers []string, cells []string) statementparser.Row {
	return statementparser.Row{Cells: cells, Headers: headers}
}

func TestResolvePrefersConfiguredColumn(t *testing.T) {
	row := headerRow([]string{"IMPORTE", "OTRO"}, []string{"100,00", "999,99"})

	// Column letter B points at the second cell even though the first header
	// is the usual amount fallback.
	v, ok := Resolve(row, "B", amountHeaders)
	require.True(t, ok)
	assert.Equal(t, "999,99", v)

	// Empty configured column falls back to the header names.
	v, ok = Resolve(row, "", amountHeaders)
	require.True(t, ok)
	assert.Equal(t, "100,00", v)
}

func TestResolveFallsBackWhenColumnEmpty(t *testing.T) {
	row := headerRow([]string{"X", "IMPORTE"}, []string{"", "100,00"})

	v, ok := Resolve(row, "A", amountHeaders)
	require.True(t, ok)
	assert.Equal(t, "100,00", v)
}

func TestResolveNothing(t *testing.T) {
	row := headerRow([]string{"X"}, []string{"abc"})
	_, ok := Resolve(row, "", amountHeaders)
	assert.False(t, ok)
}

func TestAmountUnresolvedIsDistinctFromZero(t *testing.T) {
	e := New(&models.StatementFormat{}, importDate)

	_, ok := e.Amount(headerRow([]string{"X"}, []string{"abc"}))
	assert.False(t, ok)

	amount, ok := e.Amount(headerRow([]string{"IMPORTE"}, []string{"0,00"}))
	require.True(t, ok)
	assert.True(t, amount.IsZero())
}

func TestAmountHeaderFallbackOrder(t *testing.T) {
	e := New(&models.StatementFormat{}, importDate)

	amount, ok := e.Amount(headerRow([]string{"Amount"}, []string{"1.234,56"}))
	require.True(t, ok)
	assert.Equal(t, "1234.56", amount.StringFixed(2))
}

func TestDateLayouts(t *testing.T) {
	e := New(&models.StatementFormat{}, importDate)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"15/01/2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2026-01-15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15-01-2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2026/01/15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15/01/26", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got := e.Date(headerRow([]string{"FECHA"}, []string{tc.raw}))
			assert.True(t, tc.want.Equal(got), "got %s", got)
		})
	}
}

func TestDateSerialNumber(t *testing.T) {
	e := New(&models.StatementFormat{}, importDate)

	// Spreadsheet serial 45000 is 2023-03-15.
	got := e.Date(headerRow([]string{"FECHA"}, []string{"45000"}))
	assert.True(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC).Equal(got), "got %s", got)
}

func TestDateFallsBackToImportDate(t *testing.T) {
	e := New(&models.StatementFormat{}, importDate)

	got := e.Date(headerRow([]string{"FECHA"}, []string{"no date here"}))
	assert.True(t, importDate.Equal(got))

	got = e.Date(headerRow([]string{"X"}, []string{"15/01/2026"}))
	assert.True(t, importDate.Equal(got))
}

func TestRemarksComposition(t *testing.T) {
	e := New(&models.StatementFormat{}, importDate)

	tests := []struct {
		name    string
		headers []string
		cells   []string
		want    string
	}{
		{
			"observations and counterparty",
			[]string{"OBSERVACIONES", "ORDENANTE"},
			[]string{"Recibo enero", "Juan Pérez"},
			"Recibo enero | Ordenante: Juan Pérez",
		},
		{
			"counterparty only",
			[]string{"ORDENANTE"},
			[]string{"Juan Pérez"},
			"Ordenante: Juan Pérez",
		},
		{
			"observations only",
			[]string{"OBSERVACIONES"},
			[]string{"Recibo enero"},
			"Recibo enero",
		},
		{
			"nothing",
			[]string{"X"},
			[]string{"y"},
			"",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Remarks(headerRow(tc.headers, tc.cells)))
		})
	}
}

func TestConceptTrimmed(t *testing.T) {
	e := New(&models.StatementFormat{}, importDate)
	got := e.Concept(headerRow([]string{"CONCEPTO"}, []string{"  Cuota enero  "}))
	assert.Equal(t, "Cuota enero", got)
}
