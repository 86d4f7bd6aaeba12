// Package fieldextract resolves the amount, date, concept and counterparty
// fields of a decoded statement row. Resolution tries the configured column
// position first and falls back to an ordered list of known header names;
// a field that resolves to nothing is reported as unresolved, which is
// distinct from zero or empty.
package fieldextract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"topglobal/statements/internal/models"
	"topglobal/statements/internal/statementparser"
)

// Fallback header names, in priority order, for statements whose format does
// not pin a column letter for the field.
var (
	amountHeaders = []string{"IMPORTE", "Importe", "importe", "IMPORT", "Import", "amount", "Amount", "AMOUNT"}
	dateHeaders   = []string{"F. CONTABLE", "FECHA", "Fecha", "fecha", "FECHA CONTABLE", "date", "Date", "DATE"}
	conceptHeaders = []string{"CONCEPTO", "Concepto", "concepto", "CONCEPT", "Concept"}
	counterpartyHeaders = []string{"ORDENANTE", "Ordenante", "ordenante", "INTERVINIENTE", "Interviniente", "interviniente"}
	observationHeaders  = []string{"OBSERVACIONES", "Observaciones", "observaciones", "OBS", "Obs", "DESCRIPCION", "Descripcion", "DETALLE", "Detalle"}
)

// dateLayouts are tried in order against string date values: day/month/year,
// ISO, dashed, reversed, and the 2-digit-year variant.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02/01/06",
}

// Spreadsheet serial dates count days from an epoch 25569 days before the
// Unix epoch.
const (
	serialEpochOffset = 25569
	secondsPerDay     = 86400
)

// Extractor resolves fields per one statement format. ImportDate is the
// fallback when no date resolves for a row.
type Extractor struct {
	Format     *models.StatementFormat
	ImportDate time.Time
}

// New creates an extractor for a format and import date.
func New(format *models.StatementFormat, importDate time.Time) *Extractor {
	return &Extractor{Format: format, ImportDate: importDate}
}

// Resolve finds a raw value using the configured column letter, then the
// fallback header names. The second return is false when nothing resolves.
func Resolve(row statementparser.Row, columnLetter string, fallbacks []string) (string, bool) {
	if columnLetter != "" {
		if idx := models.ColumnIndex(columnLetter); idx >= 0 {
			if v, ok := row.ByIndex(idx); ok && strings.TrimSpace(v) != "" {
				return v, true
			}
		}
	}
	for _, name := range fallbacks {
		if v, ok := row.ByHeader(name); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// Amount resolves and normalizes the row's amount. The bool is false when
// the amount is unresolved; the sign of the raw value is preserved.
func (e *Extractor) Amount(row statementparser.Row) (decimal.Decimal, bool) {
	raw, ok := Resolve(row, e.Format.AmountColumn, amountHeaders)
	if !ok {
		return decimal.Zero, false
	}
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// Date resolves the row's date. Numeric values are treated as spreadsheet
// serial dates; strings are matched against the known layouts. When nothing
// resolves the statement's import date is used.
func (e *Extractor) Date(row statementparser.Row) time.Time {
	raw, ok := Resolve(row, e.Format.DateColumn, dateHeaders)
	if !ok {
		return e.ImportDate
	}
	if t, ok := parseDate(raw); ok {
		return t
	}
	return e.ImportDate
}

// Concept resolves the row's short concept text.
func (e *Extractor) Concept(row statementparser.Row) string {
	raw, ok := Resolve(row, e.Format.ConceptColumn, conceptHeaders)
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

// Remarks combines the free-text observations field with the counterparty
// label. The counterparty keeps its "Ordenante:" prefix so downstream
// matching heuristics can find it.
func (e *Extractor) Remarks(row statementparser.Row) string {
	observations := ""
	if raw, ok := Resolve(row, "", observationHeaders); ok {
		observations = strings.TrimSpace(raw)
	}

	counterparty := ""
	if raw, ok := Resolve(row, e.Format.CounterpartyColumn, counterpartyHeaders); ok {
		counterparty = strings.TrimSpace(raw)
	}

	switch {
	case observations != "" && counterparty != "":
		return observations + " | Ordenante: " + counterparty
	case counterparty != "":
		return "Ordenante: " + counterparty
	default:
		return observations
	}
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	// A bare number is a spreadsheet serial date.
	if serial, err := decimal.NewFromString(raw); err == nil {
		seconds := serial.Sub(decimal.NewFromInt(serialEpochOffset)).Mul(decimal.NewFromInt(secondsPerDay))
		return time.Unix(seconds.IntPart(), 0).UTC().Truncate(24 * time.Hour), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
