// Package models defines the portfolio, statement, line and distribution
// entities shared across the import pipeline.
package models

import (
	"regexp"
	"strings"

	"topglobal/statements/internal/importerror"
)

// FormatKind identifies the container format of a statement file.
type FormatKind string

const (
	// FormatXLS is the legacy binary spreadsheet container.
	FormatXLS FormatKind = "xls"
	// FormatXLSX is the modern zip-based spreadsheet container.
	FormatXLSX FormatKind = "xlsx"
	// FormatCSV is comma-delimited text.
	FormatCSV FormatKind = "csv"
	// FormatTXT is tab-delimited text.
	FormatTXT FormatKind = "txt"
)

var columnRangePattern = regexp.MustCompile(`^[A-Z]+:[A-Z]+$`)

// StatementFormat describes how one bank's statement files are laid out.
// SkipRows and HeaderPresent control where the tabular data starts;
// ColumnRange optionally restricts parsing to a letter span like "C:M".
// The Column fields hold configured column letters per extracted field and
// may be empty, in which case extraction falls back to header names.
type StatementFormat struct {
	Name          string     `yaml:"name"`
	Kind          FormatKind `yaml:"kind"`
	SkipRows      int        `yaml:"skip_rows"`
	HeaderPresent bool       `yaml:"header_present"`
	ColumnRange   string     `yaml:"column_range,omitempty"`

	AmountColumn       string `yaml:"amount_column,omitempty"`
	DateColumn         string `yaml:"date_column,omitempty"`
	ConceptColumn      string `yaml:"concept_column,omitempty"`
	CounterpartyColumn string `yaml:"counterparty_column,omitempty"`

	Active bool `yaml:"active"`
}

// Validate checks the format descriptor, in particular the column range
// letter pattern.
func (f *StatementFormat) Validate() error {
	if f.ColumnRange == "" {
		return nil
	}
	if !columnRangePattern.MatchString(strings.ToUpper(strings.TrimSpace(f.ColumnRange))) {
		return &importerror.InvalidColumnRangeError{Range: f.ColumnRange}
	}
	return nil
}

// ColumnIndex converts a spreadsheet column letter ("A", "C", "AA") to its
// zero-based index. Returns -1 for an empty or malformed letter.
func ColumnIndex(letter string) int {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return -1
	}
	index := 0
	for _, ch := range letter {
		if ch < 'A' || ch > 'Z' {
			return -1
		}
		index = index*26 + int(ch-'A') + 1
	}
	return index - 1
}

// ColumnSpan expands a validated "C:M" range into the inclusive zero-based
// index pair it covers.
func ColumnSpan(columnRange string) (int, int, error) {
	columnRange = strings.ToUpper(strings.TrimSpace(columnRange))
	if !columnRangePattern.MatchString(columnRange) {
		return 0, 0, &importerror.InvalidColumnRangeError{Range: columnRange}
	}
	parts := strings.SplitN(columnRange, ":", 2)
	start, end := ColumnIndex(parts[0]), ColumnIndex(parts[1])
	if start < 0 || end < 0 || end < start {
		return 0, 0, &importerror.InvalidColumnRangeError{Range: columnRange}
	}
	return start, end, nil
}
