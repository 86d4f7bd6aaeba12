// Package statementparser decodes raw statement files into rectangular
// row/column data according to a portfolio's format descriptor. One parser
// exists per container kind; which columns mean what is decided later by the
// field extractor, so every parser produces the same Row shape.
package statementparser

import (
	"strconv"
	"strings"

	"topglobal/statements/internal/importerror"
	"topglobal/statements/internal/models"
)

// Row is one data row of a decoded statement. Cells are always addressable
// by position; when the format declares a header row they are addressable by
// header name as well.
type Row struct {
	Cells   []string
	Headers []string
}

// ByIndex returns the cell at the zero-based position. The second return is
// false when the position is out of range.
func (r Row) ByIndex(i int) (string, bool) {
	if i < 0 || i >= len(r.Cells) {
		return "", false
	}
	return r.Cells[i], true
}

// ByHeader returns the cell under the named header, if headers are present.
func (r Row) ByHeader(name string) (string, bool) {
	for i, h := range r.Headers {
		if strings.TrimSpace(h) == name {
			return r.ByIndex(i)
		}
	}
	return "", false
}

// HasHeaders reports whether the row carries header names.
func (r Row) HasHeaders() bool {
	return len(r.Headers) > 0
}

// Key resolves either a positional key (stringified index) or a header name.
func (r Row) Key(key string) (string, bool) {
	if idx, err := strconv.Atoi(key); err == nil {
		return r.ByIndex(idx)
	}
	return r.ByHeader(key)
}

// Parser decodes raw file bytes into rows per a format descriptor.
type Parser interface {
	Parse(data []byte, format *models.StatementFormat) ([]Row, error)
}

// ForKind returns the parser for a format kind.
func ForKind(kind models.FormatKind) (Parser, error) {
	switch kind {
	case models.FormatXLSX:
		return &xlsxParser{}, nil
	case models.FormatXLS:
		return &xlsParser{}, nil
	case models.FormatCSV:
		return &delimitedParser{comma: ','}, nil
	case models.FormatTXT:
		return &delimitedParser{comma: '\t'}, nil
	default:
		return nil, &importerror.UnsupportedFormatError{Kind: string(kind)}
	}
}

// applyLayout turns a raw cell grid into rows, honoring skip_rows,
// header_present and the optional column range restriction.
func applyLayout(grid [][]string, format *models.StatementFormat) ([]Row, error) {
	if format.SkipRows > 0 {
		if format.SkipRows >= len(grid) {
			return nil, nil
		}
		grid = grid[format.SkipRows:]
	}

	var headers []string
	if format.HeaderPresent && len(grid) > 0 {
		headers = grid[0]
		grid = grid[1:]
	}

	start, end := 0, -1
	if format.ColumnRange != "" {
		var err error
		start, end, err = models.ColumnSpan(format.ColumnRange)
		if err != nil {
			return nil, err
		}
		headers = sliceSpan(headers, start, end)
	}

	width := len(headers)
	rows := make([]Row, 0, len(grid))
	for _, cells := range grid {
		if end >= 0 {
			cells = sliceSpan(cells, start, end)
		}
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, Row{Cells: pad(cells, width), Headers: headers})
	}
	return rows, nil
}

// sliceSpan restricts cells to the inclusive [start,end] index span.
func sliceSpan(cells []string, start, end int) []string {
	if cells == nil {
		return nil
	}
	if start >= len(cells) {
		return nil
	}
	last := end + 1
	if last > len(cells) {
		last = len(cells)
	}
	return cells[start:last]
}

func pad(cells []string, width int) []string {
	for len(cells) < width {
		cells = append(cells, "")
	}
	return cells
}
