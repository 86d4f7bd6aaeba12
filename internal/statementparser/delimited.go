package statementparser

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"topglobal/statements/internal/models"
)

// delimitedParser decodes comma- or tab-delimited text statements.
type delimitedParser struct {
	comma rune
}

func (p *delimitedParser) Parse(data []byte, format *models.StatementFormat) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = p.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited data: %w", err)
	}
	return applyLayout(grid, format)
}
