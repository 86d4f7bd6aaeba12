package statementparser

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"topglobal/statements/internal/models"
)

// xlsxParser decodes modern zip-based spreadsheet containers. Some producers
// emit empty fill-style elements that strict readers reject, so the styles
// part is sanitized before the workbook is opened.
type xlsxParser struct{}

func (p *xlsxParser) Parse(data []byte, format *models.StatementFormat) ([]Row, error) {
	data = sanitizeStyles(data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	grid, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return applyLayout(grid, format)
}

// xlsParser decodes the legacy binary spreadsheet container.
type xlsParser struct{}

func (p *xlsParser) Parse(data []byte, format *models.StatementFormat) ([]Row, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy workbook: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("legacy workbook has no sheets")
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		// FirstCol may be > 0 for sparse rows; keep positions aligned.
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, cells)
	}
	return applyLayout(grid, format)
}
