package export

import (
	"fmt"

	"jsonlview/app/interfaces"
	"jsonlview/app/table"

	"github.com/ohler55/ojg/oj"
	"github.com/xuri/excelize/v2"
)

// XLSX export of the current view. Only visible columns are written, in
// display order; nested object/array cell values are JSON-stringified the
// same way the table renders them.

const sheetName = "Sheet1"

// WriteXLSX writes the given rows and columns to an XLSX workbook at path.
func WriteXLSX(path string, columns []interfaces.Column, rows []*interfaces.Row) error {
	visible := make([]interfaces.Column, 0, len(columns))
	for _, col := range columns {
		if col.Visible {
			visible = append(visible, col)
		}
	}
	if len(visible) == 0 {
		return fmt.Errorf("no visible columns to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, col := range visible {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, col.Name); err != nil {
			return fmt.Errorf("failed to write header %q: %w", col.Name, err)
		}
	}

	for r, row := range rows {
		for c, col := range visible {
			value, ok := table.ResolvePath(row.Value, col.Path)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, cellValue(value)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row.Index, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// cellValue maps a resolved value onto something excelize can store
// natively; containers become their JSON form.
func cellValue(value any) any {
	switch v := value.(type) {
	case map[string]any, []any:
		return oj.JSON(v)
	default:
		return v
	}
}
