package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cardscan/pkg/contact"
)

// SheetName is the worksheet holding the contacts.
const SheetName = "Contacts"

// WriteXLSX writes the included entries as a spreadsheet, one row per image.
func WriteXLSX(w io.Writer, entries []Entry, opts Options) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	header := []interface{}{"File"}
	for _, k := range contact.Fields {
		header = append(header, k)
	}
	if opts.IncludeFailures {
		header = append(header, "Status")
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return 0, fmt.Errorf("apply header style: %w", err)
	}

	row := 2
	for _, e := range entries {
		if !opts.Include(e) {
			continue
		}
		vals := []interface{}{e.FileName}
		for _, kv := range e.Record.Pairs() {
			vals = append(vals, kv[1])
		}
		if opts.IncludeFailures {
			status := string(e.Status)
			if e.Reason != "" && e.Status != "ok" {
				status += ": " + e.Reason
			}
			vals = append(vals, status)
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return row - 2, fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	_ = f.SetColWidth(SheetName, "A", lastCol, 24)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.Write(w); err != nil {
		return row - 2, fmt.Errorf("write xlsx: %w", err)
	}
	return row - 2, nil
}
