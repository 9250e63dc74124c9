// Package exporter renders selected report rows into the fixed-layout Excel
// spreadsheet the operators feed into their planning sheets.
package exporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/curva-abc-exporter/pkg/money"
)

// SheetName is the single worksheet the export carries.
const SheetName = "Produtos"

// Header is the fixed column layout. It is written even when no rows are
// selected.
var Header = []string{"nome do produto", "setor", "mês", "semana", "quantidade", "valor"}

// Row is one selected product going into the spreadsheet.
type Row struct {
	Product  string
	Sector   string
	Quantity decimal.Decimal
	Value    *money.Money
}

// Export is a complete export request: the period fields plus the selected
// rows, already carrying any operator sector corrections.
type Export struct {
	Month string
	Week  string
	Rows  []Row
}

// Filename derives the download name from the month field
// ("08/2025" -> "produtos_08-2025.xlsx").
func (e *Export) Filename() string {
	month := strings.ReplaceAll(e.Month, "/", "-")
	if month == "" {
		month = "sem-mes"
	}
	return fmt.Sprintf("produtos_%s.xlsx", month)
}

// Write renders the export as an .xlsx workbook into w. Rows are ordered by
// value descending; quantity keeps 3 decimal places and value 2, so the
// numbers read back from the file equal the extracted ones.
func Write(w io.Writer, export *Export) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, title := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, title); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	rows := make([]Row, len(export.Rows))
	copy(rows, export.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Value.Compare(rows[j].Value) > 0
	})

	for i, row := range rows {
		rowNum := i + 2 // 1-indexed, after the header

		if err := f.SetCellStr(SheetName, cell("A", rowNum), row.Product); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}
		if err := f.SetCellStr(SheetName, cell("B", rowNum), row.Sector); err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell("C", rowNum), export.Month); err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell("D", rowNum), export.Week); err != nil {
			return err
		}

		qty, _ := row.Quantity.Round(3).Float64()
		if err := f.SetCellFloat(SheetName, cell("E", rowNum), qty, 3, 64); err != nil {
			return err
		}
		if err := f.SetCellFloat(SheetName, cell("F", rowNum), row.Value.ToFloat64(), 2, 64); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
