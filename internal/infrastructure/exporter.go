package infrastructure

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"adintel/internal/domain"

	"github.com/xuri/excelize/v2"
)

const pivotSheet = "Pivot"

// ExporterFor returns the exporter registered for format ("csv" or "xlsx").
func ExporterFor(format string) (domain.Exporter, error) {
	switch format {
	case "csv":
		return CSVExporter{}, nil
	case "xlsx":
		return XLSXExporter{}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

type CSVExporter struct{}

func (CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }
func (CSVExporter) Extension() string   { return "csv" }

func (CSVExporter) Export(w io.Writer, m domain.Matrix) error {
	cw := csv.NewWriter(w)
	for _, row := range m.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cellText(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// writes one worksheet: bold header rows frozen above numeric data cells
type XLSXExporter struct{}

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXExporter) Extension() string { return "xlsx" }

func (XLSXExporter) Export(w io.Writer, m domain.Matrix) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), pivotSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for r, row := range m.Rows {
		for c, cell := range row {
			if cell == nil || cell == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(pivotSheet, name, cell); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", name, err)
			}
		}
	}

	if m.HeaderRows > 0 && len(m.Rows) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		if err := f.SetRowStyle(pivotSheet, 1, m.HeaderRows, style); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}

		topLeft, _ := excelize.CoordinatesToCellName(1, m.HeaderRows+1)
		if err := f.SetPanes(pivotSheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      m.HeaderRows,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
