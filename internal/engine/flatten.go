package engine

import (
	"adintel/internal/domain"
)

// FlattenOptions controls how pivot values are written into a Matrix.
type FlattenOptions struct {
	// Formatted writes unit-formatted strings instead of numbers.
	Formatted bool
}

// Flatten lays a pivot out as a 2-D matrix: one header row per column
// dimension plus a value-key row, then one row per pivot row. Parent row
// labels that repeat the previous data row are left blank.
func Flatten(result *domain.PivotResult, opts FlattenOptions) domain.Matrix {
	if result == nil {
		return domain.Matrix{Rows: [][]any{}}
	}

	labelCols := len(result.RowDims)
	if labelCols == 0 {
		labelCols = 1
	}
	width := labelCols + len(result.Columns)*len(result.ValueKeys)

	var rows [][]any
	for level, dim := range result.ColDims {
		header := blankRow(width)
		header[labelCols-1] = dim
		for c, col := range result.Columns {
			if len(result.ValueKeys) == 0 {
				continue
			}
			pos := labelCols + c*len(result.ValueKeys)
			switch {
			case col.IsTotal && level == 0:
				header[pos] = col.Label
			case !col.IsTotal && level < len(col.Path):
				header[pos] = col.Path[level]
			}
		}
		rows = append(rows, header)
	}

	header := blankRow(width)
	for i, dim := range result.RowDims {
		header[i] = dim
	}
	for c := range result.Columns {
		for v, key := range result.ValueKeys {
			header[labelCols+c*len(result.ValueKeys)+v] = key
		}
	}
	rows = append(rows, header)
	headerRows := len(rows)

	var prev []string
	for _, pr := range result.Rows {
		line := blankRow(width)
		switch pr.Kind {
		case domain.RowData:
			if len(result.RowDims) == 0 {
				// a single all-records row carries no label
				prev = nil
				break
			}
			for i := 0; i < len(pr.Path) && i < labelCols; i++ {
				if i < len(pr.Path)-1 && samePrefix(prev, pr.Path, i+1) {
					continue
				}
				line[i] = pr.Path[i]
			}
			prev = pr.Path
		default:
			if pr.Level < labelCols {
				line[pr.Level] = pr.Label
			}
			// the closed group's ancestors are still open
			if pr.Kind == domain.RowSubtotal && pr.Level <= len(pr.Path) {
				prev = pr.Path[:pr.Level]
			} else {
				prev = nil
			}
		}

		for c := range pr.Cells {
			for v, val := range pr.Cells[c] {
				pos := labelCols + c*len(result.ValueKeys) + v
				if pos >= width || val == nil {
					continue
				}
				if opts.Formatted {
					line[pos] = FormatValue(*val, result.Units[result.ValueKeys[v]])
				} else {
					line[pos] = *val
				}
			}
		}
		rows = append(rows, line)
	}

	return domain.Matrix{HeaderRows: headerRows, Rows: rows}
}

func blankRow(width int) []any {
	row := make([]any, width)
	for i := range row {
		row[i] = ""
	}
	return row
}

func samePrefix(a, b []string, n int) bool {
	if len(a) < n || len(b) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
