package engine

import (
	"sort"
	"strings"

	"adintel/internal/domain"
)

const (
	SubtotalSuffix  = " 小计"
	GrandTotalLabel = "总计"

	// separates tuple elements inside group keys
	keySep = "\x1f"
)

type aggregate struct {
	sums  map[string]float64
	count int
}

func (a *aggregate) add(r domain.NormalizedRecord, baseKeys []string) {
	for _, k := range baseKeys {
		a.sums[k] += r.Metrics[k]
	}
	a.count++
}

func (a *aggregate) merge(o *aggregate) {
	for k, v := range o.sums {
		a.sums[k] += v
	}
	a.count += o.count
}

func newAggregate(baseKeys []string) *aggregate {
	a := &aggregate{sums: make(map[string]float64, len(baseKeys))}
	for _, k := range baseKeys {
		a.sums[k] = 0
	}
	return a
}

// pivotBuilder holds one BuildPivot run.
type pivotBuilder struct {
	spec     domain.PivotSpec
	baseKeys []string
	formulas map[string]compiledFormula

	rowDims   []string
	colDims   []string
	valueKeys []string

	rowTuples map[string][]string
	colTuples map[string][]string
	cells     map[string]map[string]*aggregate

	columns []domain.PivotColumn
	colSets [][]string
	rows    []domain.PivotRow
}

// BuildPivot groups records by the spec's row and column dimensions, sums
// base metrics per cell and evaluates formulas on the sums. Unknown
// dimensions and value keys are dropped; an unusable spec yields an empty
// result.
func BuildPivot(records []domain.NormalizedRecord, spec domain.PivotSpec, formulas []domain.FormulaField, baseKeys []string) *domain.PivotResult {
	b := &pivotBuilder{
		spec:      spec,
		baseKeys:  baseKeys,
		formulas:  make(map[string]compiledFormula),
		rowTuples: make(map[string][]string),
		colTuples: make(map[string][]string),
		cells:     make(map[string]map[string]*aggregate),
	}
	for _, f := range compileFormulas(formulas, baseKeys) {
		b.formulas[f.field.Name] = f
	}

	known := knownDimensions(records)
	b.rowDims = keepKnown(spec.RowDims, known)
	b.colDims = keepKnown(spec.ColDims, known)
	b.valueKeys = keepKnown(spec.ValueKeys, b.valueKeySet())

	result := &domain.PivotResult{
		RowDims:   b.rowDims,
		ColDims:   b.colDims,
		ValueKeys: b.valueKeys,
		Units:     b.units(),
		Columns:   []domain.PivotColumn{},
		Rows:      []domain.PivotRow{},
	}

	filtered := ApplyFilters(ApplyScopes(records, spec.Scopes), spec.Filters)
	result.RecordCount = len(filtered)
	if len(filtered) == 0 {
		return result
	}

	b.group(filtered)
	b.buildColumns()
	b.buildRows()

	result.Columns = b.columns
	result.Rows = b.rows
	return result
}

func knownDimensions(records []domain.NormalizedRecord) map[string]bool {
	known := map[string]bool{domain.DateFieldKey: true}
	for _, r := range records {
		for label := range r.Dims {
			known[label] = true
		}
	}
	return known
}

func keepKnown(keys []string, known map[string]bool) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, k := range keys {
		if known[k] && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func (b *pivotBuilder) valueKeySet() map[string]bool {
	set := make(map[string]bool, len(b.baseKeys)+len(b.formulas))
	for _, k := range b.baseKeys {
		set[k] = true
	}
	for name := range b.formulas {
		set[name] = true
	}
	return set
}

func (b *pivotBuilder) units() map[string]domain.FormulaUnit {
	units := make(map[string]domain.FormulaUnit, len(b.valueKeys))
	for _, k := range b.valueKeys {
		if f, ok := b.formulas[k]; ok && !b.isBase(k) {
			units[k] = f.field.Unit
		} else {
			units[k] = domain.UnitNone
		}
	}
	return units
}

func (b *pivotBuilder) isBase(key string) bool {
	for _, k := range b.baseKeys {
		if k == key {
			return true
		}
	}
	return false
}

func tupleFor(r domain.NormalizedRecord, dims []string) []string {
	if len(dims) == 0 {
		return []string{domain.AllGroupKey}
	}
	t := make([]string, len(dims))
	for i, d := range dims {
		if d == domain.DateFieldKey {
			t[i] = orNotAvailable(r.Date)
		} else {
			t[i] = r.Dim(d)
		}
	}
	return t
}

func (b *pivotBuilder) group(records []domain.NormalizedRecord) {
	for _, r := range records {
		rt := tupleFor(r, b.rowDims)
		ct := tupleFor(r, b.colDims)
		rk := strings.Join(rt, keySep)
		ck := strings.Join(ct, keySep)
		b.rowTuples[rk] = rt
		b.colTuples[ck] = ct

		byCol, ok := b.cells[rk]
		if !ok {
			byCol = make(map[string]*aggregate)
			b.cells[rk] = byCol
		}
		agg, ok := byCol[ck]
		if !ok {
			agg = newAggregate(b.baseKeys)
			byCol[ck] = agg
		}
		agg.add(r, b.baseKeys)
	}
}

// sortedTuples orders group tuples level by level; date levels go by
// calendar date.
func sortedTuples(m map[string][]string, dims []string) [][]string {
	out := make([][]string, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return lessTuple(out[i], out[j], dims) })
	return out
}

func lessTuple(a, b []string, dims []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		if i < len(dims) && dims[i] == domain.DateFieldKey {
			return CompareDates(a[i], b[i]) < 0
		}
		return a[i] < b[i]
	}
	return len(a) < len(b)
}

// ColumnKey is the public key of a column with the given dimension path.
func ColumnKey(path []string) string {
	return strings.Join(path, " / ")
}

func (b *pivotBuilder) buildColumns() {
	tuples := sortedTuples(b.colTuples, b.colDims)
	all := make([]string, 0, len(tuples))
	for _, t := range tuples {
		ck := strings.Join(t, keySep)
		all = append(all, ck)
		b.columns = append(b.columns, domain.PivotColumn{
			Key:   ColumnKey(t),
			Path:  t,
			Label: t[len(t)-1],
		})
		b.colSets = append(b.colSets, []string{ck})
	}

	if b.spec.Display.ShowGrandTotal && b.spec.Display.TotalAxis == domain.TotalAxisColumn && len(b.colDims) > 0 {
		b.columns = append(b.columns, domain.PivotColumn{
			Key:     domain.TotalColKey,
			Path:    []string{GrandTotalLabel},
			Label:   GrandTotalLabel,
			IsTotal: true,
		})
		b.colSets = append(b.colSets, all)
	}
}

func (b *pivotBuilder) buildRows() {
	tuples := sortedTuples(b.rowTuples, b.rowDims)
	b.emitLevel(tuples, 0, nil)

	axis := b.spec.Display.TotalAxis
	if b.spec.Display.ShowGrandTotal && axis != domain.TotalAxisColumn {
		b.rows = append(b.rows, b.renderRow(domain.RowGrandTotal, 0, []string{GrandTotalLabel}, GrandTotalLabel, tuples))
	}
}

// emitLevel writes the rows of one sibling group. Leaves become data rows;
// each branch is followed by its subtotal when enabled.
func (b *pivotBuilder) emitLevel(tuples [][]string, level int, prefix []string) {
	depth := len(tuples[0])
	if level == depth-1 {
		leaves := make([]domain.PivotRow, 0, len(tuples))
		for _, t := range tuples {
			leaves = append(leaves, b.renderRow(domain.RowData, level, t, t[level], [][]string{t}))
		}
		b.sortSiblings(leaves)
		b.rows = append(b.rows, leaves...)
		return
	}

	for start := 0; start < len(tuples); {
		value := tuples[start][level]
		end := start
		for end < len(tuples) && tuples[end][level] == value {
			end++
		}
		group := tuples[start:end]
		path := append(append([]string{}, prefix...), value)

		b.emitLevel(group, level+1, path)
		if b.spec.Display.ShowSubtotal {
			b.rows = append(b.rows, b.renderRow(domain.RowSubtotal, level, path, value+SubtotalSuffix, group))
		}
		start = end
	}
}

func (b *pivotBuilder) renderRow(kind domain.RowKind, level int, path []string, label string, tuples [][]string) domain.PivotRow {
	row := domain.PivotRow{
		Kind:  kind,
		Level: level,
		Path:  path,
		Label: label,
		Cells: make([][]*float64, len(b.columns)),
	}

	for c, colKeys := range b.colSets {
		agg := newAggregate(b.baseKeys)
		for _, t := range tuples {
			byCol := b.cells[strings.Join(t, keySep)]
			for _, ck := range colKeys {
				if cell, ok := byCol[ck]; ok {
					agg.merge(cell)
				}
			}
		}
		row.Cells[c] = b.values(agg)
		if !b.columns[c].IsTotal {
			row.Count += agg.count
		}
	}
	return row
}

// values resolves the value keys of one cell. A cell without records is
// blank on every key.
func (b *pivotBuilder) values(agg *aggregate) []*float64 {
	out := make([]*float64, len(b.valueKeys))
	if agg.count == 0 {
		return out
	}
	for i, k := range b.valueKeys {
		var v float64
		if b.isBase(k) {
			v = agg.sums[k]
		} else if f, ok := b.formulas[k]; ok {
			v = f.expr.Eval(agg.sums)
		}
		out[i] = &v
	}
	return out
}

func (b *pivotBuilder) sortSiblings(rows []domain.PivotRow) {
	s := b.spec.Sort
	if s == nil {
		return
	}
	vi := indexOf(b.valueKeys, s.ValueKey)
	if vi < 0 {
		return
	}
	ci := 0
	if s.ColKey != "" {
		ci = -1
		for i, col := range b.columns {
			if col.Key == s.ColKey {
				ci = i
				break
			}
		}
		if ci < 0 {
			return
		}
	}
	if ci >= len(b.columns) {
		return
	}

	desc := s.Direction == domain.SortDesc
	sort.SliceStable(rows, func(i, j int) bool {
		a, c := rows[i].Cells[ci][vi], rows[j].Cells[ci][vi]
		switch {
		case a == nil:
			return false
		case c == nil:
			return true
		case desc:
			return *a > *c
		default:
			return *a < *c
		}
	})
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
