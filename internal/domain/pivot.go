package domain

// Special pivot keys.
const (
	DateFieldKey = "__date"
	AllGroupKey  = "__all__"
	TotalColKey  = "__total__"
)

type FilterMode string

const (
	FilterMulti       FilterMode = "multi"
	FilterContains    FilterMode = "contains"
	FilterNotContains FilterMode = "not_contains"
	FilterDateRange   FilterMode = "date_range"
)

// DateRange is inclusive; an empty bound is open.
type DateRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type Filter struct {
	FieldKey       string     `json:"fieldKey" yaml:"fieldKey"`
	Mode           FilterMode `json:"mode" yaml:"mode"`
	SelectedValues []string   `json:"selectedValues,omitempty" yaml:"selectedValues,omitempty"`
	TextValue      string     `json:"textValue,omitempty" yaml:"textValue,omitempty"`
	DateRange      DateRange  `json:"dateRange,omitempty" yaml:"dateRange,omitempty"`
}

// Scope selects a platform slice of the pivot input.
type Scope string

const (
	ScopeMeta                 Scope = "meta"
	ScopeGoogleSearch         Scope = "google_search"
	ScopeGoogleDemandGen      Scope = "google_demand_gen"
	ScopeGooglePerformanceMax Scope = "google_performance_max"
)

// AllScopes returns every platform scope.
func AllScopes() []Scope {
	return []Scope{ScopeMeta, ScopeGoogleSearch, ScopeGoogleDemandGen, ScopeGooglePerformanceMax}
}

type TotalAxis string

const (
	TotalAxisRow    TotalAxis = "row"
	TotalAxisColumn TotalAxis = "column"
)

type DisplayOptions struct {
	ShowSubtotal   bool      `json:"showSubtotal" yaml:"showSubtotal"`
	ShowGrandTotal bool      `json:"showGrandTotal" yaml:"showGrandTotal"`
	TotalAxis      TotalAxis `json:"totalAxis" yaml:"totalAxis"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec orders data rows by one column's value.
type SortSpec struct {
	ColKey    string        `json:"colKey" yaml:"colKey"`
	ValueKey  string        `json:"valueKey" yaml:"valueKey"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// PivotSpec is the user-chosen configuration of one aggregation run.
type PivotSpec struct {
	Filters   []Filter       `json:"filters" yaml:"filters"`
	Scopes    []Scope        `json:"scopes" yaml:"scopes"`
	RowDims   []string       `json:"rowDims" yaml:"rowDims"`
	ColDims   []string       `json:"colDims" yaml:"colDims"`
	ValueKeys []string       `json:"valueKeys" yaml:"valueKeys"`
	Display   DisplayOptions `json:"display" yaml:"display"`
	Sort      *SortSpec      `json:"sort,omitempty" yaml:"sort,omitempty"`
}

type RowKind string

const (
	RowData       RowKind = "data"
	RowSubtotal   RowKind = "subtotal"
	RowGrandTotal RowKind = "grand_total"
)

type PivotColumn struct {
	Key     string   `json:"key"`
	Path    []string `json:"path"`
	Label   string   `json:"label"`
	IsTotal bool     `json:"is_total"`
}

// PivotRow is one rendered row. Cells[c][v] is the value of ValueKeys[v]
// under Columns[c]; nil means no record contributed.
type PivotRow struct {
	Kind  RowKind      `json:"kind"`
	Level int          `json:"level"`
	Path  []string     `json:"path"`
	Label string       `json:"label"`
	Count int          `json:"count"`
	Cells [][]*float64 `json:"cells"`
}

type PivotResult struct {
	RowDims     []string               `json:"row_dims"`
	ColDims     []string               `json:"col_dims"`
	ValueKeys   []string               `json:"value_keys"`
	Units       map[string]FormulaUnit `json:"units"`
	Columns     []PivotColumn          `json:"columns"`
	Rows        []PivotRow             `json:"rows"`
	RecordCount int                    `json:"record_count"`
}

// IsEmpty reports whether the pivot rendered no rows.
func (r *PivotResult) IsEmpty() bool {
	return r == nil || len(r.Rows) == 0
}

// DashboardFilter is the global filter bar of the dashboard view.
type DashboardFilter struct {
	DateRange       DateRange           `json:"dateRange"`
	Platform        string              `json:"platform"`
	DimensionValues map[string][]string `json:"dimensionValues"`
}

// Matrix is a pivot flattened for export. The first HeaderRows rows are
// headers; cells are string, float64 or "" for blank.
type Matrix struct {
	HeaderRows int     `json:"header_rows"`
	Rows       [][]any `json:"rows"`
}
