package engine

import (
	"reflect"
	"testing"

	"adintel/internal/domain"
)

func TestFlattenRowHierarchy(t *testing.T) {
	records := []domain.NormalizedRecord{
		metaAd(map[string]string{"Group": "A", "Leaf": "x"}, map[string]float64{"cost": 1}),
		metaAd(map[string]string{"Group": "A", "Leaf": "y"}, map[string]float64{"cost": 2}),
		metaAd(map[string]string{"Group": "B", "Leaf": "x"}, map[string]float64{"cost": 4}),
	}
	spec := allScopesSpec([]string{"Group", "Leaf"}, nil, []string{"cost"})
	spec.Display = domain.DisplayOptions{ShowSubtotal: true, ShowGrandTotal: true}

	m := Flatten(BuildPivot(records, spec, nil, DefaultBaseMetrics()), FlattenOptions{})

	want := [][]any{
		{"Group", "Leaf", "cost"},
		{"A", "x", 1.0},
		{"", "y", 2.0},
		{"A 小计", "", 3.0},
		{"B", "x", 4.0},
		{"B 小计", "", 4.0},
		{"总计", "", 7.0},
	}
	if m.HeaderRows != 1 {
		t.Errorf("HeaderRows = %d, want 1", m.HeaderRows)
	}
	if !reflect.DeepEqual(m.Rows, want) {
		t.Errorf("rows =\n%v\nwant\n%v", m.Rows, want)
	}
}

func TestFlattenColumnHeadersAndFormatting(t *testing.T) {
	records := []domain.NormalizedRecord{
		metaAd(map[string]string{"Campaign": "C1", "Platform": "Facebook"}, map[string]float64{"cost": 1234.5, "linkClicks": 10, "impressions": 80}),
		googleRecord(domain.SubtypeSearch, map[string]string{"Campaign": "C2", "Platform": "Google - SEARCH"}, map[string]float64{"cost": 5}),
	}
	formulas := []domain.FormulaField{{Name: "CTR", Formula: "linkClicks / impressions", Unit: domain.UnitPercent}}
	spec := allScopesSpec([]string{"Campaign"}, []string{"Platform"}, []string{"cost", "CTR"})

	m := Flatten(BuildPivot(records, spec, formulas, DefaultBaseMetrics()), FlattenOptions{Formatted: true})

	want := [][]any{
		{"Platform", "Facebook", "", "Google - SEARCH", ""},
		{"Campaign", "cost", "CTR", "cost", "CTR"},
		{"C1", "1,234.50", "12.50%", "", ""},
		{"C2", "", "", "5.00", "0.00%"},
	}
	if m.HeaderRows != 2 {
		t.Errorf("HeaderRows = %d, want 2", m.HeaderRows)
	}
	if !reflect.DeepEqual(m.Rows, want) {
		t.Errorf("rows =\n%v\nwant\n%v", m.Rows, want)
	}
}

func TestFlattenNil(t *testing.T) {
	if m := Flatten(nil, FlattenOptions{}); len(m.Rows) != 0 {
		t.Errorf("nil result flattened to %v", m.Rows)
	}
}

func TestFlattenKeepsOpenAncestorsBlankAfterSubtotal(t *testing.T) {
	records := []domain.NormalizedRecord{
		metaAd(map[string]string{"Region": "a", "Group": "x", "Leaf": "1"}, map[string]float64{"cost": 1}),
		metaAd(map[string]string{"Region": "a", "Group": "x", "Leaf": "2"}, map[string]float64{"cost": 2}),
		metaAd(map[string]string{"Region": "a", "Group": "y", "Leaf": "1"}, map[string]float64{"cost": 4}),
		metaAd(map[string]string{"Region": "b", "Group": "x", "Leaf": "1"}, map[string]float64{"cost": 8}),
	}
	spec := allScopesSpec([]string{"Region", "Group", "Leaf"}, nil, []string{"cost"})
	spec.Display = domain.DisplayOptions{ShowSubtotal: true}

	m := Flatten(BuildPivot(records, spec, nil, DefaultBaseMetrics()), FlattenOptions{})

	want := [][]any{
		{"Region", "Group", "Leaf", "cost"},
		{"a", "x", "1", 1.0},
		{"", "", "2", 2.0},
		{"", "x 小计", "", 3.0},
		{"", "y", "1", 4.0},
		{"", "y 小计", "", 4.0},
		{"a 小计", "", "", 7.0},
		{"b", "x", "1", 8.0},
		{"", "x 小计", "", 8.0},
		{"b 小计", "", "", 8.0},
	}
	if !reflect.DeepEqual(m.Rows, want) {
		t.Errorf("rows =\n%v\nwant\n%v", m.Rows, want)
	}
}

func TestFlattenWithoutRowDimensions(t *testing.T) {
	records := []domain.NormalizedRecord{
		metaAd(map[string]string{"Campaign": "C1"}, map[string]float64{"cost": 10}),
		metaAd(map[string]string{"Campaign": "C2"}, map[string]float64{"cost": 20}),
	}

	m := Flatten(BuildPivot(records, allScopesSpec(nil, nil, []string{"cost"}), nil, DefaultBaseMetrics()), FlattenOptions{})

	want := [][]any{
		{"", "cost"},
		{"", 30.0},
	}
	if !reflect.DeepEqual(m.Rows, want) {
		t.Errorf("rows =\n%v\nwant\n%v", m.Rows, want)
	}
}
