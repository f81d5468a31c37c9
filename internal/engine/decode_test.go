package engine

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"adintel/internal/domain"
)

func TestDecodeDimensions(t *testing.T) {
	raw := []byte(`[
		{"label": "Country", "source": "campaign", "index": 0, "delimiter": "_"},
		{"label": "Country", "source": "adSet", "index": 1},
		{"label": "Region", "source": "geo", "index": 0},
		{"label": "", "source": "ad", "index": 0},
		{"label": "Half", "source": "ad", "index": 1.5},
		{"label": "Creative", "source": "ad"},
		"not an object"
	]`)

	dims, issues := DecodeDimensions(raw)
	want := []domain.DimensionConfig{
		{Label: "Country", Source: domain.SourceCampaign, Index: 0, Delimiter: "_"},
		{Label: "Creative", Source: domain.SourceAd, Index: domain.DirectIndex},
	}
	if !reflect.DeepEqual(dims, want) {
		t.Errorf("dims = %+v, want %+v", dims, want)
	}
	if len(issues) != 5 {
		t.Errorf("got %d issues, want 5: %v", len(issues), issues)
	}
}

func TestDecodeDimensionsFallsBack(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantIssues bool
	}{
		{"absent", ``, false},
		{"null", `null`, false},
		{"object instead of array", `{"label": "Country"}`, true},
		{"all entries invalid", `[{"source": "geo"}]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims, issues := DecodeDimensions([]byte(tt.raw))
			if !reflect.DeepEqual(dims, DefaultPivotDimensions()) {
				t.Errorf("expected defaults, got %+v", dims)
			}
			if (len(issues) > 0) != tt.wantIssues {
				t.Errorf("issues = %v", issues)
			}
		})
	}

	dims, _ := DecodeDimensions([]byte(`[]`))
	if len(dims) != 0 {
		t.Errorf("an explicit empty list should stay empty, got %+v", dims)
	}
}

func TestDecodeFormulas(t *testing.T) {
	raw := []byte(`[
		{"id": "f1", "name": "ROAS", "formula": "conversionValue / cost", "unit": ""},
		{"name": "CPL", "formula": "cost / leads", "unit": "$", "isDefault": true},
		{"name": "ROAS", "formula": "1"},
		{"name": "cost", "formula": "cost * 2"},
		{"name": "Odd", "formula": "cost", "unit": "€"},
		{"name": "Empty", "formula": "  "},
		42
	]`)

	formulas, issues := DecodeFormulas(raw, DefaultBaseMetrics())
	if len(formulas) != 3 {
		t.Fatalf("got %d formulas, want 3: %+v", len(formulas), formulas)
	}
	if formulas[0].ID != "f1" || formulas[0].Name != "ROAS" {
		t.Errorf("first formula = %+v", formulas[0])
	}
	if _, err := uuid.Parse(formulas[1].ID); err != nil {
		t.Errorf("generated id %q is not a uuid: %v", formulas[1].ID, err)
	}
	if formulas[1].Unit != domain.UnitCurrency || !formulas[1].IsDefault {
		t.Errorf("second formula = %+v", formulas[1])
	}
	if formulas[2].Name != "Odd" || formulas[2].Unit != domain.UnitNone {
		t.Errorf("third formula = %+v", formulas[2])
	}
	if len(issues) != 5 {
		t.Errorf("got %d issues, want 5: %v", len(issues), issues)
	}
}

func TestDecodeFormulasFallsBack(t *testing.T) {
	for _, raw := range []string{``, `"CPM"`, `[{"name": ""}]`} {
		formulas, _ := DecodeFormulas([]byte(raw), DefaultBaseMetrics())
		if !reflect.DeepEqual(formulas, DefaultFormulas()) {
			t.Errorf("DecodeFormulas(%q) did not fall back to defaults", raw)
		}
	}
}

func TestDecodeMappings(t *testing.T) {
	raw := []byte(`{
		"facebook": {"campaign": "Campaign", "date": "Date", "cost": "Spend", "custom_calls": "Calls", "mystery": "X"},
		"google": {"campaign": "Campaign name", "metrics": {"cost": "Cost", "impressions": "Impr."}},
		"google_search": {"campaign": "Search campaign", "ad": 7},
		"tiktok": {}
	}`)

	set, issues := DecodeMappings(raw)

	if set.Facebook.Campaign != "Campaign" || set.Facebook.Date != "Date" {
		t.Errorf("facebook fields = %+v", set.Facebook)
	}
	if set.Facebook.Metrics["cost"] != "Spend" || set.Facebook.CustomMetrics["custom_calls"] != "Calls" {
		t.Errorf("facebook metrics = %v / %v", set.Facebook.Metrics, set.Facebook.CustomMetrics)
	}
	if set.GoogleDemandGen.Campaign != "Campaign name" || set.GooglePerformanceMax.Metrics["impressions"] != "Impr." {
		t.Errorf("legacy google slot not applied: %+v", set.GoogleDemandGen)
	}
	if set.GoogleSearch.Campaign != "Search campaign" || set.GoogleSearch.Ad != "" {
		t.Errorf("explicit google_search slot = %+v", set.GoogleSearch)
	}
	// mystery metric, non-string ad column, unknown slot
	if len(issues) != 3 {
		t.Errorf("got %d issues, want 3: %v", len(issues), issues)
	}
}

func TestDecodeMappingsFallsBack(t *testing.T) {
	set, issues := DecodeMappings([]byte(`[1, 2]`))
	if !reflect.DeepEqual(set, DefaultMappingSet()) || len(issues) != 1 {
		t.Errorf("expected defaults with one issue, got %v", issues)
	}

	set, _ = DecodeMappings([]byte(`{"facebook": "oops"}`))
	if !reflect.DeepEqual(set.Facebook, DefaultMappingSet().Facebook) {
		t.Errorf("malformed slot should keep defaults, got %+v", set.Facebook)
	}
}
