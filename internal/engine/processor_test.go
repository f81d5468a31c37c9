package engine

import (
	"reflect"
	"testing"

	"adintel/internal/domain"
)

func TestClassifyPlatform(t *testing.T) {
	mappings := DefaultMappingSet()

	tests := []struct {
		name        string
		row         domain.RawRow
		wantPlat    domain.Platform
		wantSubtype domain.GoogleSubtype
	}{
		{"marker facebook", domain.RawRow{"__platform": "facebook"}, domain.PlatformFacebook, ""},
		{"marker google search", domain.RawRow{"__platform": "google", "__campaignAdvertisingType": "search"}, domain.PlatformGoogle, domain.SubtypeSearch},
		{"marker google demand gen", domain.RawRow{"__platform": "Google Ads", "__campaignAdvertisingType": "DEMAND_GEN"}, domain.PlatformGoogle, domain.SubtypeDemandGen},
		{"unknown subtype", domain.RawRow{"__platform": "google", "__campaignAdvertisingType": "VIDEO"}, domain.PlatformGoogle, domain.SubtypePerformanceMax},
		{"missing subtype", domain.RawRow{"__platform": "google"}, domain.PlatformGoogle, domain.SubtypePerformanceMax},
		{"literal column", domain.RawRow{"Platform": "Meta Ads"}, domain.PlatformFacebook, ""},
		{"advertising type only", domain.RawRow{"__campaignAdvertisingType": "SEARCH"}, domain.PlatformGoogle, domain.SubtypeSearch},
		{"unknown", domain.RawRow{"Campaign Name": "x"}, domain.PlatformUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := ClassifyPlatform(tt.row, mappings)
			if p != tt.wantPlat || s != tt.wantSubtype {
				t.Errorf("got (%q, %q), want (%q, %q)", p, s, tt.wantPlat, tt.wantSubtype)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	sess := DefaultSession()
	sess.Dimensions = append(sess.Dimensions, domain.DimensionConfig{
		Label: "Country", Source: domain.SourceCampaign, Index: 0, Delimiter: "_",
	})

	rows := []domain.RawRow{
		{
			"__platform":         "facebook",
			"Campaign Name":      "US_Prospecting",
			"Ad Set Name":        "AS1",
			"Ad Name":            "Video_01",
			"Day":                "2025-01-10",
			"Amount spent (USD)": "$50.00",
			"Impressions":        1000.0,
			"Link clicks":        "25",
			"Leads":              nil,
		},
		{
			"__platform":                "google",
			"__campaignAdvertisingType": "SEARCH",
			"Campaign Name":             "UK_Brand",
			"Day":                       "2025-01-02",
			"Amount spent (USD)":        10.0,
			"Leads":                     99.0,
			"Age":                       "18-24",
		},
		{
			"Campaign Name": "",
			"Day":           "not a date",
		},
		{
			"__platform": "facebook",
			"Day":        "01/05/2025",
		},
	}

	res := Process(rows, sess)
	if len(res.Records) != len(rows) {
		t.Fatalf("got %d records, want %d", len(res.Records), len(rows))
	}

	wantDates := []string{"2025-01-02", "01/05/2025", "2025-01-10", "not a date"}
	if !reflect.DeepEqual(res.Dates, wantDates) {
		t.Errorf("Dates = %v, want %v", res.Dates, wantDates)
	}

	fb := res.Records[0]
	if fb.IsGoogle || fb.Platform != domain.PlatformFacebook {
		t.Errorf("first record classified as %q", fb.Platform)
	}
	assertFloat(t, "cost", fb.Metrics["cost"], 50)
	assertFloat(t, "linkClicks", fb.Metrics["linkClicks"], 25)
	assertFloat(t, "leads", fb.Metrics["leads"], 0)
	assertFloat(t, "CPM", fb.Metrics["CPM"], 20000)
	assertFloat(t, "CTR", fb.Metrics["CTR"], 0.025)
	assertFloat(t, "CPATC", fb.Metrics["CPATC"], 0)
	if fb.Dims["Country"] != "US" || fb.Dims["Platform"] != "Facebook" || fb.Dims["Ad"] != "Video_01" {
		t.Errorf("unexpected dims %v", fb.Dims)
	}
	if fb.Level() != domain.LevelAd {
		t.Errorf("level = %q, want ad", fb.Level())
	}

	g := res.Records[1]
	if !g.IsGoogle || g.GoogleSubtype != domain.SubtypeSearch {
		t.Errorf("second record = %q/%q", g.Platform, g.GoogleSubtype)
	}
	// Google mappings do not read the Leads column.
	assertFloat(t, "google leads", g.Metrics["leads"], 0)
	if g.Dims["Platform"] != "Google - SEARCH" || g.Dims["Age"] != "18-24" || g.Dims["Ad Set"] != NotAvailable {
		t.Errorf("unexpected google dims %v", g.Dims)
	}

	unknown := res.Records[2]
	if unknown.IsGoogle || unknown.Dims["Platform"] != NotAvailable || unknown.Dims["Country"] != NotAvailable {
		t.Errorf("unknown row = %+v", unknown)
	}
}

func TestProcessCustomMetrics(t *testing.T) {
	sess := DefaultSession()
	sess.Mappings.Facebook.CustomMetrics = map[string]string{"custom_calls": "Phone calls"}
	sess.Formulas = []domain.FormulaField{{Name: "Cost per call", Formula: "cost / custom_calls"}}

	res := Process([]domain.RawRow{{
		"__platform":         "facebook",
		"Amount spent (USD)": 30.0,
		"Phone calls":        "3",
	}}, sess)

	r := res.Records[0]
	assertFloat(t, "custom_calls", r.Metrics["custom_calls"], 3)
	assertFloat(t, "Cost per call", r.Metrics["Cost per call"], 10)
}

func TestRecomputeEndToEnd(t *testing.T) {
	rows := []domain.RawRow{
		{"__platform": "facebook", "Campaign Name": "C1", "Ad Set Name": "AS1", "Ad Name": "A1", "Day": "2025-01-01", "Amount spent (USD)": 10.0},
		{"__platform": "facebook", "Campaign Name": "C1", "Ad Set Name": "AS1", "Ad Name": "A2", "Day": "2025-01-01", "Amount spent (USD)": 20.0},
		{"__platform": "google", "__campaignAdvertisingType": "PERFORMANCE_MAX", "Campaign Name": "C2", "Day": "2025-01-01", "Amount spent (USD)": 5.0},
		{"__platform": "google", "__campaignAdvertisingType": "PERFORMANCE_MAX", "Campaign Name": "C2", "Day": "2025-01-02", "Amount spent (USD)": 15.0},
	}
	spec := domain.PivotSpec{
		Scopes:    domain.AllScopes(),
		RowDims:   []string{"Campaign"},
		ValueKeys: []string{"cost"},
		Display:   domain.DisplayOptions{ShowGrandTotal: true},
	}

	res := Recompute(rows, DefaultSession(), spec)
	if len(res.Rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(res.Rows), res.Rows)
	}

	want := []struct {
		label string
		kind  domain.RowKind
		cost  float64
	}{
		{"C1", domain.RowData, 30},
		{"C2", domain.RowData, 20},
		{GrandTotalLabel, domain.RowGrandTotal, 50},
	}
	for i, w := range want {
		row := res.Rows[i]
		if row.Label != w.label || row.Kind != w.kind {
			t.Errorf("row %d = %q/%s, want %q/%s", i, row.Label, row.Kind, w.label, w.kind)
		}
		assertCell(t, w.label, row.Cells[0][0], w.cost)
	}
}

func TestProcessSkipsFormulaNamedLikeBaseMetric(t *testing.T) {
	rows := []domain.RawRow{
		{"__platform": "facebook", "Campaign Name": "C1", "Ad Set Name": "AS1", "Ad Name": "A1", "Day": "2025-01-01", "Amount spent (USD)": 30.0, "Impressions": 3000.0},
		{"__platform": "facebook", "Campaign Name": "C2", "Ad Set Name": "AS1", "Ad Name": "A1", "Day": "2025-01-01", "Amount spent (USD)": 20.0, "Impressions": 1000.0},
	}
	sess := DefaultSession()
	sess.Formulas = []domain.FormulaField{
		{Name: "cost", Formula: "impressions / 1000"},
		{Name: "CPM", Formula: "cost / impressions * 1000"},
		{Name: "CPM", Formula: "1"},
	}

	if got, want := ShadowedFormulas(sess.Formulas, BaseKeys(sess)), []string{"cost", "CPM"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ShadowedFormulas = %v, want %v", got, want)
	}

	processed := Process(rows, sess)
	assertFloat(t, "record cost", processed.Records[0].Metrics["cost"], 30)
	assertFloat(t, "record CPM", processed.Records[0].Metrics["CPM"], 10)

	spec := domain.PivotSpec{
		Scopes:    domain.AllScopes(),
		RowDims:   []string{"Campaign"},
		ValueKeys: []string{"cost", "CPM"},
		Display:   domain.DisplayOptions{ShowGrandTotal: true},
	}
	res := Recompute(rows, sess, spec)
	if len(res.Rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(res.Rows), res.Rows)
	}
	assertCell(t, "C1 cost", res.Rows[0].Cells[0][0], 30)
	assertCell(t, "C2 cost", res.Rows[1].Cells[0][0], 20)
	assertCell(t, "total cost", res.Rows[2].Cells[0][0], 50)
	assertCell(t, "total CPM", res.Rows[2].Cells[0][1], 12.5)
}
