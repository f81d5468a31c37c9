package engine

import (
	"sort"

	"adintel/internal/domain"
)

// DefaultBaseMetrics returns the summable metric keys every mapping knows.
func DefaultBaseMetrics() []string {
	return []string{
		"cost", "leads", "impressions", "reach", "clicks", "linkClicks",
		"conversionValue", "conversion", "addToCart",
		"landingPageViews", "checkout", "subscribe",
	}
}

// DefaultFormulas returns the built-in derived metrics.
func DefaultFormulas() []domain.FormulaField {
	return []domain.FormulaField{
		{ID: "f_cpm", Name: "CPM", Formula: "(impressions / cost) * 1000", Unit: domain.UnitCurrency, IsDefault: true},
		{ID: "f_cpc", Name: "CPC", Formula: "cost / linkClicks", Unit: domain.UnitCurrency, IsDefault: true},
		{ID: "f_ctr", Name: "CTR", Formula: "linkClicks / impressions", Unit: domain.UnitPercent, IsDefault: true},
		{ID: "f_cpatc", Name: "CPATC", Formula: "cost / addToCart", Unit: domain.UnitCurrency, IsDefault: true},
		{ID: "f_freq", Name: "Frequency", Formula: "impressions / reach", Unit: domain.UnitNone, IsDefault: true},
		{ID: "f_aov", Name: "AOV", Formula: "conversionValue / conversion", Unit: domain.UnitCurrency, IsDefault: true},
		{ID: "f_cpco", Name: "Cost per checkout", Formula: "cost / checkout", Unit: domain.UnitCurrency, IsDefault: true},
		{ID: "f_cps", Name: "Cost per subscription", Formula: "cost / subscribe", Unit: domain.UnitCurrency, IsDefault: true},
	}
}

// DefaultPivotDimensions returns the dimensions available before any
// naming convention has been configured.
func DefaultPivotDimensions() []domain.DimensionConfig {
	return []domain.DimensionConfig{
		{Label: "Platform", Source: domain.SourcePlatform, Index: domain.DirectIndex},
		{Label: "Campaign", Source: domain.SourceCampaign, Index: domain.DirectIndex, Delimiter: "_"},
		{Label: "Ad Set", Source: domain.SourceAdSet, Index: domain.DirectIndex, Delimiter: "_"},
		{Label: "Ad", Source: domain.SourceAd, Index: domain.DirectIndex, Delimiter: "_"},
		{Label: "Age", Source: domain.SourceAge, Index: domain.DirectIndex},
		{Label: "Gender", Source: domain.SourceGender, Index: domain.DirectIndex},
	}
}

// DefaultMappingSet maps the columns produced by TransformAPIRows.
func DefaultMappingSet() domain.MappingSet {
	google := func() domain.MappingConfig {
		return domain.MappingConfig{
			Platform: domain.FieldPlatformMarker,
			Campaign: "Campaign Name",
			AdSet:    "Ad Set Name",
			Ad:       "Ad Name",
			Date:     "Day",
			Age:      "Age",
			Gender:   "Gender",
			Metrics: map[string]string{
				"cost":             "Amount spent (USD)",
				"impressions":      "Impressions",
				"reach":            "Reach",
				"clicks":           "Clicks (all)",
				"linkClicks":       "Link clicks",
				"conversion":       "Purchases",
				"conversionValue":  "Purchases conversion value",
				"addToCart":        "Add to Cart",
				"landingPageViews": "Landing page views",
			},
		}
	}

	facebook := google()
	facebook.Metrics["leads"] = "Leads"
	facebook.Metrics["checkout"] = "Checkouts initiated"
	facebook.Metrics["subscribe"] = "Subscriptions"

	return domain.MappingSet{
		Facebook:             facebook,
		GoogleSearch:         google(),
		GoogleDemandGen:      google(),
		GooglePerformanceMax: google(),
	}
}

// DefaultSession bundles the default mappings, dimensions and formulas.
func DefaultSession() domain.Session {
	return domain.Session{
		Mappings:   DefaultMappingSet(),
		Dimensions: DefaultPivotDimensions(),
		Formulas:   DefaultFormulas(),
	}
}

// DefaultPivotSpec is a campaign breakdown over every platform.
func DefaultPivotSpec() domain.PivotSpec {
	return domain.PivotSpec{
		Scopes:    domain.AllScopes(),
		RowDims:   []string{"Campaign"},
		ValueKeys: []string{"cost", "impressions", "linkClicks", "CTR"},
		Display: domain.DisplayOptions{
			ShowSubtotal:   true,
			ShowGrandTotal: true,
			TotalAxis:      domain.TotalAxisRow,
		},
	}
}

// BaseKeys returns the default base metrics followed by the session's
// custom metric keys in sorted order.
func BaseKeys(sess domain.Session) []string {
	keys := DefaultBaseMetrics()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	custom := sess.Mappings.CustomMetricKeys()
	sort.Strings(custom)
	for _, k := range custom {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// SelectableValueKeys lists what a pivot may show: base metrics, then
// formula names that do not shadow them.
func SelectableValueKeys(baseKeys []string, formulas []domain.FormulaField) []string {
	keys := make([]string, 0, len(baseKeys)+len(formulas))
	seen := make(map[string]bool)
	for _, k := range baseKeys {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, f := range formulas {
		if f.Name != "" && !seen[f.Name] {
			seen[f.Name] = true
			keys = append(keys, f.Name)
		}
	}
	return keys
}
