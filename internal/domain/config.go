package domain

// MappingKey names one platform-and-subtype column mapping.
type MappingKey string

const (
	MappingFacebook             MappingKey = "facebook"
	MappingGoogleSearch         MappingKey = "google_search"
	MappingGoogleDemandGen      MappingKey = "google_demand_gen"
	MappingGooglePerformanceMax MappingKey = "google_performance_max"
)

// MappingKeys lists every mapping slot in display order.
func MappingKeys() []MappingKey {
	return []MappingKey{MappingFacebook, MappingGoogleSearch, MappingGoogleDemandGen, MappingGooglePerformanceMax}
}

// MappingConfig maps canonical keys to source column names for one
// platform. An empty column name means unmapped.
type MappingConfig struct {
	Platform string `json:"platform" yaml:"platform"`
	Campaign string `json:"campaign" yaml:"campaign"`
	AdSet    string `json:"adSet" yaml:"adSet"`
	Ad       string `json:"ad" yaml:"ad"`
	Date     string `json:"date" yaml:"date"`
	Age      string `json:"age" yaml:"age"`
	Gender   string `json:"gender" yaml:"gender"`

	// Metrics is keyed by base metric key (cost, impressions, ...).
	Metrics map[string]string `json:"metrics" yaml:"metrics"`
	// CustomMetrics is keyed by user-defined metric key (custom_*).
	CustomMetrics map[string]string `json:"customMetrics,omitempty" yaml:"customMetrics,omitempty"`
}

// MetricColumn returns the column mapped to a base or custom metric key.
func (m MappingConfig) MetricColumn(key string) string {
	if col, ok := m.Metrics[key]; ok {
		return col
	}
	return m.CustomMetrics[key]
}

// MappingSet holds one MappingConfig per platform subtype.
type MappingSet struct {
	Facebook             MappingConfig `json:"facebook" yaml:"facebook"`
	GoogleSearch         MappingConfig `json:"google_search" yaml:"google_search"`
	GoogleDemandGen      MappingConfig `json:"google_demand_gen" yaml:"google_demand_gen"`
	GooglePerformanceMax MappingConfig `json:"google_performance_max" yaml:"google_performance_max"`
}

// Get returns the mapping stored under key; unknown keys get Facebook.
func (s MappingSet) Get(key MappingKey) MappingConfig {
	switch key {
	case MappingGoogleSearch:
		return s.GoogleSearch
	case MappingGoogleDemandGen:
		return s.GoogleDemandGen
	case MappingGooglePerformanceMax:
		return s.GooglePerformanceMax
	default:
		return s.Facebook
	}
}

// Set replaces the mapping stored under key.
func (s *MappingSet) Set(key MappingKey, m MappingConfig) {
	switch key {
	case MappingFacebook:
		s.Facebook = m
	case MappingGoogleSearch:
		s.GoogleSearch = m
	case MappingGoogleDemandGen:
		s.GoogleDemandGen = m
	case MappingGooglePerformanceMax:
		s.GooglePerformanceMax = m
	}
}

// For selects the mapping a row of the given platform uses.
func (s MappingSet) For(p Platform, subtype GoogleSubtype) MappingConfig {
	if p != PlatformGoogle {
		return s.Facebook
	}
	switch subtype {
	case SubtypeSearch:
		return s.GoogleSearch
	case SubtypeDemandGen:
		return s.GoogleDemandGen
	default:
		return s.GooglePerformanceMax
	}
}

// CustomMetricKeys returns every custom metric key mapped on any platform.
func (s MappingSet) CustomMetricKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, k := range MappingKeys() {
		for key := range s.Get(k).CustomMetrics {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}

type DimensionSource string

const (
	SourceCampaign DimensionSource = "campaign"
	SourceAdSet    DimensionSource = "adSet"
	SourceAd       DimensionSource = "ad"
	SourcePlatform DimensionSource = "platform"
	SourceAge      DimensionSource = "age"
	SourceGender   DimensionSource = "gender"
)

// Valid reports whether s is one of the recognized dimension sources.
func (s DimensionSource) Valid() bool {
	switch s {
	case SourceCampaign, SourceAdSet, SourceAd, SourcePlatform, SourceAge, SourceGender:
		return true
	}
	return false
}

// DirectIndex marks a dimension that takes its source value verbatim.
const DirectIndex = -1

// DimensionConfig extracts one dimension from a naming string or a
// directly mapped column.
type DimensionConfig struct {
	Label     string          `json:"label" yaml:"label"`
	Source    DimensionSource `json:"source" yaml:"source"`
	Index     int             `json:"index" yaml:"index"`
	Delimiter string          `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
}

type FormulaUnit string

const (
	UnitNone     FormulaUnit = ""
	UnitPercent  FormulaUnit = "%"
	UnitCurrency FormulaUnit = "$"
)

// FormulaField is a named arithmetic expression over base metrics.
type FormulaField struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	Formula   string      `json:"formula" yaml:"formula"`
	Unit      FormulaUnit `json:"unit" yaml:"unit"`
	IsDefault bool        `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
}

// Session is the immutable configuration snapshot one recompute runs on.
type Session struct {
	Mappings   MappingSet        `json:"mappings" yaml:"mappings"`
	Dimensions []DimensionConfig `json:"dimensions" yaml:"dimensions"`
	Formulas   []FormulaField    `json:"formulas" yaml:"formulas"`
}
