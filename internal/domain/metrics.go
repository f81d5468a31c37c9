package domain

// Names carries the raw naming strings of a record's ad hierarchy.
type Names struct {
	Campaign string `json:"campaign"`
	AdSet    string `json:"ad_set"`
	Ad       string `json:"ad"`
}

// HierarchyLevel is the Meta rollup granularity a row was reported at.
type HierarchyLevel string

const (
	LevelCampaign HierarchyLevel = "campaign"
	LevelAdSet    HierarchyLevel = "adset"
	LevelAd       HierarchyLevel = "ad"
)

// NormalizedRecord is a RawRow after mapping, dimension resolution and
// formula evaluation. Records are rebuilt on every upstream change.
type NormalizedRecord struct {
	Date          string             `json:"date"`
	IsGoogle      bool               `json:"is_google"`
	Platform      Platform           `json:"platform"`
	GoogleSubtype GoogleSubtype      `json:"google_subtype,omitempty"`
	Age           string             `json:"age,omitempty"`
	Gender        string             `json:"gender,omitempty"`
	Dims          map[string]string  `json:"dims"`
	Names         Names              `json:"names"`
	Metrics       map[string]float64 `json:"metrics"`
}

// AggregateRow is one group of the dashboard's single-dimension breakdown.
type AggregateRow struct {
	Label  string             `json:"label"`
	Count  int                `json:"count"`
	Values map[string]float64 `json:"values"`
}

// TrendPoint is one day of the dashboard trend chart.
type TrendPoint struct {
	Date   string             `json:"date"`
	Count  int                `json:"count"`
	Values map[string]float64 `json:"values"`
}

// KPISummary backs the dashboard headline cards.
type KPISummary struct {
	TotalCost        float64 `json:"total_cost"`
	TotalLeads       float64 `json:"total_leads"`
	CostPerLead      float64 `json:"cost_per_lead"`
	ClickThroughRate float64 `json:"click_through_rate"`
	SubscriptionRate float64 `json:"subscription_rate"`
	Records          int     `json:"records"`
}

// DimensionQuality reports how often one dimension resolved on the records
// where it could be populated.
type DimensionQuality struct {
	Label     string          `json:"label"`
	Source    DimensionSource `json:"source"`
	Total     int             `json:"total"`
	Matched   int             `json:"matched"`
	Missing   int             `json:"missing"`
	MatchRate float64         `json:"match_rate"`
}

type OverallQuality struct {
	Records         int     `json:"records"`
	RecordsWithMiss int     `json:"records_with_miss"`
	CleanRecords    int     `json:"clean_records"`
	MissRate        float64 `json:"miss_rate"`
}

type QualityReport struct {
	Dimensions []DimensionQuality `json:"dimensions"`
	Overall    OverallQuality     `json:"overall"`
}

// Placeholder dimension values.
const (
	NotAvailable = "N/A"
	OtherBucket  = "Other"
)

// Dim returns the resolved value of a dimension, or NotAvailable. Pivoting
// and quality auditing group on this value.
func (r NormalizedRecord) Dim(label string) string {
	if v := r.Dims[label]; v != "" {
		return v
	}
	return NotAvailable
}

// GroupValue returns the dimension value used by dashboard aggregation,
// which buckets absent values as OtherBucket.
func (r NormalizedRecord) GroupValue(label string) string {
	if v := r.Dims[label]; v != "" {
		return v
	}
	return OtherBucket
}

// Level classifies the record's rollup granularity from its ad set and ad
// names.
func (r NormalizedRecord) Level() HierarchyLevel {
	switch {
	case resolved(r.Names.Ad):
		return LevelAd
	case resolved(r.Names.AdSet):
		return LevelAdSet
	default:
		return LevelCampaign
	}
}

func resolved(name string) bool {
	return name != "" && name != NotAvailable
}
