package domain

// RawRow is one ad-performance record as returned by the ads API or a file
// import: column name to string, number or nil.
type RawRow map[string]any

// Reserved RawRow keys written by TransformAPIRows.
const (
	FieldPlatformMarker  = "__platform"
	FieldAdvertisingType = "__campaignAdvertisingType"
)

type Platform string

const (
	PlatformUnknown  Platform = ""
	PlatformFacebook Platform = "facebook"
	PlatformGoogle   Platform = "google"
)

type GoogleSubtype string

const (
	SubtypeSearch         GoogleSubtype = "SEARCH"
	SubtypeDemandGen      GoogleSubtype = "DEMAND_GEN"
	SubtypePerformanceMax GoogleSubtype = "PERFORMANCE_MAX"
)

// AdQuery parameterizes one call to the ads data endpoint.
type AdQuery struct {
	ProjectID   int      `json:"project_id"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Platform    string   `json:"platform"`
	CampaignIDs []string `json:"campaign_ids,omitempty"`
	AccountIDs  []string `json:"account_ids,omitempty"`
	Segments    []string `json:"segments,omitempty"`
}

// APIAdRow is the subset of the ads API row the dashboard consumes.
// Numeric fields are pointers because the API omits what a platform
// does not report.
type APIAdRow struct {
	Platform                string   `json:"platform"`
	Segments                string   `json:"segments"`
	RecordDate              string   `json:"recordDate"`
	AccountID               string   `json:"accountId"`
	AccountName             string   `json:"accountName"`
	CampaignID              string   `json:"campaignId"`
	CampaignName            string   `json:"campaignName"`
	CampaignAdvertisingType string   `json:"campaignAdvertisingType"`
	AdsetID                 string   `json:"adsetId"`
	AdsetName               string   `json:"adsetName"`
	AdID                    string   `json:"adId"`
	AdName                  string   `json:"adName"`
	GenderType              string   `json:"genderType"`
	AgeRange                string   `json:"ageRange"`
	Clicks                  *float64 `json:"clicks"`
	Impressions             *float64 `json:"impressions"`
	Reach                   *float64 `json:"reach"`
	LinkClicks              *float64 `json:"linkClicks"`
	Cost                    *float64 `json:"cost"`
	CostUSD                 *float64 `json:"costUsd"`
	Conversion              *float64 `json:"conversion"`
	ConversionValue         *float64 `json:"conversionValue"`
	AddToCart               *float64 `json:"addToCart"`
	LandingPageViews        *float64 `json:"landingPageViews"`
	Checkout                *float64 `json:"checkout"`
	Subscribe               *float64 `json:"subscribe"`
	Leads                   *float64 `json:"leads"`
	GAConvertedRevenue      *float64 `json:"gaConvertedRevenue"`
}

// APIResponse is the ads API envelope.
type APIResponse struct {
	Code int        `json:"code"`
	Msg  string     `json:"msg"`
	Data []APIAdRow `json:"data"`
}

// Account identifies an ad account seen in fetched data.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is one entry of the user's report project list.
type Project struct {
	ProjectID     int    `json:"projectId"`
	ProjectName   string `json:"projectName"`
	IconURL       string `json:"iconUrl"`
	AdsCostReport bool   `json:"adsCostReport"`
	BIReport      bool   `json:"biReport"`
}

// ProjectListResponse is the envelope of the project list endpoint.
type ProjectListResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		ProjectList []Project `json:"projectList"`
	} `json:"data"`
}
