package engine

import (
	"strings"

	"adintel/internal/domain"
)

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// TransformAPIRows converts ads API rows into RawRows with the column names
// of a Meta export, so API data and uploaded files share one mapping.
func TransformAPIRows(rows []domain.APIAdRow) []domain.RawRow {
	out := make([]domain.RawRow, 0, len(rows))
	for _, r := range rows {
		platform := strings.ToLower(r.Platform)

		spent := orZero(r.Cost)
		if r.CostUSD != nil {
			spent = *r.CostUSD
		}

		raw := domain.RawRow{
			domain.FieldPlatformMarker:  platform,
			domain.FieldAdvertisingType: strings.ToUpper(r.CampaignAdvertisingType),

			"Campaign Name": r.CampaignName,
			"Ad Set Name":   r.AdsetName,
			"Ad Name":       r.AdName,
			"Day":           r.RecordDate,

			"Campaign ID":  r.CampaignID,
			"Ad Set ID":    r.AdsetID,
			"Ad ID":        r.AdID,
			"Account ID":   r.AccountID,
			"Account Name": r.AccountName,

			"Amount spent (USD)": spent,
			"Spend":              orZero(r.Cost),

			"Impressions":  orZero(r.Impressions),
			"Reach":        orZero(r.Reach),
			"Clicks (all)": orZero(r.Clicks),
			"Link clicks":  orZero(r.LinkClicks),

			"Purchases":                  orZero(r.Conversion),
			"Purchases conversion value": orZero(r.ConversionValue),
			"Add to Cart":                orZero(r.AddToCart),
			"Landing page views":         orZero(r.LandingPageViews),
			"Total site sale value":      orZero(r.GAConvertedRevenue),

			"Age":    r.AgeRange,
			"Gender": r.GenderType,
		}

		if !strings.Contains(platform, "google") {
			raw["Leads"] = orZero(r.Leads)
			raw["Checkouts initiated"] = orZero(r.Checkout)
			raw["Subscriptions"] = orZero(r.Subscribe)
		}
		out = append(out, raw)
	}
	return out
}

// ExtractAccounts lists the distinct ad accounts in first-seen order.
func ExtractAccounts(rows []domain.APIAdRow) []domain.Account {
	seen := make(map[string]bool)
	accounts := []domain.Account{}
	for _, r := range rows {
		if r.AccountID == "" || seen[r.AccountID] {
			continue
		}
		seen[r.AccountID] = true
		name := r.AccountName
		if name == "" {
			name = r.AccountID
		}
		accounts = append(accounts, domain.Account{ID: r.AccountID, Name: name})
	}
	return accounts
}
