package engine

import (
	"testing"

	"adintel/internal/domain"
)

func qualityDims() []domain.DimensionConfig {
	return []domain.DimensionConfig{
		{Label: "Age", Source: domain.SourceAge, Index: domain.DirectIndex},
		{Label: "Gender", Source: domain.SourceGender, Index: domain.DirectIndex},
		{Label: "Country", Source: domain.SourceCampaign, Index: 0},
	}
}

func metaRecord(names domain.Names, dims map[string]string) domain.NormalizedRecord {
	return domain.NormalizedRecord{Platform: domain.PlatformFacebook, Names: names, Dims: dims}
}

func findQuality(t *testing.T, report domain.QualityReport, label string) domain.DimensionQuality {
	t.Helper()
	for _, d := range report.Dimensions {
		if d.Label == label {
			return d
		}
	}
	t.Fatalf("no quality entry for %q", label)
	return domain.DimensionQuality{}
}

func TestAuditQualityMetaHierarchy(t *testing.T) {
	records := []domain.NormalizedRecord{
		metaRecord(domain.Names{Campaign: "US_A"}, map[string]string{"Age": "25-34", "Gender": "N/A", "Country": "US"}),
		metaRecord(domain.Names{Campaign: "US_A", AdSet: "AS1"}, map[string]string{"Age": "N/A", "Gender": "female", "Country": "US"}),
		metaRecord(domain.Names{Campaign: "A", AdSet: "AS1", Ad: "AD1"}, map[string]string{"Age": "N/A", "Gender": "N/A", "Country": "N/A"}),
	}

	report := AuditQuality(records, qualityDims())

	age := findQuality(t, report, "Age")
	if age.Total != 1 || age.Matched != 1 || age.MatchRate != 1 {
		t.Errorf("age = %+v, want only the campaign-level row", age)
	}
	gender := findQuality(t, report, "Gender")
	if gender.Total != 1 || gender.Matched != 1 {
		t.Errorf("gender = %+v, want only the ad-set-level row", gender)
	}
	country := findQuality(t, report, "Country")
	if country.Total != 1 || country.Missing != 1 || country.MatchRate != 0 {
		t.Errorf("country = %+v, want only the ad-level row", country)
	}

	order := []string{report.Dimensions[0].Label, report.Dimensions[1].Label, report.Dimensions[2].Label}
	if order[0] != "Country" || order[1] != "Age" || order[2] != "Gender" {
		t.Errorf("order = %v, want worst first with ties in config order", order)
	}

	if report.Overall.Records != 3 || report.Overall.RecordsWithMiss != 1 || report.Overall.CleanRecords != 2 {
		t.Errorf("overall = %+v", report.Overall)
	}
}

func TestAuditQualityGoogleChecksEveryDimension(t *testing.T) {
	records := []domain.NormalizedRecord{
		googleRecord(domain.SubtypePerformanceMax, map[string]string{"Age": "N/A", "Gender": "male", "Country": "US"}, nil),
		googleRecord(domain.SubtypePerformanceMax, map[string]string{"Age": "18-24", "Gender": "N/A", "Country": "US"}, nil),
	}

	report := AuditQuality(records, qualityDims())
	for _, d := range report.Dimensions {
		if d.Total != 2 {
			t.Errorf("%s total = %d, want 2", d.Label, d.Total)
		}
	}
	assertFloat(t, "age match rate", findQuality(t, report, "Age").MatchRate, 0.5)
	if report.Overall.RecordsWithMiss != 2 {
		t.Errorf("records with miss = %d, want 2", report.Overall.RecordsWithMiss)
	}
	assertFloat(t, "miss rate", report.Overall.MissRate, 1)
}

func TestAuditQualityNoApplicableRecords(t *testing.T) {
	report := AuditQuality(nil, qualityDims())
	for _, d := range report.Dimensions {
		if d.Total != 0 || d.MatchRate != 1 {
			t.Errorf("%s = %+v, want empty with full match rate", d.Label, d)
		}
	}
	if report.Overall.MissRate != 0 {
		t.Errorf("miss rate = %v", report.Overall.MissRate)
	}
}
