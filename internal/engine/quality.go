package engine

import (
	"sort"

	"adintel/internal/domain"
)

// applicable reports whether a dimension can be populated on a record.
// Meta reports age only on campaign-level rows and gender only on
// ad-set-level rows; every other dimension lives on ad-level rows.
func applicable(r domain.NormalizedRecord, source domain.DimensionSource) bool {
	if r.IsGoogle {
		return true
	}
	level := r.Level()
	switch source {
	case domain.SourceAge:
		return level == domain.LevelCampaign
	case domain.SourceGender:
		return level == domain.LevelAdSet
	default:
		return level == domain.LevelAd
	}
}

// AuditQuality measures per dimension how many applicable records resolved
// a value. Dimensions are returned worst match rate first.
func AuditQuality(records []domain.NormalizedRecord, dims []domain.DimensionConfig) domain.QualityReport {
	stats := make([]domain.DimensionQuality, len(dims))
	for i, d := range dims {
		stats[i] = domain.DimensionQuality{Label: d.Label, Source: d.Source}
	}

	withMiss := 0
	for _, r := range records {
		missed := false
		for i, d := range dims {
			if !applicable(r, d.Source) {
				continue
			}
			stats[i].Total++
			if r.Dim(d.Label) == NotAvailable {
				stats[i].Missing++
				missed = true
			} else {
				stats[i].Matched++
			}
		}
		if missed {
			withMiss++
		}
	}

	for i := range stats {
		if stats[i].Total == 0 {
			stats[i].MatchRate = 1
		} else {
			stats[i].MatchRate = float64(stats[i].Matched) / float64(stats[i].Total)
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].MatchRate < stats[j].MatchRate })

	overall := domain.OverallQuality{
		Records:         len(records),
		RecordsWithMiss: withMiss,
		CleanRecords:    len(records) - withMiss,
	}
	if len(records) > 0 {
		overall.MissRate = float64(withMiss) / float64(len(records))
	}

	return domain.QualityReport{Dimensions: stats, Overall: overall}
}
