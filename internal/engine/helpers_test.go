package engine

import (
	"math"
	"testing"

	"adintel/internal/domain"
)

// metaAd builds an ad-level Meta record.
func metaAd(dims map[string]string, metrics map[string]float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		Date:     "2025-01-01",
		Platform: domain.PlatformFacebook,
		Dims:     dims,
		Names:    domain.Names{Campaign: "C", AdSet: "AS", Ad: "AD"},
		Metrics:  metrics,
	}
}

func googleRecord(subtype domain.GoogleSubtype, dims map[string]string, metrics map[string]float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		Date:          "2025-01-01",
		IsGoogle:      true,
		Platform:      domain.PlatformGoogle,
		GoogleSubtype: subtype,
		Dims:          dims,
		Names:         domain.Names{Campaign: "G"},
		Metrics:       metrics,
	}
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertCell(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is blank, want %v", name, want)
		return
	}
	assertFloat(t, name, *got, want)
}
