package engine

import (
	"strings"

	"adintel/internal/domain"
)

const (
	NotAvailable = domain.NotAvailable
	OtherBucket  = domain.OtherBucket

	defaultDelimiter = "_"
)

// SourceValues are the per-row inputs a dimension can be resolved from.
type SourceValues struct {
	Platform domain.Platform
	Subtype  domain.GoogleSubtype
	Campaign string
	AdSet    string
	Ad       string
	Age      string
	Gender   string
}

// PlatformLabel names a platform the way the Platform dimension shows it.
func PlatformLabel(p domain.Platform, subtype domain.GoogleSubtype) string {
	switch p {
	case domain.PlatformGoogle:
		if subtype == "" {
			subtype = domain.SubtypePerformanceMax
		}
		return "Google - " + string(subtype)
	case domain.PlatformFacebook:
		return "Facebook"
	default:
		return NotAvailable
	}
}

// ResolveDimension extracts one dimension value. It never fails; anything
// missing or out of range resolves to NotAvailable.
func ResolveDimension(src SourceValues, conf domain.DimensionConfig) string {
	switch conf.Source {
	case domain.SourcePlatform:
		return PlatformLabel(src.Platform, src.Subtype)
	case domain.SourceAge:
		return orNotAvailable(src.Age)
	case domain.SourceGender:
		return orNotAvailable(src.Gender)
	case domain.SourceCampaign:
		return segment(src.Campaign, conf)
	case domain.SourceAdSet:
		return segment(src.AdSet, conf)
	case domain.SourceAd:
		return segment(src.Ad, conf)
	default:
		return NotAvailable
	}
}

func segment(name string, conf domain.DimensionConfig) string {
	if conf.Index == domain.DirectIndex {
		return orNotAvailable(name)
	}
	if conf.Index < 0 {
		return NotAvailable
	}
	delim := conf.Delimiter
	if delim == "" {
		delim = defaultDelimiter
	}
	parts := strings.Split(name, delim)
	if conf.Index >= len(parts) {
		return NotAvailable
	}
	return orNotAvailable(parts[conf.Index])
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
