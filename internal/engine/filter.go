package engine

import (
	"strings"

	"adintel/internal/domain"
)

// ScopeOf returns the platform scope a record belongs to. Rows that are not
// Google count as Meta.
func ScopeOf(r domain.NormalizedRecord) domain.Scope {
	if !r.IsGoogle {
		return domain.ScopeMeta
	}
	switch r.GoogleSubtype {
	case domain.SubtypeSearch:
		return domain.ScopeGoogleSearch
	case domain.SubtypeDemandGen:
		return domain.ScopeGoogleDemandGen
	default:
		return domain.ScopeGooglePerformanceMax
	}
}

// ApplyScopes keeps records in the selected scopes. Meta records must also
// be ad-level so rollup rows are not counted twice.
func ApplyScopes(records []domain.NormalizedRecord, scopes []domain.Scope) []domain.NormalizedRecord {
	selected := make(map[domain.Scope]bool, len(scopes))
	for _, s := range scopes {
		selected[s] = true
	}

	out := make([]domain.NormalizedRecord, 0, len(records))
	for _, r := range records {
		scope := ScopeOf(r)
		if !selected[scope] {
			continue
		}
		if scope == domain.ScopeMeta && r.Level() != domain.LevelAd {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ApplyFilters keeps records that pass every filter. Filters on fields the
// record does not carry are ignored.
func ApplyFilters(records []domain.NormalizedRecord, filters []domain.Filter) []domain.NormalizedRecord {
	if len(filters) == 0 {
		return records
	}
	out := make([]domain.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if matchesAll(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r domain.NormalizedRecord, filters []domain.Filter) bool {
	for _, f := range filters {
		if !matches(r, f) {
			return false
		}
	}
	return true
}

func fieldValue(r domain.NormalizedRecord, key string) (string, bool) {
	if key == domain.DateFieldKey {
		return r.Date, true
	}
	v, ok := r.Dims[key]
	if !ok {
		return "", false
	}
	if v == "" {
		v = NotAvailable
	}
	return v, true
}

func matches(r domain.NormalizedRecord, f domain.Filter) bool {
	value, ok := fieldValue(r, f.FieldKey)
	if !ok {
		return true
	}

	switch f.Mode {
	case domain.FilterMulti:
		if len(f.SelectedValues) == 0 {
			return true
		}
		for _, s := range f.SelectedValues {
			if s == value {
				return true
			}
		}
		return false
	case domain.FilterContains:
		if f.TextValue == "" {
			return true
		}
		return containsFold(value, f.TextValue)
	case domain.FilterNotContains:
		if f.TextValue == "" {
			return true
		}
		return !containsFold(value, f.TextValue)
	case domain.FilterDateRange:
		return inDateRange(value, f.DateRange.Start, f.DateRange.End)
	default:
		return true
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FilterDashboard applies the dashboard filter bar: date range, platform
// and per-dimension value lists.
func FilterDashboard(records []domain.NormalizedRecord, f domain.DashboardFilter) []domain.NormalizedRecord {
	out := make([]domain.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if !inDateRange(r.Date, f.DateRange.Start, f.DateRange.End) {
			continue
		}
		switch strings.ToLower(f.Platform) {
		case "google":
			if !r.IsGoogle {
				continue
			}
		case "facebook", "meta":
			if r.IsGoogle {
				continue
			}
		}
		if !matchesDimensionValues(r, f.DimensionValues) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesDimensionValues(r domain.NormalizedRecord, values map[string][]string) bool {
	for label, active := range values {
		if len(active) == 0 {
			continue
		}
		v := r.GroupValue(label)
		found := false
		for _, a := range active {
			if a == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
