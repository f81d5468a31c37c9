package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReportDefaults holds the sections of a report config file as JSON, the
// format the persisted-config validators accept. A nil section was absent.
type ReportDefaults struct {
	Mappings   json.RawMessage
	Dimensions json.RawMessage
	Formulas   json.RawMessage
	Pivot      json.RawMessage
}

// LoadReportDefaults reads a YAML report config:
//
//	mappings:   {facebook: {...}, google_search: {...}, ...}
//	dimensions: [{label, source, index, delimiter}, ...]
//	formulas:   [{name, formula, unit}, ...]
//	pivot:      {rowDims, colDims, valueKeys, display, ...}
//
// An empty path yields empty defaults.
func LoadReportDefaults(path string) (*ReportDefaults, error) {
	if path == "" {
		return &ReportDefaults{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report config: %w", err)
	}
	return ParseReportDefaults(data)
}

// ParseReportDefaults is LoadReportDefaults over in-memory YAML.
func ParseReportDefaults(data []byte) (*ReportDefaults, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse report config: %w", err)
	}

	defaults := &ReportDefaults{}
	sections := []struct {
		name string
		dst  *json.RawMessage
	}{
		{"mappings", &defaults.Mappings},
		{"dimensions", &defaults.Dimensions},
		{"formulas", &defaults.Formulas},
		{"pivot", &defaults.Pivot},
	}

	for _, s := range sections {
		v, ok := doc[s.name]
		if !ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s section: %w", s.name, err)
		}
		*s.dst = raw
	}

	return defaults, nil
}
