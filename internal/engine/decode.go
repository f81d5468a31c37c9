package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"adintel/internal/domain"
)

// Persisted configuration comes from a store with no schema. The decoders
// below never fail: bad payloads fall back to defaults and bad entries are
// dropped. Each returns a list of issues for the caller to log.

func isAbsent(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

var mappingFieldKeys = map[string]bool{
	"platform": true, "campaign": true, "adSet": true, "ad": true,
	"date": true, "age": true, "gender": true,
}

// DecodeMappings reads a mapping set. Each slot may use the nested form
// ({"campaign": ..., "metrics": {...}}) or the flat form where metric keys
// sit next to field keys. A legacy "google" slot fills every Google subtype
// that is not given explicitly.
func DecodeMappings(raw []byte) (domain.MappingSet, []string) {
	set := DefaultMappingSet()
	if isAbsent(raw) {
		return set, nil
	}

	var slots map[string]json.RawMessage
	if err := json.Unmarshal(raw, &slots); err != nil {
		return set, []string{fmt.Sprintf("mappings: expected an object, using defaults: %v", err)}
	}

	var issues []string
	base := make(map[string]bool)
	for _, k := range DefaultBaseMetrics() {
		base[k] = true
	}

	decode := func(name string, data json.RawMessage) (domain.MappingConfig, bool) {
		m, slotIssues, ok := decodeMapping(data, base)
		for _, issue := range slotIssues {
			issues = append(issues, fmt.Sprintf("mappings.%s: %s", name, issue))
		}
		return m, ok
	}

	if data, ok := slots["google"]; ok {
		if m, ok := decode("google", data); ok {
			set.GoogleSearch = m
			set.GoogleDemandGen = cloneMapping(m)
			set.GooglePerformanceMax = cloneMapping(m)
		}
	}
	for _, key := range domain.MappingKeys() {
		data, ok := slots[string(key)]
		if !ok {
			continue
		}
		if m, ok := decode(string(key), data); ok {
			set.Set(key, m)
		}
	}
	for name := range slots {
		if name != "google" && !isMappingKey(name) {
			issues = append(issues, fmt.Sprintf("mappings: unknown slot %q ignored", name))
		}
	}
	return set, issues
}

func isMappingKey(name string) bool {
	for _, k := range domain.MappingKeys() {
		if string(k) == name {
			return true
		}
	}
	return false
}

func cloneMapping(m domain.MappingConfig) domain.MappingConfig {
	out := m
	out.Metrics = make(map[string]string, len(m.Metrics))
	for k, v := range m.Metrics {
		out.Metrics[k] = v
	}
	if m.CustomMetrics != nil {
		out.CustomMetrics = make(map[string]string, len(m.CustomMetrics))
		for k, v := range m.CustomMetrics {
			out.CustomMetrics[k] = v
		}
	}
	return out
}

func decodeMapping(data json.RawMessage, base map[string]bool) (domain.MappingConfig, []string, bool) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return domain.MappingConfig{}, []string{"expected an object, slot keeps defaults"}, false
	}

	var issues []string
	m := domain.MappingConfig{Metrics: make(map[string]string)}
	setField := func(key, col string) {
		switch key {
		case "platform":
			m.Platform = col
		case "campaign":
			m.Campaign = col
		case "adSet":
			m.AdSet = col
		case "ad":
			m.Ad = col
		case "date":
			m.Date = col
		case "age":
			m.Age = col
		case "gender":
			m.Gender = col
		}
	}
	setMetric := func(key, col string) {
		switch {
		case base[key]:
			m.Metrics[key] = col
		case strings.HasPrefix(key, "custom_"):
			if m.CustomMetrics == nil {
				m.CustomMetrics = make(map[string]string)
			}
			m.CustomMetrics[key] = col
		default:
			issues = append(issues, fmt.Sprintf("unknown metric key %q dropped", key))
		}
	}

	for key, v := range fields {
		switch {
		case mappingFieldKeys[key]:
			col, ok := v.(string)
			if !ok {
				issues = append(issues, fmt.Sprintf("field %q is not a string", key))
				continue
			}
			setField(key, col)
		case key == "metrics" || key == "customMetrics":
			nested, ok := v.(map[string]any)
			if !ok {
				issues = append(issues, fmt.Sprintf("%q is not an object", key))
				continue
			}
			for mk, mv := range nested {
				col, ok := mv.(string)
				if !ok {
					issues = append(issues, fmt.Sprintf("metric %q is not a string", mk))
					continue
				}
				setMetric(mk, col)
			}
		default:
			col, ok := v.(string)
			if !ok {
				issues = append(issues, fmt.Sprintf("metric %q is not a string", key))
				continue
			}
			setMetric(key, col)
		}
	}
	return m, issues, true
}

// DecodeDimensions reads a dimension list. Entries without a label, with an
// unknown source, a non-integer index or a duplicate label are dropped. A
// payload that is not an array, or whose entries are all invalid, yields the
// default dimensions.
func DecodeDimensions(raw []byte) ([]domain.DimensionConfig, []string) {
	if isAbsent(raw) {
		return DefaultPivotDimensions(), nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return DefaultPivotDimensions(), []string{fmt.Sprintf("dimensions: expected an array, using defaults: %v", err)}
	}

	var issues []string
	out := []domain.DimensionConfig{}
	seen := make(map[string]bool)
	for i, entry := range entries {
		conf, err := decodeDimension(entry)
		if err != nil {
			issues = append(issues, fmt.Sprintf("dimensions[%d]: %v", i, err))
			continue
		}
		if seen[conf.Label] {
			issues = append(issues, fmt.Sprintf("dimensions[%d]: duplicate label %q dropped", i, conf.Label))
			continue
		}
		seen[conf.Label] = true
		out = append(out, conf)
	}

	if len(out) == 0 && len(entries) > 0 {
		issues = append(issues, "dimensions: no valid entries, using defaults")
		return DefaultPivotDimensions(), issues
	}
	return out, issues
}

func decodeDimension(entry json.RawMessage) (domain.DimensionConfig, error) {
	var fields map[string]any
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return domain.DimensionConfig{}, fmt.Errorf("expected an object")
	}

	label, _ := fields["label"].(string)
	label = strings.TrimSpace(label)
	if label == "" {
		return domain.DimensionConfig{}, fmt.Errorf("missing label")
	}

	src, _ := fields["source"].(string)
	source := domain.DimensionSource(src)
	if !source.Valid() {
		return domain.DimensionConfig{}, fmt.Errorf("unknown source %q", src)
	}

	index := domain.DirectIndex
	if v, ok := fields["index"]; ok && v != nil {
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || f < domain.DirectIndex {
			return domain.DimensionConfig{}, fmt.Errorf("invalid index %v", v)
		}
		index = int(f)
	}

	delimiter, _ := fields["delimiter"].(string)

	return domain.DimensionConfig{Label: label, Source: source, Index: index, Delimiter: delimiter}, nil
}

// DecodeFormulas reads a formula list. Entries need a name and a formula;
// names that repeat or shadow a base metric are dropped, unknown units are
// cleared and missing ids are generated. A payload that is not an array, or
// whose entries are all invalid, yields the default formulas.
func DecodeFormulas(raw []byte, baseKeys []string) ([]domain.FormulaField, []string) {
	if isAbsent(raw) {
		return DefaultFormulas(), nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return DefaultFormulas(), []string{fmt.Sprintf("formulas: expected an array, using defaults: %v", err)}
	}

	taken := make(map[string]bool, len(baseKeys))
	for _, k := range baseKeys {
		taken[k] = true
	}

	var issues []string
	out := []domain.FormulaField{}
	for i, entry := range entries {
		var fields map[string]any
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			issues = append(issues, fmt.Sprintf("formulas[%d]: expected an object", i))
			continue
		}

		name, _ := fields["name"].(string)
		name = strings.TrimSpace(name)
		expr, _ := fields["formula"].(string)
		if name == "" || strings.TrimSpace(expr) == "" {
			issues = append(issues, fmt.Sprintf("formulas[%d]: missing name or formula", i))
			continue
		}
		if taken[name] {
			issues = append(issues, fmt.Sprintf("formulas[%d]: name %q already used", i, name))
			continue
		}

		unit := domain.FormulaUnit("")
		if u, ok := fields["unit"].(string); ok {
			switch domain.FormulaUnit(u) {
			case domain.UnitNone, domain.UnitPercent, domain.UnitCurrency:
				unit = domain.FormulaUnit(u)
			default:
				issues = append(issues, fmt.Sprintf("formulas[%d]: unknown unit %q cleared", i, u))
			}
		}

		id, _ := fields["id"].(string)
		if id == "" {
			id = uuid.NewString()
		}
		isDefault, _ := fields["isDefault"].(bool)

		taken[name] = true
		out = append(out, domain.FormulaField{ID: id, Name: name, Formula: expr, Unit: unit, IsDefault: isDefault})
	}

	if len(out) == 0 && len(entries) > 0 {
		issues = append(issues, "formulas: no valid entries, using defaults")
		return DefaultFormulas(), issues
	}
	return out, issues
}
