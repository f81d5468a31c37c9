package engine

import (
	"strings"

	"adintel/internal/domain"
	"adintel/internal/formula"
)

// ProcessResult is one batch pass over the raw rows.
type ProcessResult struct {
	Records []domain.NormalizedRecord
	// Dates holds every distinct date seen, in calendar order.
	Dates []string
}

type compiledFormula struct {
	field domain.FormulaField
	expr  *formula.Expr
}

// compileFormulas parses each formula once. Formulas that fail to parse keep
// a nil expression and evaluate to 0. A formula named like a base metric or
// an earlier formula is skipped so it can never replace a summed value.
func compileFormulas(formulas []domain.FormulaField, baseKeys []string) []compiledFormula {
	taken := make(map[string]bool, len(baseKeys)+len(formulas))
	for _, k := range baseKeys {
		taken[k] = true
	}
	out := make([]compiledFormula, 0, len(formulas))
	for _, f := range formulas {
		if f.Name == "" || taken[f.Name] {
			continue
		}
		taken[f.Name] = true
		expr, _ := formula.Compile(f.Formula)
		out = append(out, compiledFormula{field: f, expr: expr})
	}
	return out
}

// ShadowedFormulas names the formulas the engine skips because a base metric
// or an earlier formula already uses the name.
func ShadowedFormulas(formulas []domain.FormulaField, baseKeys []string) []string {
	taken := make(map[string]bool, len(baseKeys)+len(formulas))
	for _, k := range baseKeys {
		taken[k] = true
	}
	var out []string
	for _, f := range formulas {
		if f.Name == "" {
			continue
		}
		if taken[f.Name] {
			out = append(out, f.Name)
		}
		taken[f.Name] = true
	}
	return out
}

// Process normalizes every raw row under the session configuration.
func Process(rows []domain.RawRow, sess domain.Session) ProcessResult {
	baseKeys := BaseKeys(sess)
	formulas := compileFormulas(sess.Formulas, baseKeys)

	records := make([]domain.NormalizedRecord, 0, len(rows))
	seen := make(map[string]bool)
	var dates []string

	for _, row := range rows {
		rec := processRow(row, sess, baseKeys, formulas)
		if rec.Date != "" && !seen[rec.Date] {
			seen[rec.Date] = true
			dates = append(dates, rec.Date)
		}
		records = append(records, rec)
	}

	SortDates(dates)
	return ProcessResult{Records: records, Dates: dates}
}

func processRow(row domain.RawRow, sess domain.Session, baseKeys []string, formulas []compiledFormula) domain.NormalizedRecord {
	platform, subtype := ClassifyPlatform(row, sess.Mappings)
	mapping := sess.Mappings.For(platform, subtype)

	metrics := make(map[string]float64, len(baseKeys)+len(formulas))
	for _, key := range baseKeys {
		if col := mapping.MetricColumn(key); col != "" {
			metrics[key] = ParseMetricValue(row[col])
		} else {
			metrics[key] = 0
		}
	}

	// formulas see base metrics only
	ctx := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		ctx[k] = v
	}
	for _, f := range formulas {
		metrics[f.field.Name] = f.expr.Eval(ctx)
	}

	src := SourceValues{
		Platform: platform,
		Subtype:  subtype,
		Campaign: column(row, mapping.Campaign),
		AdSet:    column(row, mapping.AdSet),
		Ad:       column(row, mapping.Ad),
		Age:      columnOr(row, mapping.Age, "Age"),
		Gender:   columnOr(row, mapping.Gender, "Gender"),
	}

	dims := make(map[string]string, len(sess.Dimensions))
	for _, conf := range sess.Dimensions {
		dims[conf.Label] = ResolveDimension(src, conf)
	}

	return domain.NormalizedRecord{
		Date:          column(row, mapping.Date),
		IsGoogle:      platform == domain.PlatformGoogle,
		Platform:      platform,
		GoogleSubtype: subtype,
		Age:           src.Age,
		Gender:        src.Gender,
		Dims:          dims,
		Names:         domain.Names{Campaign: src.Campaign, AdSet: src.AdSet, Ad: src.Ad},
		Metrics:       metrics,
	}
}

func column(row domain.RawRow, name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(cellString(row[name]))
}

func columnOr(row domain.RawRow, name, fallback string) string {
	if name == "" {
		name = fallback
	}
	return column(row, name)
}

// ClassifyPlatform decides a row's platform from, in order, the reserved
// platform marker, the mapped platform column, a literal Platform column,
// and the presence of a Google campaign type. Google rows also get a
// subtype.
func ClassifyPlatform(row domain.RawRow, mappings domain.MappingSet) (domain.Platform, domain.GoogleSubtype) {
	platform := domain.PlatformUnknown

	candidates := []string{domain.FieldPlatformMarker, platformColumn(mappings), "Platform", "platform"}
	for _, col := range candidates {
		if col == "" {
			continue
		}
		if p := platformFromValue(cellString(row[col])); p != domain.PlatformUnknown {
			platform = p
			break
		}
	}

	adType := strings.ToUpper(strings.TrimSpace(cellString(row[domain.FieldAdvertisingType])))
	if platform == domain.PlatformUnknown && adType != "" {
		platform = domain.PlatformGoogle
	}
	if platform != domain.PlatformGoogle {
		return platform, ""
	}

	switch domain.GoogleSubtype(adType) {
	case domain.SubtypeSearch:
		return platform, domain.SubtypeSearch
	case domain.SubtypeDemandGen:
		return platform, domain.SubtypeDemandGen
	default:
		return platform, domain.SubtypePerformanceMax
	}
}

func platformColumn(mappings domain.MappingSet) string {
	for _, key := range domain.MappingKeys() {
		if col := mappings.Get(key).Platform; col != "" {
			return col
		}
	}
	return ""
}

func platformFromValue(v string) domain.Platform {
	v = strings.ToLower(v)
	switch {
	case strings.Contains(v, "google"):
		return domain.PlatformGoogle
	case strings.Contains(v, "facebook"), strings.Contains(v, "meta"):
		return domain.PlatformFacebook
	default:
		return domain.PlatformUnknown
	}
}

// Recompute runs the whole pipeline from raw rows to a pivot table.
func Recompute(rows []domain.RawRow, sess domain.Session, spec domain.PivotSpec) *domain.PivotResult {
	processed := Process(rows, sess)
	return BuildPivot(processed.Records, spec, sess.Formulas, BaseKeys(sess))
}
