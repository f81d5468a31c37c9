package engine

import (
	"sort"

	"adintel/internal/domain"
)

func sumInto(sums map[string]float64, r domain.NormalizedRecord, baseKeys []string) {
	for _, k := range baseKeys {
		sums[k] += r.Metrics[k]
	}
}

func withFormulas(sums map[string]float64, formulas []compiledFormula) map[string]float64 {
	values := make(map[string]float64, len(sums)+len(formulas))
	for k, v := range sums {
		values[k] = v
	}
	for _, f := range formulas {
		values[f.field.Name] = f.expr.Eval(sums)
	}
	return values
}

// AggregateByDimension sums records per value of one dimension and derives
// formulas from the sums. Records without the dimension fall into
// OtherBucket. Rows are ordered by label.
func AggregateByDimension(records []domain.NormalizedRecord, label string, formulas []domain.FormulaField, baseKeys []string) []domain.AggregateRow {
	compiled := compileFormulas(formulas, baseKeys)
	sums := make(map[string]map[string]float64)
	counts := make(map[string]int)

	for _, r := range records {
		key := r.GroupValue(label)
		if _, ok := sums[key]; !ok {
			sums[key] = newAggregate(baseKeys).sums
		}
		sumInto(sums[key], r, baseKeys)
		counts[key]++
	}

	out := make([]domain.AggregateRow, 0, len(sums))
	for key, s := range sums {
		out = append(out, domain.AggregateRow{Label: key, Count: counts[key], Values: withFormulas(s, compiled)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// AggregateTrend sums records per day and derives formulas from the daily
// sums, in calendar order.
func AggregateTrend(records []domain.NormalizedRecord, formulas []domain.FormulaField, baseKeys []string) []domain.TrendPoint {
	compiled := compileFormulas(formulas, baseKeys)
	sums := make(map[string]map[string]float64)
	counts := make(map[string]int)
	var dates []string

	for _, r := range records {
		if _, ok := sums[r.Date]; !ok {
			sums[r.Date] = newAggregate(baseKeys).sums
			dates = append(dates, r.Date)
		}
		sumInto(sums[r.Date], r, baseKeys)
		counts[r.Date]++
	}

	SortDates(dates)
	out := make([]domain.TrendPoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.TrendPoint{Date: d, Count: counts[d], Values: withFormulas(sums[d], compiled)})
	}
	return out
}

// DimensionValues returns the sorted distinct values of a dimension, using
// OtherBucket for records without it.
func DimensionValues(records []domain.NormalizedRecord, label string) []string {
	seen := make(map[string]bool)
	values := []string{}
	for _, r := range records {
		v := r.GroupValue(label)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

// Summarize computes the headline KPIs. Ratios divide by 1 when their
// denominator is zero.
func Summarize(records []domain.NormalizedRecord) domain.KPISummary {
	var cost, leads, linkClicks, impressions float64
	for _, r := range records {
		cost += r.Metrics["cost"]
		leads += r.Metrics["leads"]
		linkClicks += r.Metrics["linkClicks"]
		impressions += r.Metrics["impressions"]
	}
	return domain.KPISummary{
		TotalCost:        cost,
		TotalLeads:       leads,
		CostPerLead:      cost / orOne(leads),
		ClickThroughRate: linkClicks / orOne(impressions),
		SubscriptionRate: leads / orOne(linkClicks),
		Records:          len(records),
	}
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
