// Package engine turns raw ad rows into normalized records and aggregates
// them into pivot tables, dashboard breakdowns and data-quality reports.
// Everything here is pure: no I/O, no logging, no errors.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"adintel/internal/domain"
)

// ParseMetricValue converts a raw cell into a finite number. Currency,
// thousands and percent symbols are stripped and the longest numeric prefix
// is used; anything unparseable is 0.
func ParseMetricValue(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		return parseNumericPrefix(n.String())
	case string:
		return parseNumericPrefix(n)
	case bool:
		return 0
	default:
		return parseNumericPrefix(fmt.Sprint(n))
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var stripper = strings.NewReplacer("$", "", ",", "", "%", "")

func parseNumericPrefix(s string) float64 {
	s = strings.TrimSpace(stripper.Replace(s))
	if s == "" {
		return 0
	}

	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	end := i

	// exponent only counts when at least one digit follows
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			end = k
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

var printer = message.NewPrinter(language.English)

// FormatValue renders a metric for display according to its unit.
func FormatValue(v float64, unit domain.FormulaUnit) string {
	v = finite(v)
	switch unit {
	case domain.UnitCurrency:
		if v < 0 {
			return "-$" + printer.Sprintf("%.2f", -v)
		}
		return "$" + printer.Sprintf("%.2f", v)
	case domain.UnitPercent:
		return printer.Sprintf("%.2f", v*100) + "%"
	default:
		return printer.Sprintf("%.2f", v)
	}
}

// cellString renders a raw cell the way a naming or date column is read:
// nil, false and empty values become "".
func cellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if !s {
			return ""
		}
		return "true"
	case float64:
		if s == 0 || math.IsNaN(s) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}
