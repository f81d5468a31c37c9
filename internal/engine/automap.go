package engine

import (
	"strings"

	"adintel/internal/domain"
)

// headerMatcher hands out each header at most once, so a specific key
// (conversionValue) claims its column before a broader one (conversion)
// can match the same text.
type headerMatcher struct {
	headers []string
	lower   []string
	claimed map[int]bool
}

func newHeaderMatcher(headers []string) *headerMatcher {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return &headerMatcher{headers: headers, lower: lower, claimed: make(map[int]bool)}
}

func (m *headerMatcher) find(match func(header, target string) bool, targets []string) string {
	for _, t := range targets {
		for i, h := range m.lower {
			if !m.claimed[i] && match(h, t) {
				m.claimed[i] = true
				return m.headers[i]
			}
		}
	}
	return ""
}

// contains claims the first free header containing a target, trying
// targets in order.
func (m *headerMatcher) contains(targets ...string) string {
	return m.find(strings.Contains, targets)
}

func (m *headerMatcher) exact(targets ...string) string {
	return m.find(func(h, t string) bool { return h == t }, targets)
}

type metricRule struct {
	key     string
	targets []string
}

var sharedMetricRules = []metricRule{
	{"clicks", []string{"all clicks", "clicks (all)"}},
	{"linkClicks", []string{"link clicks", "clicks"}},
	{"conversionValue", []string{"conversion value", "purchase value", "conversionvalue"}},
	{"conversion", []string{"conversion", "conversions", "purchases", "purchase"}},
	{"cost", []string{"amount spent", "spend", "cost"}},
	{"impressions", []string{"impressions"}},
	{"reach", []string{"reach"}},
	{"addToCart", []string{"add to cart", "atc", "addtocart"}},
	{"landingPageViews", []string{"landing page views", "landingpageviews"}},
}

var facebookMetricRules = []metricRule{
	{"leads", []string{"leads", "results"}},
	{"checkout", []string{"checkout", "checkouts"}},
	{"subscribe", []string{"subscribe", "subscription", "subscriptions"}},
}

// AutoMap guesses a mapping set from uploaded column headers.
func AutoMap(headers []string) domain.MappingSet {
	m := newHeaderMatcher(headers)

	google := domain.MappingConfig{
		Platform: m.contains("platform", "source"),
		Campaign: m.contains("campaign name", "campaign"),
		AdSet:    m.contains("ad set name", "adset"),
		Ad:       m.contains("ad name", "creative"),
		Date:     m.contains("day", "date"),
		Age:      m.exact("age", "age range", "agerange"),
		Gender:   m.exact("gender", "gendertype"),
		Metrics:  make(map[string]string),
	}
	for _, rule := range sharedMetricRules {
		if col := m.contains(rule.targets...); col != "" {
			google.Metrics[rule.key] = col
		}
	}

	facebook := cloneMapping(google)
	for _, rule := range facebookMetricRules {
		if col := m.contains(rule.targets...); col != "" {
			facebook.Metrics[rule.key] = col
		}
	}

	return domain.MappingSet{
		Facebook:             facebook,
		GoogleSearch:         google,
		GoogleDemandGen:      cloneMapping(google),
		GooglePerformanceMax: cloneMapping(google),
	}
}
