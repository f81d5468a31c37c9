package usecase

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"adintel/internal/domain"
	"adintel/internal/infrastructure"
	"adintel/pkg/logger"
	"adintel/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeAds struct {
	mu       sync.Mutex
	rows     map[string][]domain.APIAdRow
	errs     map[string]error
	queries  []domain.AdQuery
	projects []domain.Project
}

func (f *fakeAds) FetchAdData(ctx context.Context, q domain.AdQuery) ([]domain.APIAdRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.errs[q.Platform]; err != nil {
		return nil, err
	}
	return f.rows[q.Platform], nil
}

func (f *fakeAds) FetchProjects(ctx context.Context) ([]domain.Project, error) {
	return f.projects, nil
}

type fakeStore struct {
	mu    sync.Mutex
	data  map[domain.ConfigKind]json.RawMessage
	gets  map[domain.ConfigKind]int
	saved map[domain.ConfigKind]json.RawMessage
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:  make(map[domain.ConfigKind]json.RawMessage),
		gets:  make(map[domain.ConfigKind]int),
		saved: make(map[domain.ConfigKind]json.RawMessage),
	}
}

func (f *fakeStore) GetConfig(ctx context.Context, user, projectID string, kind domain.ConfigKind) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[kind]++
	if f.err != nil {
		return nil, f.err
	}
	return f.data[kind], nil
}

func (f *fakeStore) SaveConfig(ctx context.Context, user, projectID string, kind domain.ConfigKind, data json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved[kind] = data
	return nil
}

type testEnv struct {
	reports *ReportService
	configs *ConfigService
	metrics *metrics.Metrics
}

func newTestEnv(ads domain.AdDataClient, store domain.ConfigStore) testEnv {
	log := logger.NewWithWriter("error", io.Discard)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	defaults, _ := BuildDefaults(nil)

	configs := NewConfigService(store, infrastructure.NewConfigRepository(0, log), defaults, log, m)
	reports := NewReportService(ads, configs, infrastructure.ExporterFor, log, m)
	return testEnv{reports: reports, configs: configs, metrics: m}
}

func metaRow(campaign string, cost, impressions, linkClicks float64) domain.RawRow {
	return domain.RawRow{
		domain.FieldPlatformMarker: "facebook",
		"Campaign Name":            campaign,
		"Ad Set Name":              campaign + "_set",
		"Ad Name":                  campaign + "_ad",
		"Day":                      "2024-01-02",
		"Amount spent (USD)":       cost,
		"Impressions":              impressions,
		"Link clicks":              linkClicks,
	}
}

func googleRow(campaign string, cost float64) domain.RawRow {
	return domain.RawRow{
		domain.FieldPlatformMarker:  "google",
		domain.FieldAdvertisingType: "SEARCH",
		"Campaign Name":             campaign,
		"Day":                       "2024-01-01",
		"Amount spent (USD)":        cost,
	}
}

func sampleRows() []domain.RawRow {
	return []domain.RawRow{
		metaRow("US_x", 30, 3000, 30),
		metaRow("UK_x", 20, 1000, 10),
		googleRow("G_Search", 5),
	}
}

func ptr(v float64) *float64 { return &v }
