package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"adintel/internal/domain"
	"adintel/internal/formula"
	"adintel/pkg/config"
)

func TestConfigSaveAndGet(t *testing.T) {
	store := newFakeStore()
	env := newTestEnv(&fakeAds{}, store)
	ctx := context.Background()

	data := json.RawMessage(`[{"label":"Market","source":"campaign","index":0}]`)
	issues, err := env.configs.Save(ctx, "ann", "47", domain.ConfigDimensions, data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	if string(store.saved[domain.ConfigDimensions]) != string(data) {
		t.Errorf("store got %s", store.saved[domain.ConfigDimensions])
	}

	got, err := env.configs.Get(ctx, "ann", "47", domain.ConfigDimensions)
	if err != nil || string(got) != string(data) {
		t.Fatalf("Get = %s, %v", got, err)
	}
	if store.gets[domain.ConfigDimensions] != 0 {
		t.Error("saved config should be served from cache")
	}
}

func TestConfigSaveReportsIssues(t *testing.T) {
	env := newTestEnv(&fakeAds{}, nil)

	data := json.RawMessage(`[
		{"name":"CPM","formula":"cost / impressions * 1000","unit":"$"},
		{"name":"Typo","formula":"cost / impresions"}
	]`)
	issues, err := env.configs.Save(context.Background(), "ann", "47", domain.ConfigFormulas, data)
	if err != nil {
		t.Fatalf("Save without a store should cache only, got %v", err)
	}
	if len(issues) != 1 {
		t.Errorf("issues = %v, want one unknown variable", issues)
	}
}

func TestConfigSaveRejects(t *testing.T) {
	env := newTestEnv(&fakeAds{}, nil)
	ctx := context.Background()

	if _, err := env.configs.Save(ctx, "ann", "47", domain.ConfigKind("bi"), json.RawMessage(`{}`)); !errors.Is(err, ErrInvalidConfigKind) {
		t.Errorf("kind err = %v", err)
	}
	if _, err := env.configs.Save(ctx, "ann", "47", domain.ConfigMetrics, json.RawMessage(`{"a":`)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("json err = %v", err)
	}
	if _, err := env.configs.Get(ctx, "ann", "47", domain.ConfigKind("")); !errors.Is(err, ErrInvalidConfigKind) {
		t.Errorf("get kind err = %v", err)
	}
}

func TestSessionStoreFailureFallsBack(t *testing.T) {
	store := newFakeStore()
	store.err = &domain.NetworkError{API: "config_store", Err: errors.New("timeout")}
	env := newTestEnv(&fakeAds{}, store)

	sess := env.configs.Session(context.Background(), "ann", "47")
	if len(sess.Dimensions) != 6 || len(sess.Formulas) != 8 {
		t.Errorf("session should be the defaults, got %d dims %d formulas", len(sess.Dimensions), len(sess.Formulas))
	}
}

func TestSessionCustomMetricsFeedFormulas(t *testing.T) {
	store := newFakeStore()
	store.data[domain.ConfigMetrics] = []byte(`{"facebook":{"campaign":"Campaign Name","metrics":{"cost":"Spend"},"customMetrics":{"custom_calls":"Calls"}}}`)
	store.data[domain.ConfigFormulas] = []byte(`[{"name":"Cost per call","formula":"cost / custom_calls","unit":"$"}]`)
	env := newTestEnv(&fakeAds{}, store)

	sess := env.configs.Session(context.Background(), "ann", "47")
	if sess.Mappings.Facebook.CustomMetrics["custom_calls"] != "Calls" {
		t.Fatalf("custom metric not decoded: %+v", sess.Mappings.Facebook)
	}
	if len(sess.Formulas) != 1 || sess.Formulas[0].ID == "" {
		t.Errorf("formulas = %+v", sess.Formulas)
	}
}

func TestValidateFormula(t *testing.T) {
	env := newTestEnv(&fakeAds{}, nil)
	ctx := context.Background()

	vars, err := env.configs.ValidateFormula(ctx, "", "", "(linkClicks / impressions) * 100")
	if err != nil {
		t.Fatalf("ValidateFormula: %v", err)
	}
	if len(vars) != 2 || vars[0] != "impressions" || vars[1] != "linkClicks" {
		t.Errorf("vars = %v", vars)
	}

	if _, err := env.configs.ValidateFormula(ctx, "", "", "cost / clickz"); !errors.Is(err, formula.ErrUnknownVariable) {
		t.Errorf("err = %v, want ErrUnknownVariable", err)
	}
	if _, err := env.configs.ValidateFormula(ctx, "", "", "cost $ 2"); !errors.Is(err, formula.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAutoMap(t *testing.T) {
	env := newTestEnv(&fakeAds{}, nil)
	set := env.configs.AutoMap(context.Background(), []string{"Campaign name", "Amount spent (USD)", "Impressions"})
	if set.Facebook.Metrics["cost"] != "Amount spent (USD)" {
		t.Errorf("cost mapped to %q", set.Facebook.Metrics["cost"])
	}
}

func TestBuildDefaultsFromYAML(t *testing.T) {
	rd, err := config.ParseReportDefaults([]byte(`
dimensions:
  - label: Market
    source: campaign
    index: 0
  - label: Bad
    source: region
    index: 0
pivot:
  rowDims: [Market]
  valueKeys: [cost]
`))
	if err != nil {
		t.Fatal(err)
	}

	d, issues := BuildDefaults(rd)
	if len(issues) != 1 {
		t.Errorf("issues = %v, want the unknown source", issues)
	}
	if len(d.Session.Dimensions) != 1 || d.Session.Dimensions[0].Label != "Market" {
		t.Errorf("dimensions = %+v", d.Session.Dimensions)
	}
	if len(d.Session.Formulas) != 8 {
		t.Errorf("absent formulas should default, got %d", len(d.Session.Formulas))
	}
	if d.Pivot.RowDims[0] != "Market" || !d.Pivot.Display.ShowGrandTotal {
		t.Errorf("pivot = %+v", d.Pivot)
	}
}
