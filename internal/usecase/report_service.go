package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"adintel/internal/domain"
	"adintel/internal/engine"
	"adintel/internal/formula"
	"adintel/pkg/logger"
	"adintel/pkg/metrics"
)

var (
	ErrNoDataSource      = errors.New("request needs inline rows or a project id")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ReportRequest selects the data, configuration and layout of one report.
// Inline Rows bypass the ads API. An inline Session overrides the user's
// saved one; its absent sections fall back to the defaults.
type ReportRequest struct {
	ProjectID   int      `json:"projectId"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Platforms   []string `json:"platforms,omitempty"`
	AccountIDs  []string `json:"accountIds,omitempty"`
	CampaignIDs []string `json:"campaignIds,omitempty"`
	Segments    []string `json:"segments,omitempty"`

	Rows []domain.RawRow `json:"rows,omitempty"`

	User    string            `json:"user,omitempty"`
	Session *InlineSession    `json:"session,omitempty"`
	Pivot   *domain.PivotSpec `json:"pivot,omitempty"`

	Dashboard  *domain.DashboardFilter `json:"dashboard,omitempty"`
	Breakdowns []string                `json:"breakdowns,omitempty"`
}

type PivotReport struct {
	Result    *domain.PivotResult `json:"result"`
	Dates     []string            `json:"dates"`
	ValueKeys []string            `json:"selectable_value_keys"`
}

type DashboardReport struct {
	Summary         domain.KPISummary                `json:"summary"`
	Trend           []domain.TrendPoint              `json:"trend"`
	Breakdowns      map[string][]domain.AggregateRow `json:"breakdowns"`
	DimensionValues map[string][]string              `json:"dimension_values"`
	Dates           []string                         `json:"dates"`
	RecordCount     int                              `json:"record_count"`
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExporterLookup resolves an export format to its writer.
type ExporterLookup func(format string) (domain.Exporter, error)

type ReportService struct {
	ads       domain.AdDataClient
	configs   *ConfigService
	exporters ExporterLookup
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewReportService(
	ads domain.AdDataClient,
	configs *ConfigService,
	exporters ExporterLookup,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *ReportService {
	return &ReportService{
		ads:       ads,
		configs:   configs,
		exporters: exporters,
		logger:    logger,
		metrics:   metrics,
	}
}

// loaded is one request's normalized input.
type loaded struct {
	session domain.Session
	result  engine.ProcessResult
}

// Pivot builds the pivot table for the request.
func (s *ReportService) Pivot(ctx context.Context, req ReportRequest) (*PivotReport, error) {
	var report *PivotReport
	err := s.track(ctx, "pivot", func() error {
		in, err := s.load(ctx, req)
		if err != nil {
			return err
		}

		spec := s.pivotSpec(req)
		baseKeys := engine.BaseKeys(in.session)
		result := engine.BuildPivot(in.result.Records, spec, in.session.Formulas, baseKeys)
		s.metrics.RecordPivotRows("pivot", len(result.Rows))

		report = &PivotReport{
			Result:    result,
			Dates:     in.result.Dates,
			ValueKeys: engine.SelectableValueKeys(baseKeys, in.session.Formulas),
		}
		return nil
	})
	return report, err
}

// Quality audits dimension coverage for the request's records.
func (s *ReportService) Quality(ctx context.Context, req ReportRequest) (*domain.QualityReport, error) {
	var report domain.QualityReport
	err := s.track(ctx, "quality", func() error {
		in, err := s.load(ctx, req)
		if err != nil {
			return err
		}
		report = engine.AuditQuality(in.result.Records, in.session.Dimensions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Dashboard builds the KPI cards, daily trend and per-dimension breakdowns
// after the dashboard filter bar is applied.
func (s *ReportService) Dashboard(ctx context.Context, req ReportRequest) (*DashboardReport, error) {
	var report *DashboardReport
	err := s.track(ctx, "dashboard", func() error {
		in, err := s.load(ctx, req)
		if err != nil {
			return err
		}

		records := in.result.Records
		if req.Dashboard != nil {
			records = engine.FilterDashboard(records, *req.Dashboard)
		}

		baseKeys := engine.BaseKeys(in.session)
		report = &DashboardReport{
			Summary:         engine.Summarize(records),
			Trend:           engine.AggregateTrend(records, in.session.Formulas, baseKeys),
			Breakdowns:      make(map[string][]domain.AggregateRow),
			DimensionValues: make(map[string][]string),
			Dates:           in.result.Dates,
			RecordCount:     len(records),
		}

		// the filter bar offers values from the unfiltered records
		for _, dim := range in.session.Dimensions {
			report.DimensionValues[dim.Label] = engine.DimensionValues(in.result.Records, dim.Label)
		}
		for _, label := range req.Breakdowns {
			report.Breakdowns[label] = engine.AggregateByDimension(records, label, in.session.Formulas, baseKeys)
		}
		return nil
	})
	return report, err
}

// Export renders the pivot and flattens it into the requested file format.
func (s *ReportService) Export(ctx context.Context, req ReportRequest, format string, formatted bool) (*ExportFile, error) {
	exporter, err := s.exporters(format)
	if err != nil {
		s.metrics.RecordExport(format, "unsupported")
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var file *ExportFile
	err = s.track(ctx, "export", func() error {
		in, err := s.load(ctx, req)
		if err != nil {
			return err
		}

		result := engine.BuildPivot(in.result.Records, s.pivotSpec(req), in.session.Formulas, engine.BaseKeys(in.session))
		s.metrics.RecordPivotRows("export", len(result.Rows))
		matrix := engine.Flatten(result, engine.FlattenOptions{Formatted: formatted})

		var buf bytes.Buffer
		if err := exporter.Export(&buf, matrix); err != nil {
			s.metrics.RecordExport(format, "failed")
			return fmt.Errorf("failed to export pivot: %w", err)
		}
		s.metrics.RecordExport(format, "success")

		file = &ExportFile{
			Filename:    exportFilename(req, exporter.Extension()),
			ContentType: exporter.ContentType(),
			Data:        buf.Bytes(),
		}
		return nil
	})
	return file, err
}

// Accounts lists the ad accounts present in the fetched data.
func (s *ReportService) Accounts(ctx context.Context, req ReportRequest) ([]domain.Account, error) {
	req.Rows = nil
	var accounts []domain.Account
	err := s.track(ctx, "accounts", func() error {
		rows, err := s.fetch(ctx, req)
		if err != nil {
			return err
		}
		accounts = engine.ExtractAccounts(rows)
		return nil
	})
	return accounts, err
}

// Projects lists the projects the API token can report on.
func (s *ReportService) Projects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.ads.FetchProjects(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to fetch projects")
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return projects, nil
}

// track wraps one report build with the in-progress gauge, duration metric
// and a completion log line.
func (s *ReportService) track(ctx context.Context, kind string, build func() error) error {
	start := time.Now()
	s.metrics.IncReportsInProgress()
	defer s.metrics.DecReportsInProgress()

	log := s.logger.WithContext(ctx).WithField("report", kind)

	if err := build(); err != nil {
		s.metrics.RecordReport(kind, "failed", time.Since(start))
		log.WithError(err).Error("Report failed")
		return err
	}

	duration := time.Since(start)
	s.metrics.RecordReport(kind, "success", duration)
	log.WithField("duration", duration).Info("Report built")
	return nil
}

func (s *ReportService) pivotSpec(req ReportRequest) domain.PivotSpec {
	spec := s.configs.Defaults().Pivot
	if req.Pivot != nil {
		spec = *req.Pivot
	}
	if spec.Scopes == nil {
		spec.Scopes = domain.AllScopes()
	}
	if spec.Display.TotalAxis == "" {
		spec.Display.TotalAxis = domain.TotalAxisRow
	}
	return spec
}

func (s *ReportService) session(ctx context.Context, req ReportRequest) domain.Session {
	defaults := s.configs.Defaults().Session
	switch {
	case req.Session != nil:
		sess, issues := decodeInline(*req.Session, defaults)
		for kind, list := range issues {
			if len(list) == 0 {
				continue
			}
			s.metrics.RecordConfigIssues(string(kind), len(list))
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"kind":   kind,
				"issues": list,
			}).Warn("Dropped invalid inline session entries")
		}
		return sess
	case req.User != "" && req.ProjectID != 0:
		return s.configs.Session(ctx, req.User, projectKey(req.ProjectID))
	default:
		return defaults
	}
}

// load resolves the session and normalizes the request's rows.
func (s *ReportService) load(ctx context.Context, req ReportRequest) (*loaded, error) {
	in := &loaded{session: s.session(ctx, req)}
	s.checkFormulas(ctx, in.session)

	rows := req.Rows
	source := "upload"
	if rows == nil {
		apiRows, err := s.fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		rows = engine.TransformAPIRows(apiRows)
		source = "api"
	}

	in.result = engine.Process(rows, in.session)

	counts := make(map[domain.Platform]int)
	for _, r := range in.result.Records {
		counts[r.Platform]++
	}
	for platform, n := range counts {
		name := string(platform)
		if name == "" {
			name = "unknown"
		}
		s.metrics.RecordRecords(source, name, n)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"source":  source,
		"rows":    len(rows),
		"records": len(in.result.Records),
		"dates":   len(in.result.Dates),
	}).Info("Records normalized")

	return in, nil
}

func (s *ReportService) checkFormulas(ctx context.Context, sess domain.Session) {
	for _, name := range engine.ShadowedFormulas(sess.Formulas, engine.BaseKeys(sess)) {
		s.metrics.RecordInvalidFormula()
		s.logger.WithContext(ctx).WithField("formula", name).Warn("Formula name is already taken, it is skipped")
	}
	for _, f := range sess.Formulas {
		if _, err := formula.Compile(f.Formula); err != nil {
			s.metrics.RecordInvalidFormula()
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"formula": f.Name,
				"source":  f.Formula,
				"error":   err.Error(),
			}).Warn("Formula does not compile, it will evaluate to 0")
		}
	}
}

// fetch pulls every requested platform concurrently. A failing platform
// contributes no rows; only when all of them fail is the error returned.
func (s *ReportService) fetch(ctx context.Context, req ReportRequest) ([]domain.APIAdRow, error) {
	if req.ProjectID == 0 {
		return nil, ErrNoDataSource
	}

	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = []string{string(domain.PlatformFacebook), string(domain.PlatformGoogle)}
	}

	log := s.logger.WithContext(ctx)
	results := make([][]domain.APIAdRow, len(platforms))
	errs := make([]error, len(platforms))

	var wg sync.WaitGroup
	wg.Add(len(platforms))

	for i, platform := range platforms {
		i, platform := i, platform
		go func() {
			defer wg.Done()
			results[i], errs[i] = s.ads.FetchAdData(ctx, domain.AdQuery{
				ProjectID:   req.ProjectID,
				StartDate:   req.StartDate,
				EndDate:     req.EndDate,
				Platform:    platform,
				CampaignIDs: req.CampaignIDs,
				AccountIDs:  req.AccountIDs,
				Segments:    req.Segments,
			})
			if errs[i] != nil {
				log.WithError(errs[i]).WithField("platform", platform).Error("Failed to fetch ad data")
			}
		}()
	}

	wg.Wait()

	var rows []domain.APIAdRow
	failed := 0
	for i := range platforms {
		if errs[i] != nil {
			failed++
			continue
		}
		rows = append(rows, results[i]...)
	}

	if failed == len(platforms) {
		return nil, fmt.Errorf("failed to fetch ad data: %w", errors.Join(errs...))
	}

	log.WithFields(map[string]any{
		"project_id": req.ProjectID,
		"platforms":  platforms,
		"failed":     failed,
		"rows":       len(rows),
	}).Info("Ad data fetched")

	return rows, nil
}

func exportFilename(req ReportRequest, ext string) string {
	name := "pivot"
	if req.ProjectID != 0 {
		name = fmt.Sprintf("pivot_%d", req.ProjectID)
	}
	if req.StartDate != "" || req.EndDate != "" {
		name += fmt.Sprintf("_%s_%s", req.StartDate, req.EndDate)
	}
	return name + "." + ext
}
