package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"adintel/internal/domain"
	"adintel/internal/engine"
	"adintel/internal/formula"
	"adintel/pkg/logger"
	"adintel/pkg/metrics"
)

var (
	ErrInvalidConfigKind = errors.New("invalid config kind")
	ErrInvalidConfig     = errors.New("invalid config payload")
)

// ConfigService handles the per-user persisted configuration: column
// mappings, dimension definitions, formulas and pivot presets.
type ConfigService struct {
	store    domain.ConfigStore
	cache    domain.ConfigRepository
	defaults Defaults
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewConfigService creates a new config service. A nil store keeps saved
// configs in the cache only.
func NewConfigService(
	store domain.ConfigStore,
	cache domain.ConfigRepository,
	defaults Defaults,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *ConfigService {
	return &ConfigService{
		store:    store,
		cache:    cache,
		defaults: defaults,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *ConfigService) Defaults() Defaults {
	return s.defaults
}

// Get returns the saved config blob, or nil when nothing is saved.
func (s *ConfigService) Get(ctx context.Context, user, projectID string, kind domain.ConfigKind) (json.RawMessage, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidConfigKind, kind)
	}

	if data, ok := s.cache.Get(ctx, user, projectID, kind); ok {
		s.metrics.RecordConfigCache(true)
		return data, nil
	}
	s.metrics.RecordConfigCache(false)

	if s.store == nil {
		return nil, nil
	}

	data, err := s.store.GetConfig(ctx, user, projectID, kind)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"project_id": projectID,
			"kind":       kind,
		}).Error("Failed to get config from store")
		return nil, fmt.Errorf("failed to get %s config: %w", kind, err)
	}

	if data != nil {
		s.cache.Put(ctx, user, projectID, kind, data)
	}
	return data, nil
}

// Save validates and stores a config blob. The returned issues list entries
// that the session loader will drop or default; they do not block saving.
func (s *ConfigService) Save(ctx context.Context, user, projectID string, kind domain.ConfigKind, data json.RawMessage) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidConfigKind, kind)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: not JSON", ErrInvalidConfig)
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"kind":       kind,
	})

	issues := s.check(ctx, user, projectID, kind, data)
	if len(issues) > 0 {
		log.WithField("issues", issues).Warn("Saving config with invalid entries")
	}

	if s.store != nil {
		if err := s.store.SaveConfig(ctx, user, projectID, kind, data); err != nil {
			log.WithError(err).Error("Failed to save config to store")
			return issues, fmt.Errorf("failed to save %s config: %w", kind, err)
		}
	}

	if err := s.cache.Put(ctx, user, projectID, kind, data); err != nil {
		return issues, fmt.Errorf("failed to cache %s config: %w", kind, err)
	}

	log.Info("Config saved")
	return issues, nil
}

func (s *ConfigService) check(ctx context.Context, user, projectID string, kind domain.ConfigKind, data json.RawMessage) []string {
	switch kind {
	case domain.ConfigMetrics:
		_, issues := engine.DecodeMappings(data)
		return issues
	case domain.ConfigDimensions:
		_, issues := engine.DecodeDimensions(data)
		return issues
	case domain.ConfigFormulas:
		sess := s.Session(ctx, user, projectID)
		formulas, issues := engine.DecodeFormulas(data, engine.BaseKeys(sess))
		known := engine.BaseKeys(sess)
		for _, f := range formulas {
			if err := formula.Validate(f.Formula, known); err != nil {
				issues = append(issues, fmt.Sprintf("formula %q: %v", f.Name, err))
			}
		}
		return issues
	}
	return nil
}

// Session assembles the user's configuration. Missing or unreadable parts
// fall back to the defaults; dropped entries are logged and counted.
func (s *ConfigService) Session(ctx context.Context, user, projectID string) domain.Session {
	log := s.logger.WithContext(ctx).WithField("project_id", projectID)
	sess := s.defaults.Session

	load := func(kind domain.ConfigKind) json.RawMessage {
		data, err := s.Get(ctx, user, projectID, kind)
		if err != nil {
			log.WithError(err).WithField("kind", kind).Warn("Using default config")
			return nil
		}
		return data
	}

	report := func(kind domain.ConfigKind, issues []string) {
		if len(issues) == 0 {
			return
		}
		s.metrics.RecordConfigIssues(string(kind), len(issues))
		log.WithFields(map[string]any{
			"kind":   kind,
			"issues": issues,
		}).Warn("Dropped invalid config entries")
	}

	if raw := load(domain.ConfigMetrics); raw != nil {
		var issues []string
		sess.Mappings, issues = engine.DecodeMappings(raw)
		report(domain.ConfigMetrics, issues)
	}

	if raw := load(domain.ConfigDimensions); raw != nil {
		var issues []string
		sess.Dimensions, issues = engine.DecodeDimensions(raw)
		report(domain.ConfigDimensions, issues)
	}

	if raw := load(domain.ConfigFormulas); raw != nil {
		var issues []string
		sess.Formulas, issues = engine.DecodeFormulas(raw, engine.BaseKeys(sess))
		report(domain.ConfigFormulas, issues)
	}

	return sess
}

// ValidateFormula checks a formula against the user's metric keys before it
// is saved.
func (s *ConfigService) ValidateFormula(ctx context.Context, user, projectID, src string) (vars []string, err error) {
	known := engine.BaseKeys(s.Session(ctx, user, projectID))
	if err := formula.Validate(src, known); err != nil {
		return nil, err
	}
	expr, err := formula.Compile(src)
	if err != nil {
		return nil, err
	}
	return expr.Variables(), nil
}

// AutoMap proposes column mappings for the headers of an uploaded file.
func (s *ConfigService) AutoMap(ctx context.Context, headers []string) domain.MappingSet {
	set := engine.AutoMap(headers)

	mapped := 0
	for _, col := range set.Facebook.Metrics {
		if col != "" {
			mapped++
		}
	}
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"headers":        len(headers),
		"mapped_metrics": mapped,
	}).Info("Auto-mapped headers")

	return set
}

func projectKey(id int) string {
	return strconv.Itoa(id)
}
