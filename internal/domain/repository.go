package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// interface for the ads data API
type AdDataClient interface {
	FetchAdData(ctx context.Context, query AdQuery) ([]APIAdRow, error)
	FetchProjects(ctx context.Context) ([]Project, error)
}

type ConfigKind string

const (
	ConfigMetrics      ConfigKind = "metrics"
	ConfigDimensions   ConfigKind = "dimensions"
	ConfigFormulas     ConfigKind = "formulas"
	ConfigPivotPresets ConfigKind = "pivotPresets"
)

// Valid reports whether k is a persisted config kind.
func (k ConfigKind) Valid() bool {
	switch k {
	case ConfigMetrics, ConfigDimensions, ConfigFormulas, ConfigPivotPresets:
		return true
	}
	return false
}

// the interface for the spreadsheet-backed config store
type ConfigStore interface {
	GetConfig(ctx context.Context, user, projectID string, kind ConfigKind) (json.RawMessage, error)
	SaveConfig(ctx context.Context, user, projectID string, kind ConfigKind, data json.RawMessage) error
}

// interface for the local config cache
type ConfigRepository interface {
	Get(ctx context.Context, user, projectID string, kind ConfigKind) (json.RawMessage, bool)
	Put(ctx context.Context, user, projectID string, kind ConfigKind, data json.RawMessage) error
	Invalidate(ctx context.Context, user, projectID string)
}

// interface for table export
type Exporter interface {
	Export(w io.Writer, m Matrix) error
	ContentType() string
	Extension() string
}

// APIError is a non-success answer from an upstream API.
type APIError struct {
	API        string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error (status %d, code %d): %s", e.API, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s API returned status %d", e.API, e.StatusCode)
}

// NetworkError is a transport failure talking to an upstream API.
type NetworkError struct {
	API string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.API, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
