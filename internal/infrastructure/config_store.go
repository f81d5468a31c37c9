package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"adintel/internal/domain"
)

var ErrConfigStoreDisabled = errors.New("config store URL not configured")

type configStoreReply struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type configStorePayload struct {
	User      string            `json:"user"`
	ProjectID string            `json:"projectId"`
	Type      domain.ConfigKind `json:"type"`
	Data      json.RawMessage   `json:"data"`
}

// GetConfig reads one persisted config blob. A store answer other than
// status "success" means nothing is saved and returns nil data.
func (c *HTTPClient) GetConfig(ctx context.Context, user, projectID string, kind domain.ConfigKind) (json.RawMessage, error) {
	if c.opts.ConfigStoreURL == "" {
		return nil, ErrConfigStoreDisabled
	}

	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "rate_limit")
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	values := url.Values{}
	values.Set("action", "getConfig")
	values.Set("user", user)
	values.Set("projectId", projectID)
	values.Set("type", string(kind))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.ConfigStoreURL+"?"+values.Encode(), nil)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "request_creation")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	reply, err := c.doConfigStore(req, start)
	if err != nil {
		return nil, err
	}

	if reply.Status != "success" || isJSONNull(reply.Data) {
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"project_id": projectID,
			"kind":       kind,
			"status":     reply.Status,
		}).Debug("No saved config in store")
		return nil, nil
	}

	return reply.Data, nil
}

// SaveConfig writes one config blob as a text/plain JSON body, signed with
// X-Signature when a secret is configured.
func (c *HTTPClient) SaveConfig(ctx context.Context, user, projectID string, kind domain.ConfigKind, data json.RawMessage) error {
	if c.opts.ConfigStoreURL == "" {
		return ErrConfigStoreDisabled
	}

	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "rate_limit")
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	payload, err := json.Marshal(configStorePayload{User: user, ProjectID: projectID, Type: kind, Data: data})
	if err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "json_marshal")
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.ConfigStoreURL, bytes.NewReader(payload))
	if err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "request_creation")
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	if c.opts.ConfigStoreSecret != "" {
		req.Header.Set("X-Signature", c.generateHMACSignature(payload))
	}

	reply, err := c.doConfigStore(req, start)
	if err != nil {
		return err
	}

	if reply.Status != "success" {
		return &domain.APIError{API: apiConfigStore, StatusCode: http.StatusOK, Message: reply.Message}
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"kind":       kind,
		"bytes":      len(payload),
	}).Info("Saved config to store")

	return nil
}

func (c *HTTPClient) doConfigStore(req *http.Request, start time.Time) (*configStoreReply, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "network_error")
		return nil, &domain.NetworkError{API: apiConfigStore, Err: err}
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordExternalAPICall(apiConfigStore, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, &domain.APIError{API: apiConfigStore, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "read_body")
		return nil, &domain.NetworkError{API: apiConfigStore, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var reply configStoreReply
	if err := json.Unmarshal(body, &reply); err != nil {
		c.metrics.RecordExternalAPIFailure(apiConfigStore, "json_parse")
		return nil, fmt.Errorf("failed to parse config store response: %w", err)
	}

	c.metrics.RecordExternalAPICall(apiConfigStore, "success", duration)
	return &reply, nil
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
