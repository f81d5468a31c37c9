package infrastructure

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"adintel/internal/domain"
	"adintel/pkg/logger"
	"adintel/pkg/metrics"

	"golang.org/x/time/rate"
)

const (
	adsDataPath     = "/project/adsData/getAllFilterData"
	projectListPath = "/project/project/userReportOption"

	apiAds         = "ads"
	apiConfigStore = "config_store"
)

type HTTPClientOptions struct {
	AdsURL            string
	AdsToken          string
	ClientID          string
	ConfigStoreURL    string
	ConfigStoreSecret string
	Timeout           time.Duration
	// requests per second across both upstreams; 0 means 100
	RateLimit int
}

// implements domain.AdDataClient and domain.ConfigStore
type HTTPClient struct {
	client      *http.Client
	opts        HTTPClientOptions
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// creates a new HTTP client
func NewHTTPClient(opts HTTPClientOptions, logger *logger.Logger, metrics *metrics.Metrics) *HTTPClient {
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 100
	}
	opts.AdsURL = strings.TrimRight(opts.AdsURL, "/")

	return &HTTPClient{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:        opts,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(limit), 10),
	}
}

func adQueryValues(q domain.AdQuery) url.Values {
	values := url.Values{}
	values.Set("projectId", strconv.Itoa(q.ProjectID))
	values.Set("startDate", q.StartDate)
	values.Set("endDate", q.EndDate)
	values.Set("platform", q.Platform)
	for _, id := range q.CampaignIDs {
		values.Add("filterCampaignIdList", id)
	}
	for _, id := range q.AccountIDs {
		values.Add("filterAccountIdList", id)
	}
	for _, seg := range q.Segments {
		values.Add("segment", seg)
	}
	return values
}

// fetches one platform's ad rows; no retry
func (c *HTTPClient) FetchAdData(ctx context.Context, query domain.AdQuery) ([]domain.APIAdRow, error) {
	endpoint := c.opts.AdsURL + adsDataPath + "?" + adQueryValues(query).Encode()

	var envelope domain.APIResponse
	duration, err := c.getJSON(ctx, apiAds, endpoint, &envelope)
	if err != nil {
		return nil, err
	}

	if envelope.Code != http.StatusOK {
		c.metrics.RecordExternalAPIFailure(apiAds, "envelope_code")
		return nil, &domain.APIError{API: apiAds, StatusCode: http.StatusOK, Code: envelope.Code, Message: envelope.Msg}
	}

	c.metrics.RecordExternalAPICall(apiAds, "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": query.ProjectID,
		"platform":   query.Platform,
		"start_date": query.StartDate,
		"end_date":   query.EndDate,
		"duration":   duration,
		"records":    len(envelope.Data),
	}).Info("Successfully fetched ads data")

	if envelope.Data == nil {
		return []domain.APIAdRow{}, nil
	}
	return envelope.Data, nil
}

// fetches the projects the token may report on
func (c *HTTPClient) FetchProjects(ctx context.Context) ([]domain.Project, error) {
	var envelope domain.ProjectListResponse
	duration, err := c.getJSON(ctx, apiAds, c.opts.AdsURL+projectListPath, &envelope)
	if err != nil {
		return nil, err
	}

	if envelope.Code != http.StatusOK {
		c.metrics.RecordExternalAPIFailure(apiAds, "envelope_code")
		return nil, &domain.APIError{API: apiAds, StatusCode: http.StatusOK, Code: envelope.Code, Message: envelope.Msg}
	}

	c.metrics.RecordExternalAPICall(apiAds, "success", duration)

	projects := envelope.Data.ProjectList
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

// performs an authenticated GET against the ads API and decodes the body into out
func (c *HTTPClient) getJSON(ctx context.Context, api, endpoint string, out any) (time.Duration, error) {
	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure(api, "rate_limit")
		return 0, fmt.Errorf("rate limit exceeded: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "request_creation")
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.opts.AdsToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.AdsToken)
	}
	if c.opts.ClientID != "" {
		req.Header.Set("clientid", c.opts.ClientID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "network_error")
		return 0, &domain.NetworkError{API: api, Err: err}
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordExternalAPICall(api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return duration, &domain.APIError{API: api, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "read_body")
		return duration, &domain.NetworkError{API: api, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.RecordExternalAPIFailure(api, "json_parse")
		return duration, fmt.Errorf("failed to parse %s response: %w", api, err)
	}

	return duration, nil
}

// generates HMAC-SHA256 signature for the payload
func (c *HTTPClient) generateHMACSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(c.opts.ConfigStoreSecret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
