package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"adintel/internal/domain"
	"adintel/internal/engine"
	"adintel/internal/formula"
	"adintel/internal/usecase"
	"adintel/pkg/logger"

	"github.com/gin-gonic/gin"
)

// handles HTTP requests
type HTTPHandlers struct {
	reports *usecase.ReportService
	configs *usecase.ConfigService
	logger  *logger.Logger
}

// creates new HTTP handlers
func NewHTTPHandlers(
	reports *usecase.ReportService,
	configs *usecase.ConfigService,
	logger *logger.Logger,
) *HTTPHandlers {
	return &HTTPHandlers{
		reports: reports,
		configs: configs,
		logger:  logger,
	}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var apiErr *domain.APIError
	var netErr *domain.NetworkError

	switch {
	case errors.Is(err, usecase.ErrNoDataSource),
		errors.Is(err, usecase.ErrInvalidConfigKind),
		errors.Is(err, usecase.ErrInvalidConfig),
		errors.Is(err, usecase.ErrUnsupportedFormat),
		errors.Is(err, formula.ErrEmpty),
		errors.Is(err, formula.ErrInvalidToken),
		errors.Is(err, formula.ErrSyntax),
		errors.Is(err, formula.ErrUnknownVariable):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr), errors.As(err, &netErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *HTTPHandlers) respondError(c *gin.Context, summary string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error(summary)
	}
	c.Error(err)
	c.JSON(status, gin.H{
		"error":      summary,
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) bindReport(c *gin.Context) (usecase.ReportRequest, bool) {
	var req usecase.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return req, false
	}
	return req, true
}

// Pivot builds a pivot table
func (h *HTTPHandlers) Pivot(c *gin.Context) {
	req, ok := h.bindReport(c)
	if !ok {
		return
	}

	report, err := h.reports.Pivot(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Pivot failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Quality returns the dimension coverage audit
func (h *HTTPHandlers) Quality(c *gin.Context) {
	req, ok := h.bindReport(c)
	if !ok {
		return
	}

	report, err := h.reports.Quality(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Quality audit failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *HTTPHandlers) Dashboard(c *gin.Context) {
	req, ok := h.bindReport(c)
	if !ok {
		return
	}

	report, err := h.reports.Dashboard(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Dashboard failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export streams the flattened pivot as a file; ?format=csv|xlsx, ?formatted=true
func (h *HTTPHandlers) Export(c *gin.Context) {
	req, ok := h.bindReport(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	formatted, _ := strconv.ParseBool(c.Query("formatted"))

	file, err := h.reports.Export(c.Request.Context(), req, format, formatted)
	if err != nil {
		h.respondError(c, "Export failed", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Accounts lists the ad accounts of a project for a date range
func (h *HTTPHandlers) Accounts(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("projectId"))
	if err != nil || projectID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid project id",
			"message":    "projectId must be a positive integer",
			"request_id": c.GetString("request_id"),
		})
		return
	}

	req := usecase.ReportRequest{
		ProjectID: projectID,
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Platforms: c.QueryArray("platform"),
	}

	accounts, err := h.reports.Accounts(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Failed to list accounts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts, "count": len(accounts)})
}

func (h *HTTPHandlers) Projects(c *gin.Context) {
	projects, err := h.reports.Projects(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects, "count": len(projects)})
}

// GetConfig returns a saved config blob; data is null when nothing is saved
func (h *HTTPHandlers) GetConfig(c *gin.Context) {
	kind := domain.ConfigKind(c.Param("kind"))
	data, err := h.configs.Get(c.Request.Context(), c.Query("user"), c.Param("projectId"), kind)
	if err != nil {
		h.respondError(c, "Failed to get config", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "data": data})
}

// SaveConfig stores the request body as the config blob
func (h *HTTPHandlers) SaveConfig(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.respondError(c, "Failed to read body", err)
		return
	}

	kind := domain.ConfigKind(c.Param("kind"))
	issues, err := h.configs.Save(c.Request.Context(), c.Query("user"), c.Param("projectId"), kind, body)
	if err != nil {
		h.respondError(c, "Failed to save config", err)
		return
	}

	if issues == nil {
		issues = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Config saved",
		"kind":       kind,
		"issues":     issues,
		"request_id": c.GetString("request_id"),
	})
}

// Defaults returns the fallback session and pivot with the value keys they offer
func (h *HTTPHandlers) Defaults(c *gin.Context) {
	d := h.configs.Defaults()
	c.JSON(http.StatusOK, gin.H{
		"session":               d.Session,
		"pivot":                 d.Pivot,
		"selectable_value_keys": engine.SelectableValueKeys(engine.BaseKeys(d.Session), d.Session.Formulas),
	})
}

type validateFormulaRequest struct {
	Formula   string `json:"formula" binding:"required"`
	User      string `json:"user"`
	ProjectID string `json:"projectId"`
}

func (h *HTTPHandlers) ValidateFormula(c *gin.Context) {
	var req validateFormulaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return
	}

	vars, err := h.configs.ValidateFormula(c.Request.Context(), req.User, req.ProjectID, req.Formula)
	if err != nil {
		h.respondError(c, "Invalid formula", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "variables": vars})
}

type autoMapRequest struct {
	Headers []string `json:"headers" binding:"required"`
}

func (h *HTTPHandlers) AutoMap(c *gin.Context) {
	var req autoMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return
	}
	c.JSON(http.StatusOK, h.configs.AutoMap(c.Request.Context(), req.Headers))
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "adintel",
		"version":     "1.0.0",
		"description": "Pivot and data-quality reports over Meta and Google ad performance data",
		"endpoints": gin.H{
			"reports": gin.H{
				"pivot":     "POST /api/v1/reports/pivot",
				"quality":   "POST /api/v1/reports/quality",
				"dashboard": "POST /api/v1/reports/dashboard",
				"export":    "POST /api/v1/reports/export?format=csv|xlsx&formatted=true|false",
			},
			"projects": gin.H{
				"list":     "GET /api/v1/projects",
				"accounts": "GET /api/v1/projects/:projectId/accounts?startDate=&endDate=",
			},
			"config": gin.H{
				"get":      "GET /api/v1/config/:projectId/:kind?user=",
				"save":     "PUT /api/v1/config/:projectId/:kind?user=",
				"kinds":    []domain.ConfigKind{domain.ConfigMetrics, domain.ConfigDimensions, domain.ConfigFormulas, domain.ConfigPivotPresets},
			},
			"defaults": "GET /api/v1/defaults",
			"formulas": "POST /api/v1/formulas/validate",
			"mappings": "POST /api/v1/mappings/auto",
		},
		"request_id": c.GetString("request_id"),
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adintel",
		"version":    "1.0.0",
		"request_id": c.GetString("request_id"),
	})
}
