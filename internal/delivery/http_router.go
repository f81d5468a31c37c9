package delivery

import (
	"time"

	"adintel/internal/delivery/middleware"
	"adintel/pkg/logger"
	"adintel/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPRouter struct {
	handlers *HTTPHandlers
	logger   *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer, timeout time.Duration) *HTTPRouter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRouter{
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
		timeout:  timeout,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.timeout))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}

	router.Use(cors.New(config))

	router.GET("/health", r.handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		reports := v1.Group("/reports")
		{
			reports.POST("/pivot", r.handlers.Pivot)
			reports.POST("/quality", r.handlers.Quality)
			reports.POST("/dashboard", r.handlers.Dashboard)
			reports.POST("/export", r.handlers.Export)
		}

		projects := v1.Group("/projects")
		{
			projects.GET("", r.handlers.Projects)
			projects.GET("/:projectId/accounts", r.handlers.Accounts)
		}

		configs := v1.Group("/config")
		{
			configs.GET("/:projectId/:kind", r.handlers.GetConfig)
			configs.PUT("/:projectId/:kind", r.handlers.SaveConfig)
		}

		v1.GET("/defaults", r.handlers.Defaults)
		v1.POST("/formulas/validate", r.handlers.ValidateFormula)
		v1.POST("/mappings/auto", r.handlers.AutoMap)
	}

	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	return router
}
