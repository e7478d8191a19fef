package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/accord-backend/internal/http/handlers"
	httpMW "github.com/yungbote/accord-backend/internal/http/middleware"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	TracingEnabled bool
	ServiceName    string

	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	DecisionHandler *httpH.DecisionHandler
	DispatchHandler *httpH.DispatchHandler

	HealthHandler *httpH.HealthHandler
}

const (
	routeHealth  = "/health"
	routeMetrics = "/metrics"
)

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, routeHealth, routeMetrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics, routeMetrics))

	if cfg.HealthHandler != nil {
		r.GET(routeHealth, cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET(routeMetrics, gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Decisions
		if cfg.DecisionHandler != nil {
			protected.POST("/decisions", cfg.DecisionHandler.CreateDecision)
			protected.GET("/decisions", cfg.DecisionHandler.ListDecisions)
			protected.GET("/decisions/:id", cfg.DecisionHandler.GetDecision)
			protected.GET("/decisions/:id/history", cfg.DecisionHandler.GetHistory)
			protected.POST("/decisions/:id/supersede", cfg.DecisionHandler.SupersedeDecision)
		}

		// Integrations
		if cfg.DispatchHandler != nil {
			protected.POST("/dispatch", cfg.DispatchHandler.Dispatch)
		}
	}

	return r
}
