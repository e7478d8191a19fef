package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/http"
	httpH "github.com/yungbote/accord-backend/internal/http/handlers"
	httpMW "github.com/yungbote/accord-backend/internal/http/middleware"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Decision *httpH.DecisionHandler
	Dispatch *httpH.DispatchHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Auth:     httpH.NewAuthHandler(log, services.Auth),
		Decision: httpH.NewDecisionHandler(httpH.DecisionHandlerDeps{Log: log, Decisions: services.Decision}),
		Dispatch: httpH.NewDispatchHandler(log, services.Dispatcher),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.CORSOrigins,
		TracingEnabled:  cfg.OtelEnabled,
		ServiceName:     cfg.ServiceName,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		DecisionHandler: handlers.Decision,
		DispatchHandler: handlers.Dispatch,
	})
}
