package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/accord-backend/internal/integrations/dispatch"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/platform/logger"
	"github.com/yungbote/accord-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Decision   services.DecisionService
	Audit      services.AuditSink
	Dispatcher *dispatch.Dispatcher
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	sinks := []services.AuditSink{services.NewDBAuditSink(reposet.Audit)}
	if clients.AuditBus != nil {
		sinks = append(sinks, clients.AuditBus)
	}
	audit := services.NewMultiAuditSink(metrics, sinks...)

	decisions := services.NewDecisionService(services.DecisionServiceDeps{
		DB:           db,
		Log:          log,
		Decisions:    reposet.Decision,
		Idempotency:  reposet.Idempotency,
		Audit:        audit,
		Metrics:      metrics,
		MaxListLimit: cfg.ListMaxLimit,
	})

	return Services{
		Auth:     services.NewAuthService(log, cfg.JWTSecretKey, cfg.TokenTTL, cfg.TokenIssuer),
		Decision: decisions,
		Audit:    audit,
		Dispatcher: dispatch.NewDispatcher(dispatch.DispatcherDeps{
			Log:       log,
			Decisions: decisions,
			Metrics:   metrics,
		}),
	}
}
