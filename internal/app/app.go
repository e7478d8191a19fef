package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/accord-backend/internal/data/db"
	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/http"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	server       *http.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode,
		logger.WithLevel(cfg.LogLevel),
		logger.WithRedaction(cfg.LogRedaction),
		logger.WithHashSalt(cfg.LogHashSalt),
	)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.isProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown, err := observability.SetupTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Exporter:    cfg.OtelExporter,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     cfg.OtelHeaders,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	}

	theDB, err := db.Open(log, cfg.DBConfig())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	sqlDB, err := theDB.DB()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("database handle: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics(cfg.MetricsNamespace)
		if err := metrics.RegisterDBStats(sqlDB, cfg.DBDriver); err != nil {
			log.Warn("db stats collector not registered", "error", err)
		}
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		// Redis is optional; decisions are still audited to the database.
		log.Warn("continuing without redis audit bus", "error", err)
		clients = Clients{}
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, serviceset, sqlDB)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		server:       &http.Server{Engine: router},
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// within Cfg.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("Server listening", "addr", a.Cfg.Addr())
		return a.server.Run(a.Cfg.Addr())
	})

	if a.Cfg.AuditTail && a.Clients.AuditBus != nil {
		err := a.Clients.AuditBus.StartForwarder(gctx, func(e decision.AuditEntry) {
			a.Log.Info("decision audit", "action", e.Action, "decision_id", e.DecisionID.String(), "workspace_id", e.WorkspaceID)
		})
		if err != nil {
			a.Log.Warn("audit tail not started", "error", err)
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		a.Log.Info("Shutting down server")
		if err := a.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
