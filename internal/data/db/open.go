package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/accord-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver          string
	DSN             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

// gormWriter routes gorm's own log lines through the service logger.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func gormConfig(log *logger.Logger, slow time.Duration) *gorm.Config {
	if slow <= 0 {
		slow = time.Second
	}
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		Logger: gormLogger.New(gormWriter{log: log}, gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}
}

// Open connects to the configured driver and applies pool settings. It does
// not migrate.
func Open(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	dbLog := log.With("service", "Database", "driver", cfg.Driver)

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("postgres dsn is empty")
		}
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "file:accord?mode=memory&cache=shared"
		}
		dialector = sqlite.Open(path)
		// sqlite serialises writers; one connection avoids SQLITE_BUSY under load.
		cfg.MaxOpenConns = 1
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, gormConfig(dbLog, cfg.SlowThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	dbLog.Info("database connected")
	return gdb, nil
}

// PostgresDSN assembles a DSN from discrete connection settings.
func PostgresDSN(host, port, user, password, name, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
}
