package testutil

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/accord-backend/internal/data/db"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}
}

// DB returns the shared Postgres database when TEST_POSTGRES_DSN is set and a
// fresh in-memory SQLite database otherwise. Tests isolate themselves by
// using unique workspace ids (see Workspace).
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		return SQLite(tb)
	}
	pgOnce.Do(func() {
		pgDB, pgErr = gorm.Open(postgres.Open(dsn), gormConfig())
		if pgErr != nil {
			return
		}
		pgErr = db.AutoMigrateAll(pgDB)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

// SQLite always returns a private in-memory SQLite database, so callers may
// register gorm callbacks on it without affecting other tests.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return gdb
}

func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// Workspace returns a workspace id no other test uses.
func Workspace() string {
	return "ws-" + uuid.NewString()
}

// Clock hands out strictly increasing UTC timestamps, one second apart.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}
