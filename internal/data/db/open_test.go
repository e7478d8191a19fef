package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	gdb, err := Open(testLogger(t), Config{
		Driver:     DriverSQLite,
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, AutoMigrateAll(gdb))
	// Idempotent.
	require.NoError(t, AutoMigrateAll(gdb))

	assert.True(t, gdb.Migrator().HasTable("decision"))
	assert.True(t, gdb.Migrator().HasTable("decision_audit"))
	assert.True(t, gdb.Migrator().HasTable("decision_idempotency"))
	assert.True(t, gdb.Migrator().HasIndex("decision", "uq_decision_supersedes"))
}

func TestBackfillSearchTextFillsLegacyRows(t *testing.T) {
	gdb, err := Open(testLogger(t), Config{
		Driver:     DriverSQLite,
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, AutoMigrateAll(gdb))

	why := "ÄRGER vermeiden"
	now := time.Now().UTC()
	legacy := decision.Decision{
		ID:           uuid.New(),
		WorkspaceID:  "w1",
		UserID:       "u1",
		DecisionText: "Übernehmen",
		Rationale:    &why,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, gdb.Create(&legacy).Error)

	require.NoError(t, BackfillSearchText(gdb))

	var got decision.Decision
	require.NoError(t, gdb.Where("id = ?", legacy.ID).Take(&got).Error)
	assert.Equal(t, decision.SearchKey(legacy.DecisionText, legacy.Rationale), got.SearchText)
	assert.True(t, got.UpdatedAt.Equal(now))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(testLogger(t), Config{Driver: "oracle"})
	assert.Error(t, err)

	_, err = Open(testLogger(t), Config{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	assert.Equal(t,
		"postgres://accord:pw@db:5432/accord?sslmode=disable",
		PostgresDSN("db", "5432", "accord", "pw", "accord", ""),
	)
}
