package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/accord-backend/internal/domain/decision"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&decision.Decision{},
		&decision.AuditEntry{},
		&decision.IdempotencyRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := EnsureDecisionIndexes(db); err != nil {
		return err
	}
	return BackfillSearchText(db)
}

// BackfillSearchText fills search_text for rows written before the column
// existed.
func BackfillSearchText(db *gorm.DB) error {
	var rows []decision.Decision
	res := db.Model(&decision.Decision{}).
		Select("id", "decision_text", "rationale").
		Where("search_text = ?", "").
		FindInBatches(&rows, 500, func(_ *gorm.DB, _ int) error {
			for i := range rows {
				key := decision.SearchKey(rows[i].DecisionText, rows[i].Rationale)
				if err := db.Model(&decision.Decision{}).
					Where("id = ?", rows[i].ID).
					UpdateColumn("search_text", key).Error; err != nil {
					return err
				}
			}
			return nil
		})
	if res.Error != nil {
		return fmt.Errorf("backfill search_text: %w", res.Error)
	}
	return nil
}

// EnsureDecisionIndexes creates the indexes gorm tags cannot express. Both
// statements are valid on Postgres and SQLite.
func EnsureDecisionIndexes(db *gorm.DB) error {
	// A decision can be directly superseded at most once.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_decision_supersedes
		ON decision (supersedes_decision_id)
		WHERE supersedes_decision_id IS NOT NULL;
	`).Error; err != nil {
		return fmt.Errorf("create uq_decision_supersedes: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_decision_workspace_superseded
		ON decision (workspace_id, is_superseded, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_decision_workspace_superseded: %w", err)
	}
	return nil
}
