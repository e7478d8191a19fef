package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/accord-backend/internal/data/repos/decision"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type DecisionRepo = decision.DecisionRepo
type AuditRepo = decision.AuditRepo
type IdempotencyRepo = decision.IdempotencyRepo

func NewDecisionRepo(db *gorm.DB, baseLog *logger.Logger) DecisionRepo {
	return decision.NewDecisionRepo(db, baseLog)
}
func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	return decision.NewAuditRepo(db, baseLog)
}
func NewIdempotencyRepo(db *gorm.DB, baseLog *logger.Logger) IdempotencyRepo {
	return decision.NewIdempotencyRepo(db, baseLog)
}
