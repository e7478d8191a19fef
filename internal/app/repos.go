package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/accord-backend/internal/data/repos"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type Repos struct {
	Decision    repos.DecisionRepo
	Audit       repos.AuditRepo
	Idempotency repos.IdempotencyRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Decision:    repos.NewDecisionRepo(db, log),
		Audit:       repos.NewAuditRepo(db, log),
		Idempotency: repos.NewIdempotencyRepo(db, log),
	}
}
