package decision

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/pkg/dbctx"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type AuditRepo interface {
	Create(dbc dbctx.Context, entry *types.AuditEntry) error
	ListByDecision(dbc dbctx.Context, workspaceID string, decisionID uuid.UUID) ([]types.AuditEntry, error)
}

type auditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	repoLog := baseLog.With("repo", "AuditRepo")
	return &auditRepo{db: db, log: repoLog}
}

func (r *auditRepo) Create(dbc dbctx.Context, entry *types.AuditEntry) error {
	if entry == nil {
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := dbc.Conn(r.db).Create(entry).Error; err != nil {
		return types.Storage("create audit entry", err)
	}
	return nil
}

func (r *auditRepo) ListByDecision(dbc dbctx.Context, workspaceID string, decisionID uuid.UUID) ([]types.AuditEntry, error) {
	results := []types.AuditEntry{}
	if err := dbc.Conn(r.db).
		Where("workspace_id = ? AND decision_id = ?", workspaceID, decisionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, types.Storage("list audit entries", err)
	}
	return results, nil
}
