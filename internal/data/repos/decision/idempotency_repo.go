package decision

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/pkg/dbctx"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

// ErrKeyTaken means another request already recorded the same idempotency key.
var ErrKeyTaken = errors.New("idempotency key already recorded")

type IdempotencyRepo interface {
	// Get returns nil, nil when the key has not been recorded.
	Get(dbc dbctx.Context, workspaceID, userID, key string) (*types.IdempotencyRecord, error)
	Create(dbc dbctx.Context, rec *types.IdempotencyRecord) error
}

type idempotencyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdempotencyRepo(db *gorm.DB, baseLog *logger.Logger) IdempotencyRepo {
	repoLog := baseLog.With("repo", "IdempotencyRepo")
	return &idempotencyRepo{db: db, log: repoLog}
}

func (r *idempotencyRepo) Get(dbc dbctx.Context, workspaceID, userID, key string) (*types.IdempotencyRecord, error) {
	var rec types.IdempotencyRecord
	err := dbc.Conn(r.db).
		Where("workspace_id = ? AND user_id = ? AND idempotency_key = ?", workspaceID, userID, key).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, types.Storage("get idempotency key", err)
	}
	return &rec, nil
}

func (r *idempotencyRepo) Create(dbc dbctx.Context, rec *types.IdempotencyRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if err := dbc.Conn(r.db).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrKeyTaken
		}
		return types.Storage("record idempotency key", err)
	}
	return nil
}
