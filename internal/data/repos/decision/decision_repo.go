package decision

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/pkg/dbctx"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type DecisionRepo interface {
	Create(dbc dbctx.Context, d *types.Decision) (*types.Decision, error)
	GetByID(dbc dbctx.Context, id uuid.UUID, workspaceID string) (*types.Decision, error)
	LockByID(dbc dbctx.Context, id uuid.UUID, workspaceID string) (*types.Decision, error)
	List(dbc dbctx.Context, workspaceID string, filter types.ListFilter) ([]types.Decision, int64, error)
	MarkSuperseded(dbc dbctx.Context, id uuid.UUID, workspaceID string, at time.Time) error
	FlagSuperseded(dbc dbctx.Context, id uuid.UUID, workspaceID string, at time.Time) error
	ListSupersededBy(dbc dbctx.Context, id uuid.UUID, workspaceID string) ([]types.Decision, error)
}

type decisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDecisionRepo(db *gorm.DB, baseLog *logger.Logger) DecisionRepo {
	repoLog := baseLog.With("repo", "DecisionRepo")
	return &decisionRepo{db: db, log: repoLog}
}

func (r *decisionRepo) Create(dbc dbctx.Context, d *types.Decision) (*types.Decision, error) {
	if d == nil {
		return nil, types.Invalid("decision", "is required")
	}
	if d.WorkspaceID == "" {
		return nil, types.Invalid("workspace_id", "is required")
	}
	d.SearchText = types.SearchKey(d.DecisionText, d.Rationale)
	if err := dbc.Conn(r.db).Create(d).Error; err != nil {
		if d.SupersedesDecisionID != nil && isUniqueViolation(err) {
			return nil, types.ErrAlreadySuperseded
		}
		return nil, types.Storage("create decision", err)
	}
	return d, nil
}

func (r *decisionRepo) GetByID(dbc dbctx.Context, id uuid.UUID, workspaceID string) (*types.Decision, error) {
	return r.get(dbc.Conn(r.db), id, workspaceID)
}

// LockByID is GetByID under SELECT ... FOR UPDATE. It must run inside a
// transaction.
func (r *decisionRepo) LockByID(dbc dbctx.Context, id uuid.UUID, workspaceID string) (*types.Decision, error) {
	if !dbc.InTx() {
		return nil, fmt.Errorf("LockByID requires a transaction")
	}
	q := dbc.Conn(r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.get(q, id, workspaceID)
}

func (r *decisionRepo) get(q *gorm.DB, id uuid.UUID, workspaceID string) (*types.Decision, error) {
	if workspaceID == "" || id == uuid.Nil {
		return nil, types.ErrNotFound
	}
	var d types.Decision
	err := q.Where("id = ? AND workspace_id = ?", id, workspaceID).Take(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, types.Storage("get decision", err)
	}
	return &d, nil
}

func (r *decisionRepo) List(dbc dbctx.Context, workspaceID string, filter types.ListFilter) ([]types.Decision, int64, error) {
	if workspaceID == "" {
		return []types.Decision{}, 0, nil
	}
	f := filter.Normalize()

	base := applyFilter(
		dbc.Conn(r.db).Model(&types.Decision{}).Where("workspace_id = ?", workspaceID),
		f,
	).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, types.Storage("count decisions", err)
	}

	results := []types.Decision{}
	if total == 0 || int64(f.Offset) >= total {
		return results, total, nil
	}
	if err := base.
		Order("created_at DESC").
		Order("id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&results).Error; err != nil {
		return nil, 0, types.Storage("list decisions", err)
	}
	return results, total, nil
}

// applyFilter compiles a normalised filter into bound WHERE clauses. User
// input only ever reaches the query as parameters.
func applyFilter(q *gorm.DB, f types.ListFilter) *gorm.DB {
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		q = q.Where(`search_text LIKE ? ESCAPE '\'`, pattern)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.IsSuperseded != nil {
		q = q.Where("is_superseded = ?", *f.IsSuperseded)
	}
	if f.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		q = q.Where("created_at < ?", *f.CreatedBefore)
	}
	return q
}

func (r *decisionRepo) flip(dbc dbctx.Context, id uuid.UUID, workspaceID string, at time.Time) (int64, error) {
	res := dbc.Conn(r.db).
		Model(&types.Decision{}).
		Where("id = ? AND workspace_id = ? AND is_superseded = ?", id, workspaceID, false).
		Updates(map[string]interface{}{
			"is_superseded": true,
			"updated_at":    at,
		})
	if res.Error != nil {
		return 0, types.Storage("flag superseded", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkSuperseded sets the flag if it is not already set. Re-marking is a no-op.
func (r *decisionRepo) MarkSuperseded(dbc dbctx.Context, id uuid.UUID, workspaceID string, at time.Time) error {
	n, err := r.flip(dbc, id, workspaceID, at)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.GetByID(dbc, id, workspaceID)
	return err
}

// FlagSuperseded is the guarded flip used by supersession: it succeeds only
// for the caller that moves the row from false to true.
func (r *decisionRepo) FlagSuperseded(dbc dbctx.Context, id uuid.UUID, workspaceID string, at time.Time) error {
	n, err := r.flip(dbc, id, workspaceID, at)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(dbc, id, workspaceID); err != nil {
		return err
	}
	return types.ErrAlreadySuperseded
}

func (r *decisionRepo) ListSupersededBy(dbc dbctx.Context, id uuid.UUID, workspaceID string) ([]types.Decision, error) {
	results := []types.Decision{}
	if err := dbc.Conn(r.db).
		Where("supersedes_decision_id = ? AND workspace_id = ?", id, workspaceID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, types.Storage("list superseded by", err)
	}
	return results, nil
}
