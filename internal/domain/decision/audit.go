package decision

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionCreate    = "create"
	ActionSupersede = "supersede"
)

type AuditEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID string         `gorm:"column:workspace_id;not null;index" json:"workspace_id"`
	DecisionID  uuid.UUID      `gorm:"column:decision_id;type:uuid;not null;index" json:"decision_id"`
	Action      string         `gorm:"column:action;not null" json:"action"`
	Actor       string         `gorm:"column:actor;not null" json:"actor"`
	Detail      datatypes.JSON `gorm:"column:detail" json:"detail,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

func (AuditEntry) TableName() string { return "decision_audit" }

// NewAuditEntry builds an entry for action on d. detail may be nil.
func NewAuditEntry(d *Decision, action, actor string, detail map[string]any, at time.Time) (*AuditEntry, error) {
	var raw datatypes.JSON
	if len(detail) > 0 {
		b, err := json.Marshal(detail)
		if err != nil {
			return nil, err
		}
		raw = datatypes.JSON(b)
	}
	return &AuditEntry{
		ID:          uuid.New(),
		WorkspaceID: d.WorkspaceID,
		DecisionID:  d.ID,
		Action:      action,
		Actor:       actor,
		Detail:      raw,
		CreatedAt:   at,
	}, nil
}
