package decision

import (
	"time"

	"github.com/google/uuid"
)

const (
	OperationCreate    = "create"
	OperationSupersede = "supersede"
)

// IdempotencyRecord remembers which decision a client-supplied key produced.
type IdempotencyRecord struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID string     `gorm:"column:workspace_id;not null;uniqueIndex:uq_decision_idempotency_key,priority:1" json:"workspace_id"`
	UserID      string     `gorm:"column:user_id;not null;uniqueIndex:uq_decision_idempotency_key,priority:2" json:"user_id"`
	Key         string     `gorm:"column:idempotency_key;not null;uniqueIndex:uq_decision_idempotency_key,priority:3" json:"key"`
	Operation   string     `gorm:"column:operation;not null" json:"operation"`
	TargetID    *uuid.UUID `gorm:"column:target_id;type:uuid" json:"target_id,omitempty"`
	DecisionID  uuid.UUID  `gorm:"column:decision_id;type:uuid;not null" json:"decision_id"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
}

func (IdempotencyRecord) TableName() string { return "decision_idempotency" }

// SameRequest reports whether a replay with operation and target refers to
// the request that produced r.
func (r *IdempotencyRecord) SameRequest(operation string, target *uuid.UUID) bool {
	if r.Operation != operation {
		return false
	}
	if (r.TargetID == nil) != (target == nil) {
		return false
	}
	return target == nil || *r.TargetID == *target
}
