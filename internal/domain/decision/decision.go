package decision

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Decision is a captured team decision. Rows are never deleted; the only
// mutation after creation is the one-way flip of IsSuperseded.
type Decision struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID          string     `gorm:"column:workspace_id;not null;index:idx_decision_workspace_created,priority:1" json:"workspace_id"`
	UserID               string     `gorm:"column:user_id;not null;index" json:"user_id"`
	DecisionText         string     `gorm:"column:decision_text;type:text;not null" json:"decision_text"`
	Rationale            *string    `gorm:"column:rationale;type:text" json:"rationale,omitempty"`
	SourcePlatform       *string    `gorm:"column:source_platform" json:"source_platform,omitempty"`
	SourceLink           *string    `gorm:"column:source_link" json:"source_link,omitempty"`
	IsSuperseded         bool       `gorm:"column:is_superseded;not null;default:false" json:"is_superseded"`
	SupersedesDecisionID *uuid.UUID `gorm:"column:supersedes_decision_id;type:uuid" json:"supersedes_decision_id,omitempty"`
	CreatedAt            time.Time  `gorm:"column:created_at;not null;index:idx_decision_workspace_created,priority:2" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
	// SearchText is SearchKey(DecisionText, Rationale), written once at create.
	SearchText           string     `gorm:"column:search_text;type:text;not null;default:''" json:"-"`
}

func (Decision) TableName() string { return "decision" }

// SearchKey is the lower-cased haystack a search term is matched against.
func SearchKey(text string, rationale *string) string {
	if rationale == nil {
		return strings.ToLower(text)
	}
	return strings.ToLower(text + "\n" + *rationale)
}

// Actor identifies who is acting and in which workspace. It is resolved by the
// transport layer before any core call.
type Actor struct {
	WorkspaceID string
	UserID      string
}

func (a Actor) Validate() error {
	if a.WorkspaceID == "" {
		return Invalid("workspace_id", "is required")
	}
	if a.UserID == "" {
		return Invalid("user_id", "is required")
	}
	return nil
}

// History is a decision together with its direct supersession neighbours.
type History struct {
	Current      *Decision  `json:"current"`
	Supersedes   *Decision  `json:"supersedes"`
	SupersededBy []Decision `json:"superseded_by"`
}

type ListResult struct {
	Decisions []Decision `json:"decisions"`
	Total     int64      `json:"total"`
}
