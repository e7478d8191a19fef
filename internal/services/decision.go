package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/accord-backend/internal/data/repos"
	repodecision "github.com/yungbote/accord-backend/internal/data/repos/decision"
	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/pkg/dbctx"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

// DecisionService is the only component allowed to change the superseded
// relationship between decisions.
type DecisionService interface {
	Create(ctx context.Context, actor decision.Actor, in decision.NewDecision) (*decision.Decision, error)
	Get(ctx context.Context, workspaceID, id string) (*decision.Decision, error)
	List(ctx context.Context, workspaceID string, filter decision.ListFilter) (*decision.ListResult, error)
	History(ctx context.Context, workspaceID, id string) (*decision.History, error)
	Supersede(ctx context.Context, actor decision.Actor, originalID string, in decision.NewDecision) (*decision.Decision, error)
}

type DecisionServiceDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Decisions   repos.DecisionRepo
	Idempotency repos.IdempotencyRepo
	Audit       AuditSink
	Metrics     *observability.Metrics
	// MaxListLimit lowers decision.MaxListLimit when positive.
	MaxListLimit int
	// Now defaults to the wall clock.
	Now func() time.Time
}

type decisionService struct {
	db          *gorm.DB
	log         *logger.Logger
	decisions   repos.DecisionRepo
	idempotency repos.IdempotencyRepo
	audit       AuditSink
	metrics     *observability.Metrics
	maxLimit    int
	now         func() time.Time
	tracer      trace.Tracer
}

func NewDecisionService(deps DecisionServiceDeps) DecisionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &decisionService{
		db:          deps.DB,
		log:         deps.Log.With("service", "DecisionService"),
		decisions:   deps.Decisions,
		idempotency: deps.Idempotency,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		maxLimit:    deps.MaxListLimit,
		now:         now,
		tracer:      observability.Tracer(),
	}
}

// timestamp is UTC at microsecond precision so values survive a Postgres
// round trip unchanged.
func (s *decisionService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *decisionService) start(ctx context.Context, op, workspaceID string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "DecisionService."+op,
		trace.WithAttributes(attribute.String("accord.workspace_id", workspaceID)),
	)
	return ctx, span, time.Now()
}

func (s *decisionService) finish(span trace.Span, op string, began time.Time, err error) {
	outcome := decision.Outcome(err)
	if err != nil {
		span.RecordError(err)
		if outcome == "storage" {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.SetAttributes(attribute.String("accord.outcome", outcome))
	span.End()
	s.metrics.ObserveDecisionOp(op, outcome, time.Since(began))
}

// parseID maps malformed ids to ErrNotFound: a string that cannot name a
// decision names no decision.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || parsed == uuid.Nil {
		return uuid.Nil, decision.ErrNotFound
	}
	return parsed, nil
}

func requireWorkspace(workspaceID string) error {
	if strings.TrimSpace(workspaceID) == "" {
		return decision.Invalid("workspace_id", "is required")
	}
	return nil
}

func (s *decisionService) Create(ctx context.Context, actor decision.Actor, in decision.NewDecision) (out *decision.Decision, err error) {
	ctx, span, began := s.start(ctx, "create", actor.WorkspaceID)
	defer func() { s.finish(span, "create", began, err) }()

	if err := actor.Validate(); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if prior, err := s.replay(ctx, actor, key, decision.OperationCreate, nil); err != nil || prior != nil {
			return prior, err
		}
	}
	norm, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	d := &decision.Decision{
		ID:             uuid.New(),
		WorkspaceID:    actor.WorkspaceID,
		UserID:         actor.UserID,
		DecisionText:   norm.DecisionText,
		Rationale:      norm.Rationale,
		SourcePlatform: norm.SourcePlatform,
		SourceLink:     norm.SourceLink,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.decisions.Create(dbc, d); err != nil {
			return err
		}
		return s.remember(dbc, actor, key, decision.OperationCreate, nil, d.ID, now)
	})
	if errors.Is(txErr, repodecision.ErrKeyTaken) {
		// A concurrent request with the same key committed first.
		return s.replay(ctx, actor, key, decision.OperationCreate, nil)
	}
	if txErr != nil {
		return nil, decision.Storage("create decision", txErr)
	}

	s.emitAudit(ctx, d, decision.ActionCreate, actor.UserID, nil)
	s.log.Debug("decision created", "workspace_id", d.WorkspaceID, "decision_id", d.ID)
	return d, nil
}

func (s *decisionService) Get(ctx context.Context, workspaceID, id string) (out *decision.Decision, err error) {
	ctx, span, began := s.start(ctx, "get", workspaceID)
	defer func() { s.finish(span, "get", began, err) }()

	if err := requireWorkspace(workspaceID); err != nil {
		return nil, err
	}
	did, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.decisions.GetByID(dbctx.Context{Ctx: ctx}, did, workspaceID)
}

func (s *decisionService) List(ctx context.Context, workspaceID string, filter decision.ListFilter) (out *decision.ListResult, err error) {
	ctx, span, began := s.start(ctx, "list", workspaceID)
	defer func() { s.finish(span, "list", began, err) }()

	if err := requireWorkspace(workspaceID); err != nil {
		return nil, err
	}
	f := filter.Normalize()
	if s.maxLimit > 0 && f.Limit > s.maxLimit {
		f.Limit = s.maxLimit
	}
	rows, total, err := s.decisions.List(dbctx.Context{Ctx: ctx}, workspaceID, f)
	if err != nil {
		return nil, err
	}
	return &decision.ListResult{Decisions: rows, Total: total}, nil
}

func (s *decisionService) History(ctx context.Context, workspaceID, id string) (out *decision.History, err error) {
	ctx, span, began := s.start(ctx, "history", workspaceID)
	defer func() { s.finish(span, "history", began, err) }()

	if err := requireWorkspace(workspaceID); err != nil {
		return nil, err
	}
	did, err := parseID(id)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	current, err := s.decisions.GetByID(dbc, did, workspaceID)
	if err != nil {
		return nil, err
	}

	h := &decision.History{Current: current, SupersededBy: []decision.Decision{}}
	g, gctx := errgroup.WithContext(ctx)
	if current.SupersedesDecisionID != nil {
		prevID := *current.SupersedesDecisionID
		g.Go(func() error {
			prev, err := s.decisions.GetByID(dbctx.Context{Ctx: gctx}, prevID, workspaceID)
			if errors.Is(err, decision.ErrNotFound) {
				// Weak reference; a missing target is reported as none.
				return nil
			}
			if err != nil {
				return err
			}
			h.Supersedes = prev
			return nil
		})
	}
	g.Go(func() error {
		children, err := s.decisions.ListSupersededBy(dbctx.Context{Ctx: gctx}, did, workspaceID)
		if err != nil {
			return err
		}
		h.SupersededBy = children
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *decisionService) Supersede(ctx context.Context, actor decision.Actor, originalID string, in decision.NewDecision) (out *decision.Decision, err error) {
	ctx, span, began := s.start(ctx, "supersede", actor.WorkspaceID)
	defer func() { s.finish(span, "supersede", began, err) }()

	if err := actor.Validate(); err != nil {
		return nil, err
	}
	origID, err := parseID(originalID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("accord.original_id", origID.String()))

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if prior, err := s.replay(ctx, actor, key, decision.OperationSupersede, &origID); err != nil || prior != nil {
			return prior, err
		}
	}

	original, err := s.decisions.GetByID(dbctx.Context{Ctx: ctx}, origID, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if original.IsSuperseded {
		return nil, decision.ErrAlreadySuperseded
	}
	norm, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	next := &decision.Decision{
		ID:                   uuid.New(),
		WorkspaceID:          actor.WorkspaceID,
		UserID:               actor.UserID,
		DecisionText:         norm.DecisionText,
		Rationale:            norm.Rationale,
		SourcePlatform:       norm.SourcePlatform,
		SourceLink:           norm.SourceLink,
		SupersedesDecisionID: &origID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		locked, err := s.decisions.LockByID(dbc, origID, actor.WorkspaceID)
		if err != nil {
			return err
		}
		if locked.IsSuperseded {
			return decision.ErrAlreadySuperseded
		}
		if _, err := s.decisions.Create(dbc, next); err != nil {
			return err
		}
		if err := s.decisions.FlagSuperseded(dbc, origID, actor.WorkspaceID, now); err != nil {
			return err
		}
		return s.remember(dbc, actor, key, decision.OperationSupersede, &origID, next.ID, now)
	})
	if errors.Is(txErr, repodecision.ErrKeyTaken) {
		return s.replay(ctx, actor, key, decision.OperationSupersede, &origID)
	}
	if txErr != nil {
		if errors.Is(txErr, decision.ErrAlreadySuperseded) {
			s.log.Info("supersede lost race", "workspace_id", actor.WorkspaceID, "decision_id", origID)
		}
		return nil, decision.Storage("supersede decision", txErr)
	}

	s.emitAudit(ctx, next, decision.ActionSupersede, actor.UserID, map[string]any{
		"supersedes": origID.String(),
	})
	s.log.Debug("decision superseded", "workspace_id", actor.WorkspaceID, "decision_id", next.ID, "supersedes", origID)
	return next, nil
}

// replay returns the decision an idempotency key already produced, or nil
// when the key is unused.
func (s *decisionService) replay(ctx context.Context, actor decision.Actor, key, operation string, target *uuid.UUID) (*decision.Decision, error) {
	if s.idempotency == nil {
		return nil, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := s.idempotency.Get(dbc, actor.WorkspaceID, actor.UserID, key)
	if err != nil || rec == nil {
		return nil, err
	}
	if !rec.SameRequest(operation, target) {
		return nil, decision.Invalid("idempotency_key", "was already used for a different request")
	}
	d, err := s.decisions.GetByID(dbc, rec.DecisionID, actor.WorkspaceID)
	if err != nil {
		return nil, err
	}
	s.log.Debug("idempotent replay", "workspace_id", actor.WorkspaceID, "decision_id", d.ID, "operation", operation)
	return d, nil
}

func (s *decisionService) remember(dbc dbctx.Context, actor decision.Actor, key, operation string, target *uuid.UUID, decisionID uuid.UUID, at time.Time) error {
	if key == "" || s.idempotency == nil {
		return nil
	}
	return s.idempotency.Create(dbc, &decision.IdempotencyRecord{
		ID:          uuid.New(),
		WorkspaceID: actor.WorkspaceID,
		UserID:      actor.UserID,
		Key:         key,
		Operation:   operation,
		TargetID:    target,
		DecisionID:  decisionID,
		CreatedAt:   at,
	})
}

// emitAudit is best effort: failures are logged and counted, never returned.
func (s *decisionService) emitAudit(ctx context.Context, d *decision.Decision, action, actor string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	entry, err := decision.NewAuditEntry(d, action, actor, detail, s.timestamp())
	if err == nil {
		err = s.audit.Record(ctx, entry)
	}
	if err != nil {
		s.log.Warn("audit record failed", "workspace_id", d.WorkspaceID, "decision_id", d.ID, "action", action, "error", err)
	}
}
