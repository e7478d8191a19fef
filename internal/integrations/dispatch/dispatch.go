// Package dispatch routes tagged requests from chat and browser integrations
// onto decision operations. The set of tags is closed; anything else is
// rejected with decision.ErrUnsupportedOperation.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/platform/logger"
	"github.com/yungbote/accord-backend/internal/services"
)

type Kind string

const (
	KindCreateDecision    Kind = "CREATE_DECISION"
	KindListDecisions     Kind = "LIST_DECISIONS"
	KindGetDecision       Kind = "GET_DECISION"
	KindGetHistory        Kind = "GET_HISTORY"
	KindSupersedeDecision Kind = "SUPERSEDE_DECISION"
)

var kinds = map[Kind]struct{}{
	KindCreateDecision:    {},
	KindListDecisions:     {},
	KindGetDecision:       {},
	KindGetHistory:        {},
	KindSupersedeDecision: {},
}

func Kinds() []Kind {
	return []Kind{KindCreateDecision, KindListDecisions, KindGetDecision, KindGetHistory, KindSupersedeDecision}
}

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", decision.ErrUnsupportedOperation, raw)
	}
	return k, nil
}

type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Result struct {
	Kind    Kind `json:"kind"`
	Data    any  `json:"data"`
	Created bool `json:"-"`
}

type newDecisionPayload struct {
	decision.NewDecision
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (p newDecisionPayload) toNewDecision() decision.NewDecision {
	nd := p.NewDecision
	nd.IdempotencyKey = p.IdempotencyKey
	return nd
}

type supersedePayload struct {
	ID string `json:"id"`
	newDecisionPayload
}

type idPayload struct {
	ID string `json:"id"`
}

type listPayload struct {
	Search        string     `json:"search,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
	IsSuperseded  *bool      `json:"is_superseded,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}

type DispatcherDeps struct {
	Log       *logger.Logger
	Decisions services.DecisionService
	Metrics   *observability.Metrics
}

type Dispatcher struct {
	log       *logger.Logger
	decisions services.DecisionService
	metrics   *observability.Metrics
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	return &Dispatcher{
		log:       deps.Log.With("service", "Dispatcher"),
		decisions: deps.Decisions,
		metrics:   deps.Metrics,
	}
}

// Dispatch decodes req.Payload strictly for its kind and runs exactly one
// service operation on behalf of actor.
func (d *Dispatcher) Dispatch(ctx context.Context, actor decision.Actor, req Request) (res *Result, err error) {
	kind, err := ParseKind(req.Type)
	label := string(kind)
	if err != nil {
		label = "unknown"
	}
	defer func() { d.metrics.IncDispatch(label, decision.Outcome(err)) }()
	if err != nil {
		d.log.Warn("unsupported dispatch type", "type", req.Type)
		return nil, err
	}

	switch kind {
	case KindCreateDecision:
		var p newDecisionPayload
		if err := decodeStrict(req.Payload, &p); err != nil {
			return nil, err
		}
		out, err := d.decisions.Create(ctx, actor, p.toNewDecision())
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Data: out, Created: true}, nil

	case KindListDecisions:
		var p listPayload
		if err := decodeStrict(req.Payload, &p); err != nil {
			return nil, err
		}
		out, err := d.decisions.List(ctx, actor.WorkspaceID, decision.ListFilter{
			Search:        p.Search,
			UserID:        p.UserID,
			IsSuperseded:  p.IsSuperseded,
			CreatedAfter:  p.CreatedAfter,
			CreatedBefore: p.CreatedBefore,
			Limit:         p.Limit,
			Offset:        p.Offset,
		})
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Data: out}, nil

	case KindGetDecision, KindGetHistory:
		var p idPayload
		if err := decodeStrict(req.Payload, &p); err != nil {
			return nil, err
		}
		if kind == KindGetDecision {
			out, err := d.decisions.Get(ctx, actor.WorkspaceID, p.ID)
			if err != nil {
				return nil, err
			}
			return &Result{Kind: kind, Data: out}, nil
		}
		out, err := d.decisions.History(ctx, actor.WorkspaceID, p.ID)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Data: out}, nil

	case KindSupersedeDecision:
		var p supersedePayload
		if err := decodeStrict(req.Payload, &p); err != nil {
			return nil, err
		}
		out, err := d.decisions.Supersede(ctx, actor, p.ID, p.toNewDecision())
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Data: out, Created: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", decision.ErrUnsupportedOperation, req.Type)
}

func decodeStrict(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decision.Invalid("payload", err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return decision.Invalid("payload", "must contain a single JSON object")
	}
	return nil
}
