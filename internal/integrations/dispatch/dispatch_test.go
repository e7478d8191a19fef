package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/accord-backend/internal/data/repos"
	"github.com/yungbote/accord-backend/internal/data/repos/testutil"
	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/services"
)

func newDispatcher(t *testing.T) (*Dispatcher, decision.Actor) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	metrics := observability.NewMetrics("accord_test")
	svc := services.NewDecisionService(services.DecisionServiceDeps{
		DB:          db,
		Log:         log,
		Decisions:   repos.NewDecisionRepo(db, log),
		Idempotency: repos.NewIdempotencyRepo(db, log),
		Metrics:     metrics,
		Now:         testutil.NewClock().Now,
	})
	d := NewDispatcher(DispatcherDeps{Log: log, Decisions: svc, Metrics: metrics})
	return d, decision.Actor{WorkspaceID: testutil.Workspace(), UserID: "u1"}
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind(" create_decision ")
	require.NoError(t, err)
	assert.Equal(t, KindCreateDecision, got)

	for _, bad := range []string{"", "GET_CONFIG", "AUTHENTICATE", "DELETE_DECISION"} {
		_, err := ParseKind(bad)
		assert.ErrorIs(t, err, decision.ErrUnsupportedOperation, bad)
	}
}

func TestDispatchRejectsUnknownType(t *testing.T) {
	d, actor := newDispatcher(t)
	_, err := d.Dispatch(context.Background(), actor, Request{Type: "LOGOUT"})
	assert.ErrorIs(t, err, decision.ErrUnsupportedOperation)
}

func TestDispatchLifecycle(t *testing.T) {
	d, actor := newDispatcher(t)
	ctx := context.Background()

	res, err := d.Dispatch(ctx, actor, Request{
		Type:    string(KindCreateDecision),
		Payload: raw(t, map[string]any{"decision_text": "Use REST", "source_platform": "slack"}),
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	created := res.Data.(*decision.Decision)
	require.NotNil(t, created.SourcePlatform)
	assert.Equal(t, "slack", *created.SourcePlatform)

	res, err = d.Dispatch(ctx, actor, Request{
		Type:    string(KindSupersedeDecision),
		Payload: raw(t, map[string]any{"id": created.ID.String(), "decision_text": "Use GraphQL"}),
	})
	require.NoError(t, err)
	next := res.Data.(*decision.Decision)
	assert.Equal(t, created.ID, *next.SupersedesDecisionID)

	res, err = d.Dispatch(ctx, actor, Request{
		Type:    string(KindGetHistory),
		Payload: raw(t, map[string]any{"id": created.ID.String()}),
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	h := res.Data.(*decision.History)
	require.Len(t, h.SupersededBy, 1)
	assert.Equal(t, next.ID, h.SupersededBy[0].ID)

	res, err = d.Dispatch(ctx, actor, Request{
		Type:    string(KindGetDecision),
		Payload: raw(t, map[string]any{"id": created.ID.String()}),
	})
	require.NoError(t, err)
	assert.True(t, res.Data.(*decision.Decision).IsSuperseded)

	res, err = d.Dispatch(ctx, actor, Request{
		Type:    string(KindListDecisions),
		Payload: raw(t, map[string]any{"search": "graphql"}),
	})
	require.NoError(t, err)
	list := res.Data.(*decision.ListResult)
	assert.Equal(t, int64(1), list.Total)

	// Empty payload lists everything.
	res, err = d.Dispatch(ctx, actor, Request{Type: string(KindListDecisions)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Data.(*decision.ListResult).Total)

	_, err = d.Dispatch(ctx, actor, Request{
		Type:    string(KindSupersedeDecision),
		Payload: raw(t, map[string]any{"id": created.ID.String(), "decision_text": "Use gRPC"}),
	})
	assert.ErrorIs(t, err, decision.ErrAlreadySuperseded)
}

func TestDispatchDecodesStrictly(t *testing.T) {
	d, actor := newDispatcher(t)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, actor, Request{
		Type:    string(KindCreateDecision),
		Payload: json.RawMessage(`{"decision_text":"x","workspace_id":"other"}`),
	})
	assert.ErrorIs(t, err, decision.ErrValidation)

	_, err = d.Dispatch(ctx, actor, Request{
		Type:    string(KindCreateDecision),
		Payload: json.RawMessage(`{"decision_text":"x"}{"decision_text":"y"}`),
	})
	assert.ErrorIs(t, err, decision.ErrValidation)

	_, err = d.Dispatch(ctx, actor, Request{
		Type:    string(KindGetDecision),
		Payload: json.RawMessage(`{"id":42}`),
	})
	assert.ErrorIs(t, err, decision.ErrValidation)
}

func TestDispatchCreateHonoursIdempotencyKey(t *testing.T) {
	d, actor := newDispatcher(t)
	ctx := context.Background()
	req := Request{
		Type:    string(KindCreateDecision),
		Payload: raw(t, map[string]any{"decision_text": "Use REST", "idempotency_key": "slack-msg-1"}),
	}
	first, err := d.Dispatch(ctx, actor, req)
	require.NoError(t, err)
	second, err := d.Dispatch(ctx, actor, req)
	require.NoError(t, err)
	assert.Equal(t, first.Data.(*decision.Decision).ID, second.Data.(*decision.Decision).ID)
}
