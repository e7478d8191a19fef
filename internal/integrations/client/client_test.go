package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/accord-backend/internal/data/repos"
	"github.com/yungbote/accord-backend/internal/data/repos/testutil"
	"github.com/yungbote/accord-backend/internal/domain/decision"
	accordhttp "github.com/yungbote/accord-backend/internal/http"
	httpH "github.com/yungbote/accord-backend/internal/http/handlers"
	httpMW "github.com/yungbote/accord-backend/internal/http/middleware"
	"github.com/yungbote/accord-backend/internal/services"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	decisions := services.NewDecisionService(services.DecisionServiceDeps{
		DB:          db,
		Log:         log,
		Decisions:   repos.NewDecisionRepo(db, log),
		Idempotency: repos.NewIdempotencyRepo(db, log),
		Now:         testutil.NewClock().Now,
	})
	auth := services.NewAuthService(log, "test-secret", time.Hour, "accord-test")
	router := accordhttp.NewRouter(accordhttp.RouterConfig{
		Log:             log,
		AuthHandler:     httpH.NewAuthHandler(log, auth),
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, auth),
		DecisionHandler: httpH.NewDecisionHandler(httpH.DecisionHandlerDeps{Log: log, Decisions: decisions}),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func loggedIn(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	anon := New(Config{BaseURL: srv.URL}, nil)
	creds := NewCachedCredentialProvider(anon.LoginFunc(), testutil.Workspace(), "alice")
	return anon.WithCredentials(creds)
}

func TestClientRoundTrip(t *testing.T) {
	srv := newServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	rationale := "Team already knows it"
	d1, err := c.CreateDecision(ctx, decision.NewDecision{DecisionText: "Use PostgreSQL", Rationale: &rationale})
	require.NoError(t, err)
	assert.Equal(t, "alice", d1.UserID)

	got, err := c.GetDecision(ctx, d1.ID.String())
	require.NoError(t, err)
	assert.Equal(t, d1.ID, got.ID)

	d2, err := c.SupersedeDecision(ctx, d1.ID.String(), decision.NewDecision{DecisionText: "Use MySQL"})
	require.NoError(t, err)

	_, err = c.SupersedeDecision(ctx, d1.ID.String(), decision.NewDecision{DecisionText: "Use SQLite"})
	assert.ErrorIs(t, err, decision.ErrAlreadySuperseded)

	hist, err := c.GetHistory(ctx, d1.ID.String())
	require.NoError(t, err)
	require.Len(t, hist.SupersededBy, 1)
	assert.Equal(t, d2.ID, hist.SupersededBy[0].ID)

	superseded := true
	list, err := c.ListDecisions(ctx, decision.ListFilter{IsSuperseded: &superseded, Search: "postgres"})
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, d1.ID, list.Decisions[0].ID)

	_, err = c.GetDecision(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, decision.ErrNotFound)

	_, err = c.CreateDecision(ctx, decision.NewDecision{DecisionText: " "})
	assert.ErrorIs(t, err, decision.ErrValidation)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestClientSendsIdempotencyKey(t *testing.T) {
	srv := newServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	in := decision.NewDecision{DecisionText: "Adopt feature flags", IdempotencyKey: "ext-1"}
	first, err := c.CreateDecision(ctx, in)
	require.NoError(t, err)
	second, err := c.CreateDecision(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestClientWithoutCredentials(t *testing.T) {
	srv := newServer(t)
	c := New(Config{BaseURL: srv.URL}, nil)
	_, err := c.ListDecisions(context.Background(), decision.ListFilter{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	c = c.WithCredentials(StaticCredentials("bogus"))
	_, err = c.ListDecisions(context.Background(), decision.ListFilter{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClientRetriesOnceAfterUnauthorized(t *testing.T) {
	var logins, calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			n := logins.Add(1)
			_, _ = w.Write([]byte(`{"token":"tok-` + string(rune('0'+n)) + `","expires_at":"2999-01-01T00:00:00Z"}`))
		case "/api/decisions":
			calls.Add(1)
			if r.Header.Get("Authorization") != "Bearer tok-2" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"expired","code":"unauthorized"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"decisions":[],"total":0}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	anon := New(Config{BaseURL: srv.URL}, nil)
	creds := NewCachedCredentialProvider(anon.LoginFunc(), "w1", "u1")
	c := anon.WithCredentials(creds)

	out, err := c.ListDecisions(context.Background(), decision.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Total)
	assert.Equal(t, int32(2), logins.Load())
	assert.Equal(t, int32(2), calls.Load())

	// The refreshed token is cached.
	_, err = c.ListDecisions(context.Background(), decision.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), logins.Load())
}

func TestClientGivesUpAfterSecondUnauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"nope","code":"unauthorized"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, StaticCredentials("tok"))
	_, err := c.GetDecision(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListQuery(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	no := false
	q := listQuery(decision.ListFilter{
		Search:       "rest api",
		IsSuperseded: &no,
		CreatedAfter: &after,
		Limit:        10,
	})
	assert.Equal(t, "rest api", q.Get("search"))
	assert.Equal(t, "false", q.Get("is_superseded"))
	assert.Equal(t, "2024-01-01T00:00:00Z", q.Get("created_after"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Empty(t, q.Get("offset"))
}

func TestClientRetriesTransientReads(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","code":"storage_failure"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"decisions":[],"total":0}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RetryWait: 5 * time.Millisecond, RetryMaxWait: 10 * time.Millisecond}, StaticCredentials("tok"))
	out, err := c.ListDecisions(context.Background(), decision.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Total)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotResendWrites(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"busy","code":"storage_failure"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RetryWait: 5 * time.Millisecond}, StaticCredentials("tok"))
	_, err := c.CreateDecision(context.Background(), decision.NewDecision{DecisionText: "x"})
	assert.ErrorIs(t, err, decision.ErrStorage)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientRetryBudgetIsBounded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RetryCount: 1, RetryWait: 5 * time.Millisecond}, StaticCredentials("tok"))
	_, err := c.GetDecision(context.Background(), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, int32(2), calls.Load())
}
