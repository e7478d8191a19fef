// Package client is the outbound HTTP client used by the CLI and chat
// integrations to talk to the Accord API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/pkg/httpx"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultRetryCount    = 2
	DefaultRetryWait     = 250 * time.Millisecond
	DefaultRetryMaxWait  = 3 * time.Second
	headerIdempotencyKey = "Idempotency-Key"
)

// Config for New. RetryCount applies to idempotent reads only; a negative
// value disables retries.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

type Client struct {
	baseURL    string
	httpClient *resty.Client
	creds      CredentialProvider
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func New(cfg Config, creds CredentialProvider) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "accordctl/1.0"
	}
	retries := cfg.RetryCount
	if retries == 0 {
		retries = DefaultRetryCount
	}
	if retries < 0 {
		retries = 0
	}
	wait := cfg.RetryWait
	if wait <= 0 {
		wait = DefaultRetryWait
	}
	maxWait := cfg.RetryMaxWait
	if maxWait < wait {
		maxWait = DefaultRetryMaxWait
		if maxWait < wait {
			maxWait = wait
		}
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait).
		AddRetryCondition(retryTransient).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			var raw *http.Response
			if resp != nil {
				raw = resp.RawResponse
			}
			return httpx.JitterSleep(httpx.RetryAfterDuration(raw, wait, maxWait)), nil
		})

	return &Client{baseURL: baseURL, httpClient: httpClient, creds: creds}
}

// WithCredentials returns a copy of c that authenticates with creds.
func (c *Client) WithCredentials(creds CredentialProvider) *Client {
	cp := *c
	cp.creds = creds
	return &cp
}

// LoginFunc adapts c.Login for NewCachedCredentialProvider.
func (c *Client) LoginFunc() LoginFunc {
	return func(ctx context.Context, workspaceID, userID string) (string, time.Time, error) {
		res, err := c.Login(ctx, workspaceID, userID)
		if err != nil {
			return "", time.Time{}, err
		}
		return res.Token, res.ExpiresAt, nil
	}
}

func (c *Client) Login(ctx context.Context, workspaceID, userID string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"workspace_id": workspaceID, "user_id": userID},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDecision sends in.IdempotencyKey, when set, as the Idempotency-Key header.
func (c *Client) CreateDecision(ctx context.Context, in decision.NewDecision) (*decision.Decision, error) {
	var out decision.Decision
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/decisions",
		body:   in,
		key:    in.IdempotencyKey,
		authed: true,
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDecisions(ctx context.Context, f decision.ListFilter) (*decision.ListResult, error) {
	var out decision.ListResult
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/api/decisions",
		query:  listQuery(f),
		authed: true,
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDecision(ctx context.Context, id string) (*decision.Decision, error) {
	var out decision.Decision
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/api/decisions/" + url.PathEscape(id),
		authed: true,
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetHistory(ctx context.Context, id string) (*decision.History, error) {
	var out decision.History
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/api/decisions/" + url.PathEscape(id) + "/history",
		authed: true,
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SupersedeDecision(ctx context.Context, id string, in decision.NewDecision) (*decision.Decision, error) {
	var out decision.Decision
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/decisions/" + url.PathEscape(id) + "/supersede",
		body:   in,
		key:    in.IdempotencyKey,
		authed: true,
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type call struct {
	method string
	path   string
	body   any
	query  url.Values
	key    string
	authed bool
	result any
}

// do runs one request. An authenticated call that comes back 401 invalidates
// the cached token and is retried once with a fresh one.
func (c *Client) do(ctx context.Context, cl call) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("accord client is not configured")
	}
	attempts := 1
	if cl.authed && c.creds != nil {
		attempts = 2
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req := c.httpClient.R().
			SetContext(ctx).
			SetError(&errorEnvelope{}).
			SetResult(cl.result)
		if cl.body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
		}
		if len(cl.query) > 0 {
			req.SetQueryParamsFromValues(cl.query)
		}
		if cl.key != "" {
			req.SetHeader(headerIdempotencyKey, cl.key)
		}
		if cl.authed {
			if c.creds == nil {
				return ErrNoCredentials
			}
			tok, err := c.creds.Token(ctx)
			if err != nil {
				return fmt.Errorf("accord credentials: %w", err)
			}
			req.SetAuthToken(tok)
		}

		resp, err := req.Execute(cl.method, cl.path)
		if err != nil {
			return fmt.Errorf("accord %s %s failed: %w", cl.method, cl.path, err)
		}
		if !resp.IsError() {
			return nil
		}
		lastErr = apiError(resp)
		if resp.StatusCode() == http.StatusUnauthorized && cl.authed {
			c.creds.Invalidate()
			continue
		}
		return lastErr
	}
	return lastErr
}

// retryTransient retries reads that failed on a timeout, a dial error, 429
// or 5xx. Writes are never resent here; callers use an idempotency key.
func retryTransient(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || !httpx.IdempotentMethod(resp.Request.Method) {
		return false
	}
	if err != nil {
		return httpx.IsRetryableError(err)
	}
	return httpx.IsRetryableHTTPStatus(resp.StatusCode())
}

func apiError(resp *resty.Response) error {
	out := &APIError{Status: resp.StatusCode()}
	if env, ok := resp.Error().(*errorEnvelope); ok && env != nil {
		out.Code = env.Error.Code
		out.Message = env.Error.Message
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(resp.String())
	}
	return out
}

func listQuery(f decision.ListFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.UserID != "" {
		q.Set("user_id", f.UserID)
	}
	if f.IsSuperseded != nil {
		q.Set("is_superseded", strconv.FormatBool(*f.IsSuperseded))
	}
	if f.CreatedAfter != nil {
		q.Set("created_after", f.CreatedAfter.UTC().Format(time.RFC3339Nano))
	}
	if f.CreatedBefore != nil {
		q.Set("created_before", f.CreatedBefore.UTC().Format(time.RFC3339Nano))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}
