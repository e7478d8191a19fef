package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CredentialProvider supplies the bearer token for outbound calls. The client
// calls Invalidate after a 401 and asks for a fresh token once.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

var ErrNoCredentials = errors.New("no credentials configured")

// StaticCredentials is a fixed token, typically loaded from a config file.
type StaticCredentials string

func (s StaticCredentials) Token(context.Context) (string, error) {
	tok := strings.TrimSpace(string(s))
	if tok == "" {
		return "", ErrNoCredentials
	}
	return tok, nil
}

func (StaticCredentials) Invalidate() {}

// LoginFunc exchanges an identity for a token and its expiry.
type LoginFunc func(ctx context.Context, workspaceID, userID string) (string, time.Time, error)

// CachedCredentialProvider logs in lazily and reuses the token until shortly
// before it expires or until Invalidate is called. Concurrent callers share a
// single login.
type CachedCredentialProvider struct {
	login       LoginFunc
	workspaceID string
	userID      string
	skew        time.Duration
	now         func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	group     singleflight.Group
}

func NewCachedCredentialProvider(login LoginFunc, workspaceID, userID string) *CachedCredentialProvider {
	return &CachedCredentialProvider{
		login:       login,
		workspaceID: strings.TrimSpace(workspaceID),
		userID:      strings.TrimSpace(userID),
		skew:        time.Minute,
		now:         time.Now,
	}
}

func (p *CachedCredentialProvider) Token(ctx context.Context) (string, error) {
	if tok, ok := p.cached(); ok {
		return tok, nil
	}
	if p.login == nil {
		return "", ErrNoCredentials
	}
	v, err, _ := p.group.Do("token", func() (interface{}, error) {
		if tok, ok := p.cached(); ok {
			return tok, nil
		}
		tok, exp, err := p.login(ctx, p.workspaceID, p.userID)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.token, p.expiresAt = tok, exp
		p.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *CachedCredentialProvider) cached() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token == "" {
		return "", false
	}
	if !p.expiresAt.IsZero() && !p.now().Add(p.skew).Before(p.expiresAt) {
		return "", false
	}
	return p.token, true
}

func (p *CachedCredentialProvider) Invalidate() {
	p.mu.Lock()
	p.token = ""
	p.expiresAt = time.Time{}
	p.mu.Unlock()
}
