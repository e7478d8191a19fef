package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCredentials(t *testing.T) {
	tok, err := StaticCredentials(" abc ").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = StaticCredentials("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestCachedCredentialProviderCachesUntilInvalidated(t *testing.T) {
	var logins atomic.Int32
	p := NewCachedCredentialProvider(func(ctx context.Context, ws, user string) (string, time.Time, error) {
		logins.Add(1)
		assert.Equal(t, "w1", ws)
		assert.Equal(t, "u1", user)
		return "tok", time.Now().Add(time.Hour), nil
	}, " w1 ", "u1")

	for i := 0; i < 3; i++ {
		tok, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
	}
	assert.Equal(t, int32(1), logins.Load())

	p.Invalidate()
	_, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), logins.Load())
}

func TestCachedCredentialProviderRefreshesNearExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var logins atomic.Int32
	p := NewCachedCredentialProvider(func(context.Context, string, string) (string, time.Time, error) {
		logins.Add(1)
		return "tok", now.Add(10 * time.Minute), nil
	}, "w1", "u1")
	p.now = func() time.Time { return now }

	_, err := p.Token(context.Background())
	require.NoError(t, err)
	now = now.Add(9*time.Minute + 30*time.Second)
	_, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), logins.Load())
}

func TestCachedCredentialProviderSharesConcurrentLogin(t *testing.T) {
	release := make(chan struct{})
	var logins atomic.Int32
	p := NewCachedCredentialProvider(func(context.Context, string, string) (string, time.Time, error) {
		logins.Add(1)
		<-release
		return "tok", time.Now().Add(time.Hour), nil
	}, "w1", "u1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := p.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok", tok)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, logins.Load(), int32(2))
}

func TestCachedCredentialProviderPropagatesLoginError(t *testing.T) {
	boom := errors.New("boom")
	p := NewCachedCredentialProvider(func(context.Context, string, string) (string, time.Time, error) {
		return "", time.Time{}, boom
	}, "w1", "u1")
	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = NewCachedCredentialProvider(nil, "w1", "u1").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestLooksLikeDecision(t *testing.T) {
	for _, msg := range []string{
		"OK, we decided to use Postgres",
		"Let's do the migration on Monday",
		"We will go with REST",
		"Final DECISION: ship it",
	} {
		assert.True(t, LooksLikeDecision(msg), msg)
	}
	for _, msg := range []string{"lunch?", "can someone review my PR", ""} {
		assert.False(t, LooksLikeDecision(msg), msg)
	}
}
