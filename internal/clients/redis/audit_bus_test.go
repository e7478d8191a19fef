package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestNewAuditBusValidatesConfig(t *testing.T) {
	_, err := NewAuditBus(nil, AuditBusConfig{Addr: "localhost:6379"})
	assert.Error(t, err)

	_, err = NewAuditBus(testLogger(t), AuditBusConfig{})
	assert.Error(t, err)

	// Nothing listens on port 1.
	_, err = NewAuditBus(testLogger(t), AuditBusConfig{Addr: "127.0.0.1:1"})
	assert.ErrorContains(t, err, "redis ping")
}

func TestNilAuditBusIsInert(t *testing.T) {
	var b *auditBus
	assert.Error(t, b.Record(context.Background(), &decision.AuditEntry{}))
	assert.NoError(t, b.Close())
}

func TestAuditBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	bus, err := NewAuditBus(testLogger(t), AuditBusConfig{Addr: addr, Channel: "accord.audit.test." + uuid.NewString()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan decision.AuditEntry, 1)
	require.NoError(t, bus.StartForwarder(ctx, func(e decision.AuditEntry) { got <- e }))

	d := &decision.Decision{ID: uuid.New(), WorkspaceID: "w1"}
	entry, err := decision.NewAuditEntry(d, decision.ActionCreate, "u1", nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, bus.Record(ctx, entry))

	select {
	case e := <-got:
		assert.Equal(t, entry.ID, e.ID)
		assert.Equal(t, decision.ActionCreate, e.Action)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for audit entry")
	}
}
