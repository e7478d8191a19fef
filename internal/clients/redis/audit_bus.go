package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

const DefaultAuditChannel = "accord.audit"

type AuditBusConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// AuditBus publishes decision audit entries on a Redis pub/sub channel so
// other processes (bots, notifiers) can react to decision changes.
type AuditBus interface {
	Name() string
	Record(ctx context.Context, entry *decision.AuditEntry) error
	StartForwarder(ctx context.Context, onEntry func(e decision.AuditEntry)) error
	Close() error
}

type auditBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewAuditBus(log *logger.Logger, cfg AuditBusConfig) (AuditBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = DefaultAuditChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &auditBus{
		log:     log.With("service", "RedisAuditBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *auditBus) Name() string { return "redis" }

func (b *auditBus) Record(ctx context.Context, entry *decision.AuditEntry) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis audit bus not initialized")
	}
	if entry == nil {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the channel and calls onEntry for every
// well-formed entry until ctx is done.
func (b *auditBus) StartForwarder(ctx context.Context, onEntry func(e decision.AuditEntry)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis audit bus not initialized")
	}
	if onEntry == nil {
		return fmt.Errorf("onEntry callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var e decision.AuditEntry
				if err := json.Unmarshal([]byte(m.Payload), &e); err != nil {
					b.log.Warn("bad redis audit payload", "error", err)
					continue
				}
				onEntry(e)
			}
		}
	}()
	return nil
}

func (b *auditBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
