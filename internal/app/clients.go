package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/accord-backend/internal/clients/redis"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type Clients struct {
	AuditBus redis.AuditBus
}

// wireClients connects optional infrastructure. Redis is only dialled when
// REDIS_ADDR is set.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var bus redis.AuditBus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := redis.NewAuditBus(log, redis.AuditBusConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisAuditChannel,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis audit bus: %w", err)
		}
		bus = b
	}
	return Clients{AuditBus: bus}, nil
}

func (c Clients) Close() {
	if c.AuditBus != nil {
		_ = c.AuditBus.Close()
	}
}
