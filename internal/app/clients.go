package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/coursehub-backend/internal/platform/gcp"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/realtime/bus"
)

type Clients struct {
	// nil when REDIS_ADDR is unset; realtime then stays instance-local
	RealtimeBus bus.Bus
	// nil when no bucket is configured
	Bucket gcp.BucketService
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var rtBus bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(cfg.Redis, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis realtime bus: %w", err)
		}
		rtBus = b
	}

	// Gcs
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		if rtBus != nil {
			_ = rtBus.Close()
		}
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	return Clients{
		RealtimeBus: rtBus,
		Bucket:      bucket,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.RealtimeBus != nil {
		_ = c.RealtimeBus.Close()
	}
}
