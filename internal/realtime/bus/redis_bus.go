package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursehub-backend/internal/platform/envutil"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/realtime"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

func RedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Addr:     envutil.String("REDIS_ADDR", ""),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		Channel:  envutil.String("REDIS_CHANNEL", "coursehub:realtime"),
	}
}

const (
	scopeUser      = "user"
	scopeClassroom = "classroom"
)

// envelope is the wire form on the shared redis channel. Hub channels are
// either a user's private stream or a classroom room; anything else is not
// forwarded between instances.
type envelope struct {
	Scope  string            `json:"scope"`
	Target uuid.UUID         `json:"target"`
	Event  realtime.SSEEvent `json:"event"`
	Data   json.RawMessage   `json:"data,omitempty"`
}

func encodeEnvelope(msg realtime.SSEMessage) ([]byte, error) {
	env := envelope{Event: msg.Event}
	if id, ok := realtime.ParseUserChannel(msg.Channel); ok {
		env.Scope, env.Target = scopeUser, id
	} else if id, ok := realtime.ParseClassroomChannel(msg.Channel); ok {
		env.Scope, env.Target = scopeClassroom, id
	} else {
		return nil, fmt.Errorf("unroutable realtime channel %q", msg.Channel)
	}
	if strings.TrimSpace(string(msg.Event)) == "" {
		return nil, fmt.Errorf("realtime event required")
	}
	if msg.Data != nil {
		raw, err := json.Marshal(msg.Data)
		if err != nil {
			return nil, fmt.Errorf("encode realtime data: %w", err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func decodeEnvelope(payload []byte) (realtime.SSEMessage, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return realtime.SSEMessage{}, err
	}
	if env.Target == uuid.Nil || env.Event == "" {
		return realtime.SSEMessage{}, fmt.Errorf("incomplete realtime envelope")
	}
	msg := realtime.SSEMessage{Event: env.Event}
	switch env.Scope {
	case scopeUser:
		msg.Channel = realtime.UserChannel(env.Target)
	case scopeClassroom:
		msg.Channel = realtime.ClassroomChannel(env.Target)
	default:
		return realtime.SSEMessage{}, fmt.Errorf("unknown realtime scope %q", env.Scope)
	}
	if len(env.Data) > 0 {
		msg.Data = env.Data
	}
	return msg, nil
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisBus(cfg RedisConfig, log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "coursehub:realtime"
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

	return &redisBus{
		log:     log.With("service", "RedisRealtimeBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis realtime bus not initialized")
	}
	raw, err := encodeEnvelope(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder hands every envelope from the shared channel to onMsg,
// including ones this instance published; the local hub only delivers
// through the forwarder.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis realtime bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
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
				msg, err := decodeEnvelope([]byte(m.Payload))
				if err != nil {
					b.log.Warn("Dropping realtime envelope", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
