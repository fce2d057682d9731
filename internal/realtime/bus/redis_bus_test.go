package bus

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/realtime"
)

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(RedisConfig{}, logger.Nop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewRedisBus(RedisConfig{Addr: "localhost:6379"}, nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestEnvelopeKeepsChannelScope(t *testing.T) {
	userID, roomID := uuid.New(), uuid.New()
	for _, in := range []realtime.SSEMessage{
		{Channel: realtime.UserChannel(userID), Event: realtime.SSEEventWalletUpdated, Data: map[string]any{"balance": "12.50"}},
		{Channel: realtime.ClassroomChannel(roomID), Event: realtime.SSEEventMemberRemoved},
	} {
		raw, err := encodeEnvelope(in)
		if err != nil {
			t.Fatalf("encode %s: %v", in.Channel, err)
		}
		out, err := decodeEnvelope(raw)
		if err != nil {
			t.Fatalf("decode %s: %v", in.Channel, err)
		}
		if out.Channel != in.Channel || out.Event != in.Event {
			t.Fatalf("route changed: in=%+v out=%+v", in, out)
		}
		if in.Data == nil && out.Data != nil {
			t.Fatalf("unexpected data: %v", out.Data)
		}
		if in.Data != nil {
			var got map[string]any
			if err := json.Unmarshal(out.Data.(json.RawMessage), &got); err != nil || got["balance"] != "12.50" {
				t.Fatalf("data: got=%v err=%v", got, err)
			}
		}
	}
}

func TestEnvelopeRejectsUnroutable(t *testing.T) {
	for _, ch := range []string{"", "global", "user:not-a-uuid", "course:" + uuid.NewString()} {
		if _, err := encodeEnvelope(realtime.SSEMessage{Channel: ch, Event: realtime.SSEEventWalletUpdated}); err == nil {
			t.Fatalf("expected error for channel %q", ch)
		}
	}
	if _, err := encodeEnvelope(realtime.SSEMessage{Channel: realtime.UserChannel(uuid.New())}); err == nil {
		t.Fatalf("expected error for missing event")
	}
	for _, payload := range []string{
		`not json`,
		`{"scope":"course","target":"` + uuid.NewString() + `","event":"wallet_updated"}`,
		`{"scope":"user","event":"wallet_updated"}`,
	} {
		if _, err := decodeEnvelope([]byte(payload)); err == nil {
			t.Fatalf("expected error for payload %s", payload)
		}
	}
}

func TestEmitterNilBusIsNoop(t *testing.T) {
	var e *Emitter
	e.Emit(context.Background(), realtime.SSEMessage{Channel: "user:x"})
	(&Emitter{}).Emit(context.Background(), realtime.SSEMessage{Channel: "user:x"})
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	b, err := NewRedisBus(RedisConfig{Addr: addr, Channel: "coursehub:test"}, logger.Nop())
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID := uuid.New()
	got := make(chan realtime.SSEMessage, 1)
	if err := b.StartForwarder(ctx, func(m realtime.SSEMessage) { got <- m }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.Publish(ctx, realtime.SSEMessage{Channel: realtime.UserChannel(userID), Event: realtime.SSEEventWalletUpdated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case m := <-got:
		if m.Channel != realtime.UserChannel(userID) || m.Event != realtime.SSEEventWalletUpdated {
			t.Fatalf("unexpected message: %+v", m)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for message")
	}
}
