package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubBroadcastOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := ClassroomChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMessageCreated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMessageDeleted, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventMessageCreated {
		t.Fatalf("first event: want=%s got=%s", SSEEventMessageCreated, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventMessageDeleted {
		t.Fatalf("second event: want=%s got=%s", SSEEventMessageDeleted, got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if n := hub.SubscriberCount(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}

	clientB := hub.NewSSEClient(clientA.UserID)
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMemberJoined})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventMemberJoined {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventMemberJoined, got.Event)
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	userA, userB := uuid.New(), uuid.New()
	a := hub.NewSSEClient(userA)
	b := hub.NewSSEClient(userB)
	hub.AddChannel(a, UserChannel(userA))
	hub.AddChannel(b, UserChannel(userB))

	hub.Broadcast(SSEMessage{Channel: UserChannel(userA), Event: SSEEventNotificationCreated})

	recvMessage(t, a.Outbound, time.Second)
	select {
	case msg := <-b.Outbound:
		t.Fatalf("user B received message for user A: %+v", msg)
	default:
	}
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	c := hub.NewSSEClient(uuid.New())
	ch := UserChannel(c.UserID)
	hub.AddChannel(c, ch)

	for i := 0; i < clientBufferSize+5; i++ {
		hub.Broadcast(SSEMessage{Channel: ch, Event: SSEEventWalletUpdated})
	}
	if got := len(c.Outbound); got != clientBufferSize {
		t.Fatalf("buffered: want=%d got=%d", clientBufferSize, got)
	}
}

func TestSSEHubRemoveChannel(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	c := hub.NewSSEClient(uuid.New())
	hub.AddChannel(c, "  ")
	if len(c.Channels) != 0 {
		t.Fatalf("blank channel should be ignored")
	}
	hub.AddChannel(c, "classroom:x")
	hub.RemoveChannel(c, "classroom:x")
	if hub.SubscriberCount("classroom:x") != 0 || len(c.Channels) != 0 {
		t.Fatalf("channel not removed")
	}
}

func TestSSEHubClientLookupChecksOwner(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	owner := uuid.New()
	c := hub.NewSSEClient(owner)
	if _, ok := hub.Client(c.ID, owner); !ok {
		t.Fatalf("owner lookup failed")
	}
	if _, ok := hub.Client(c.ID, uuid.New()); ok {
		t.Fatalf("lookup by another user must fail")
	}
}

func TestSSEHubServeHTTPStreamsMessages(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	userID := uuid.New()
	client := hub.NewSSEClient(userID)
	hub.AddChannel(client, UserChannel(userID))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, client)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type: got=%q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readData := func() SSEMessage {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if raw, ok := strings.CutPrefix(line, "data: "); ok {
				var msg SSEMessage
				if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &msg); err != nil {
					t.Fatalf("decode: %v", err)
				}
				return msg
			}
		}
	}

	if first := readData(); first.Event != SSEEventConnected {
		t.Fatalf("first event: want=%s got=%s", SSEEventConnected, first.Event)
	}
	hub.Broadcast(SSEMessage{Channel: UserChannel(userID), Event: SSEEventNotificationCreated})
	if got := readData(); got.Event != SSEEventNotificationCreated {
		t.Fatalf("event: want=%s got=%s", SSEEventNotificationCreated, got.Event)
	}
}

func TestParseClassroomChannel(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		in   string
		ok   bool
		want uuid.UUID
	}{
		{ClassroomChannel(id), true, id},
		{UserChannel(id), false, uuid.Nil},
		{"classroom:not-a-uuid", false, uuid.Nil},
	}
	for _, tc := range tests {
		got, ok := ParseClassroomChannel(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseClassroomChannel(%q) = %v,%v", tc.in, got, ok)
		}
	}
}

func TestHubEmitterBroadcasts(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	c := hub.NewSSEClient(uuid.New())
	hub.AddChannel(c, UserChannel(c.UserID))
	var e Emitter = &HubEmitter{Hub: hub}
	e.Emit(context.Background(), SSEMessage{Channel: UserChannel(c.UserID), Event: SSEEventWalletUpdated})
	recvMessage(t, c.Outbound, time.Second)
	NopEmitter{}.Emit(context.Background(), SSEMessage{})
}

func TestSSEHubAddChannelAfterCloseIsRejected(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := ClassroomChannel(uuid.New())
	userID := uuid.New()

	c := hub.NewSSEClient(userID)
	got, ok := hub.Client(c.ID, userID)
	if !ok {
		t.Fatalf("client lookup failed")
	}
	hub.CloseClient(c)

	if hub.AddChannel(got, channel) {
		t.Fatalf("AddChannel on a closed client should report false")
	}
	if n := hub.SubscriberCount(channel); n != 0 {
		t.Fatalf("subscribers: want=0 got=%d", n)
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Broadcast panicked: %v", r)
		}
	}()
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMessageCreated})
}
