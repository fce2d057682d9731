package realtime

import "context"

// Emitter sends a message toward subscribers, either straight to the local hub or through a
// cross-instance bus whose forwarder feeds every hub.
type Emitter interface {
	Emit(ctx context.Context, msg SSEMessage)
}

type HubEmitter struct{ Hub *SSEHub }

func (e *HubEmitter) Emit(_ context.Context, msg SSEMessage) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}

type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, SSEMessage) {}
