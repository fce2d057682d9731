package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/realtime"
)

// ClassroomAccess gates subscriptions to classroom channels; services.ClassroomService satisfies it.
type ClassroomAccess interface {
	CheckMember(dbc dbctx.Context, id uuid.UUID) error
}

type RealtimeHandler struct {
	log        *logger.Logger
	hub        *realtime.SSEHub
	classrooms ClassroomAccess
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, classrooms ClassroomAccess) *RealtimeHandler {
	return &RealtimeHandler{
		log:        log.With("handler", "RealtimeHandler"),
		hub:        hub,
		classrooms: classrooms,
	}
}

type channelRequest struct {
	ClientID uuid.UUID `json:"client_id"`
	Channel  string    `json:"channel"`
}

// GET /v1/realtime/stream
// The first event carries the client_id used by subscribe/unsubscribe.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, apierr.Unauthorized("please authenticate"))
		return
	}
	client := h.hub.NewSSEClient(rd.UserID)
	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	h.log.Debug("SSE stream open", "user_id", rd.UserID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("SSE stream closed", "user_id", rd.UserID, "client_id", client.ID)
}

// POST /v1/realtime/subscribe
// body: { "client_id", "channel": "classroom:<id>" }
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	client, channel, ok := h.resolve(c)
	if !ok {
		return
	}
	if classroomID, isClassroom := realtime.ParseClassroomChannel(channel); isClassroom {
		if err := h.classrooms.CheckMember(reqCtx(c), classroomID); err != nil {
			response.RespondError(c, err)
			return
		}
	} else if channel != realtime.UserChannel(client.UserID) {
		response.RespondError(c, apierr.Forbidden("channel not allowed"))
		return
	}
	if !h.hub.AddChannel(client, channel) {
		response.RespondError(c, apierr.Conflict("no_stream", "no active realtime stream for this client"))
		return
	}
	response.RespondOK(c, gin.H{"message": "subscribed", "channel": channel})
}

// POST /v1/realtime/unsubscribe
func (h *RealtimeHandler) Unsubscribe(c *gin.Context) {
	client, channel, ok := h.resolve(c)
	if !ok {
		return
	}
	h.hub.RemoveChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "unsubscribed", "channel": channel})
}

func (h *RealtimeHandler) resolve(c *gin.Context) (*realtime.SSEClient, string, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, apierr.Unauthorized("please authenticate"))
		return nil, "", false
	}
	var req channelRequest
	if !bindJSON(c, &req) {
		return nil, "", false
	}
	req.Channel = strings.TrimSpace(req.Channel)
	if req.Channel == "" || req.ClientID == uuid.Nil {
		response.RespondBadRequest(c, "invalid_channel", "client_id and channel are required")
		return nil, "", false
	}
	client, ok := h.hub.Client(req.ClientID, rd.UserID)
	if !ok {
		response.RespondError(c, apierr.Conflict("no_stream", "no active realtime stream for this client"))
		return nil, "", false
	}
	return client, req.Channel, true
}
