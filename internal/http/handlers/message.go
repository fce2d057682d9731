package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// POST /v1/classrooms/:id/messages
func (mh *MessageHandler) Post(c *gin.Context) {
	classroomID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &req) {
		return
	}
	msg, err := mh.messageService.Post(c.Request.Context(), classroomID, req.Content)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": msg})
}

// GET /v1/classrooms/:id/messages?before=<RFC3339>&limit=
func (mh *MessageHandler) List(c *gin.Context) {
	classroomID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	before, ok := timeQuery(c, "before")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := mh.messageService.List(reqCtx(c), classroomID, before, limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	resp := gin.H{"messages": msgs}
	if n := len(msgs); n > 0 {
		resp["next_before"] = msgs[n-1].CreatedAt
	}
	response.RespondOK(c, resp)
}

// DELETE /v1/messages/:id
func (mh *MessageHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := mh.messageService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
