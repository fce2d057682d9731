package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// POST /v1/notifications
// body: { "user_id"?, "title", "message", "type", "link"? }; no user_id broadcasts to every user.
func (nh *NotificationHandler) Send(c *gin.Context) {
	var req struct {
		UserID  *uuid.UUID `json:"user_id"`
		Title   string     `json:"title"`
		Message string     `json:"message"`
		Type    string     `json:"type"`
		Link    string     `json:"link"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := nh.notificationService.Send(c.Request.Context(), req.UserID, services.NotificationDraft{
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Link:    req.Link,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"sent": n})
}

// GET /v1/notifications?unread=true
func (nh *NotificationHandler) List(c *gin.Context) {
	unread, _ := strconv.ParseBool(c.Query("unread"))
	page, err := nh.notificationService.List(reqCtx(c), unread, pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /v1/notifications/unread-count
func (nh *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := nh.notificationService.UnreadCount(reqCtx(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// PATCH /v1/notifications/:id/read
func (nh *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	n, err := nh.notificationService.MarkRead(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notification": n})
}

// PATCH /v1/notifications/read-all
func (nh *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := nh.notificationService.MarkAllRead(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n})
}

// DELETE /v1/notifications/:id
func (nh *NotificationHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := nh.notificationService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
