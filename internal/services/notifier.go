package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/realtime"
)

// RealtimeNotifier pushes committed state changes to connected clients.
type RealtimeNotifier interface {
	NotificationCreated(userID uuid.UUID, n *types.Notification)
	NotificationsRead(userID uuid.UUID, ids []uuid.UUID, all bool)
	MessageCreated(msg *types.Message)
	MessageDeleted(classroomID, messageID uuid.UUID)
	MemberJoined(member *types.ClassroomMember)
	MemberRemoved(classroomID, userID uuid.UUID)
	MaterialAdded(material *types.ClassroomMaterial)
	WalletUpdated(userID uuid.UUID, balance decimal.Decimal)
	EnrollmentProgress(e *types.Enrollment)
}

type realtimeNotifier struct {
	emit realtime.Emitter
}

func NewRealtimeNotifier(emit realtime.Emitter) RealtimeNotifier {
	return &realtimeNotifier{emit: emit}
}

func (n *realtimeNotifier) send(channel string, event realtime.SSEEvent, data any) {
	if n == nil || n.emit == nil || channel == "" {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{Channel: channel, Event: event, Data: data})
	observability.Current().IncRealtimeMessage(string(event))
}

func (n *realtimeNotifier) NotificationCreated(userID uuid.UUID, notif *types.Notification) {
	if userID == uuid.Nil || notif == nil {
		return
	}
	n.send(realtime.UserChannel(userID), realtime.SSEEventNotificationCreated, map[string]any{"notification": notif})
}

func (n *realtimeNotifier) NotificationsRead(userID uuid.UUID, ids []uuid.UUID, all bool) {
	if userID == uuid.Nil {
		return
	}
	n.send(realtime.UserChannel(userID), realtime.SSEEventNotificationsRead, map[string]any{"ids": ids, "all": all})
}

func (n *realtimeNotifier) MessageCreated(msg *types.Message) {
	if msg == nil {
		return
	}
	n.send(realtime.ClassroomChannel(msg.ClassroomID), realtime.SSEEventMessageCreated, map[string]any{"message": msg})
}

func (n *realtimeNotifier) MessageDeleted(classroomID, messageID uuid.UUID) {
	n.send(realtime.ClassroomChannel(classroomID), realtime.SSEEventMessageDeleted, map[string]any{"message_id": messageID})
}

func (n *realtimeNotifier) MemberJoined(member *types.ClassroomMember) {
	if member == nil {
		return
	}
	n.send(realtime.ClassroomChannel(member.ClassroomID), realtime.SSEEventMemberJoined, map[string]any{"member": member})
}

func (n *realtimeNotifier) MemberRemoved(classroomID, userID uuid.UUID) {
	n.send(realtime.ClassroomChannel(classroomID), realtime.SSEEventMemberRemoved, map[string]any{"user_id": userID})
}

func (n *realtimeNotifier) MaterialAdded(material *types.ClassroomMaterial) {
	if material == nil {
		return
	}
	n.send(realtime.ClassroomChannel(material.ClassroomID), realtime.SSEEventMaterialAdded, map[string]any{"material": material})
}

func (n *realtimeNotifier) WalletUpdated(userID uuid.UUID, balance decimal.Decimal) {
	if userID == uuid.Nil {
		return
	}
	n.send(realtime.UserChannel(userID), realtime.SSEEventWalletUpdated, map[string]any{"balance": balance})
}

func (n *realtimeNotifier) EnrollmentProgress(e *types.Enrollment) {
	if e == nil {
		return
	}
	n.send(realtime.UserChannel(e.UserID), realtime.SSEEventEnrollmentProgress, map[string]any{
		"course_id":        e.CourseID,
		"progress_percent": e.ProgressPercent,
		"completed_at":     e.CompletedAt,
	})
}
