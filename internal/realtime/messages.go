package realtime

import (
	"strings"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventConnected           SSEEvent = "Connected"
	SSEEventMessageCreated      SSEEvent = "MessageCreated"
	SSEEventMessageDeleted      SSEEvent = "MessageDeleted"
	SSEEventNotificationCreated SSEEvent = "NotificationCreated"
	SSEEventNotificationsRead   SSEEvent = "NotificationsRead"
	SSEEventEnrollmentProgress  SSEEvent = "EnrollmentProgress"
	SSEEventMemberJoined        SSEEvent = "MemberJoined"
	SSEEventMemberRemoved       SSEEvent = "MemberRemoved"
	SSEEventMaterialAdded       SSEEvent = "MaterialAdded"
	SSEEventWalletUpdated       SSEEvent = "WalletUpdated"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

const (
	userChannelPrefix      = "user:"
	classroomChannelPrefix = "classroom:"
)

func UserChannel(userID uuid.UUID) string { return userChannelPrefix + userID.String() }

func ClassroomChannel(classroomID uuid.UUID) string {
	return classroomChannelPrefix + classroomID.String()
}

// ParseClassroomChannel returns the classroom id for a "classroom:<id>" channel.
func ParseClassroomChannel(channel string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(channel), classroomChannelPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ParseUserChannel returns the user id for a "user:<id>" channel.
func ParseUserChannel(channel string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(channel), userChannelPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
