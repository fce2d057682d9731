package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeSystem     = "system"
	TypeOrder      = "order"
	TypeEnrollment = "enrollment"
	TypeCourse     = "course"
	TypeClassroom  = "classroom"
)

func IsValidType(t string) bool {
	switch t {
	case TypeSystem, TypeOrder, TypeEnrollment, TypeCourse, TypeClassroom:
		return true
	default:
		return false
	}
}

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string     `gorm:"not null;column:type" json:"type"`
	Title     string     `gorm:"not null;column:title" json:"title"`
	Message   string     `gorm:"type:text;column:message" json:"message"`
	Link      string     `gorm:"column:link" json:"link,omitempty"`
	IsRead    bool       `gorm:"not null;index;column:is_read" json:"is_read"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Type == "" {
		n.Type = TypeSystem
	}
	return nil
}
