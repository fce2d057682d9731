package classroom

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MemberRoleStudent   = "student"
	MemberRoleAssistant = "assistant"
	MemberRoleAdmin     = "admin"
)

func IsValidMemberRole(role string) bool {
	switch role {
	case MemberRoleStudent, MemberRoleAssistant, MemberRoleAdmin:
		return true
	default:
		return false
	}
}

type Classroom struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"not null;column:name" json:"name"`
	Description string     `gorm:"column:description" json:"description"`
	CourseID    *uuid.UUID `gorm:"type:uuid;index" json:"course_id,omitempty"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	JoinCode    string     `gorm:"not null;uniqueIndex;column:join_code" json:"join_code,omitempty"`

	Members []*Member `gorm:"-" json:"members,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Classroom) TableName() string { return "classroom" }

func (c *Classroom) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Member struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_classroom_member" json:"classroom_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_classroom_member;index" json:"user_id"`
	Role        string    `gorm:"not null;column:role" json:"role"`
	JoinedAt    time.Time `gorm:"not null;column:joined_at" json:"joined_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Member) TableName() string { return "classroom_member" }

func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Role == "" {
		m.Role = MemberRoleStudent
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}

func (m *Member) CanManage() bool { return m != nil && m.Role == MemberRoleAdmin }

func (m *Member) CanPostMaterial() bool {
	return m != nil && (m.Role == MemberRoleAdmin || m.Role == MemberRoleAssistant)
}

type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID `gorm:"type:uuid;not null;index" json:"classroom_id"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	URL         string    `gorm:"not null;column:url" json:"url"`
	StorageKey  string    `gorm:"column:storage_key" json:"-"`
	MimeType    string    `gorm:"column:mime_type" json:"mime_type,omitempty"`
	SizeBytes   int64     `gorm:"not null;column:size_bytes" json:"size_bytes"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Material) TableName() string { return "classroom_material" }

func (m *Material) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
