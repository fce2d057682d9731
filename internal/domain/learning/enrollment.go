package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID               uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID         uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	OrderID          *uuid.UUID                     `gorm:"type:uuid;index" json:"order_id,omitempty"`
	CompletedLessons datatypes.JSONSlice[uuid.UUID] `gorm:"column:completed_lessons" json:"completed_lessons"`
	ProgressPercent  float64                        `gorm:"not null;column:progress_percent" json:"progress_percent"`
	EnrolledAt       time.Time                      `gorm:"not null;column:enrolled_at" json:"enrolled_at"`
	CompletedAt      *time.Time                     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                      `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = datatypes.JSONSlice[uuid.UUID]{}
	}
	return nil
}

func (e *Enrollment) HasCompleted(lessonID uuid.UUID) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}
