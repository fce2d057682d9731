package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
)

type AttemptAnswer struct {
	QuestionID        uuid.UUID `json:"question_id"`
	SelectedOptionIDs []string  `json:"selected_option_ids,omitempty"`
	Text              string    `json:"text,omitempty"`
	IsCorrect         bool      `json:"is_correct"`
}

// Attempt is one try at a quiz lesson. At most one attempt per (user, lesson) may have
// SubmittedAt unset; this is enforced by a partial unique index.
type Attempt struct {
	ID          uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                          `gorm:"type:uuid;not null;index" json:"user_id"`
	LessonID    uuid.UUID                          `gorm:"type:uuid;not null;index" json:"lesson_id"`
	QuizID      uuid.UUID                          `gorm:"type:uuid;not null;index" json:"quiz_id"`
	CourseID    uuid.UUID                          `gorm:"type:uuid;not null;index" json:"course_id"`
	StartedAt   time.Time                          `gorm:"not null;column:started_at" json:"started_at"`
	SubmittedAt *time.Time                         `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	Score       float64                            `gorm:"not null;column:score" json:"score"`
	IsPassed    bool                               `gorm:"not null;column:is_passed" json:"is_passed"`
	Correct     int                                `gorm:"not null;column:correct_count" json:"correct_count"`
	Total       int                                `gorm:"not null;column:total_count" json:"total_count"`
	Answers     datatypes.JSONSlice[AttemptAnswer] `gorm:"column:answers" json:"answers"`
	CreatedAt   time.Time                          `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time                          `gorm:"not null" json:"updated_at"`
}

func (Attempt) TableName() string { return "attempt" }

func (a *Attempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now().UTC()
	}
	return nil
}

func (a *Attempt) Status() string {
	if a.SubmittedAt != nil {
		return AttemptStatusSubmitted
	}
	return AttemptStatusInProgress
}
