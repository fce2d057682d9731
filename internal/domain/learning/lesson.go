package learning

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonType string

const (
	LessonTypeVideo  LessonType = "video"
	LessonTypeTheory LessonType = "theory"
	LessonTypeQuiz   LessonType = "quiz"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeVideo, LessonTypeTheory, LessonTypeQuiz:
		return true
	default:
		return false
	}
}

// Lesson is a shell; ResourceID points into the video, theory or quiz table selected by Type.
type Lesson struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"module_id"`
	CourseID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	Title      string     `gorm:"not null;column:title" json:"title"`
	Type       LessonType `gorm:"not null;column:type" json:"type"`
	ResourceID uuid.UUID  `gorm:"type:uuid;not null;column:resource_id" json:"resource_id"`
	IsPreview  bool       `gorm:"not null;column:is_preview" json:"is_preview"`
	Position   int        `gorm:"not null;column:position" json:"position"`

	Resource *LessonResource `gorm:"-" json:"resource,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type Video struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URL             string    `gorm:"not null;column:url" json:"url"`
	DurationSeconds int       `gorm:"not null;column:duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (Video) TableName() string { return "lesson_video" }

func (v *Video) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type Theory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Theory) TableName() string { return "lesson_theory" }

func (t *Theory) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Quiz struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"not null;column:title" json:"title"`
	Description      string    `gorm:"column:description" json:"description"`
	PassScore        float64   `gorm:"not null;column:pass_score" json:"pass_score"`
	TimeLimitMinutes int       `gorm:"not null;column:time_limit_minutes" json:"time_limit_minutes"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (Quiz) TableName() string { return "lesson_quiz" }

func (q *Quiz) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// LessonResource is the resolved detail document of a lesson. Exactly one of the
// pointers matching Type is set.
type LessonResource struct {
	Type   LessonType
	Video  *Video
	Theory *Theory
	Quiz   *Quiz
}

func (r *LessonResource) ID() uuid.UUID {
	switch {
	case r == nil:
		return uuid.Nil
	case r.Type == LessonTypeVideo && r.Video != nil:
		return r.Video.ID
	case r.Type == LessonTypeTheory && r.Theory != nil:
		return r.Theory.ID
	case r.Type == LessonTypeQuiz && r.Quiz != nil:
		return r.Quiz.ID
	default:
		return uuid.Nil
	}
}

func (r LessonResource) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case LessonTypeVideo:
		return json.Marshal(r.Video)
	case LessonTypeTheory:
		return json.Marshal(r.Theory)
	case LessonTypeQuiz:
		return json.Marshal(r.Quiz)
	default:
		return []byte("null"), nil
	}
}
