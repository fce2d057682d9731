package learning

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeFillIn         QuestionType = "fill_in"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeFillIn:
		return true
	default:
		return false
	}
}

// Question is a shell; ResourceID points into the table selected by Type.
type Question struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Type        QuestionType `gorm:"not null;column:type" json:"type"`
	ResourceID  uuid.UUID    `gorm:"type:uuid;not null;column:resource_id" json:"resource_id"`
	Content     string       `gorm:"type:text;not null;column:content" json:"content"`
	Explanation string       `gorm:"type:text;column:explanation" json:"explanation,omitempty"`
	Points      int          `gorm:"not null;column:points" json:"points"`
	Position    int          `gorm:"not null;column:position" json:"position"`

	Resource *QuestionResource `gorm:"-" json:"resource,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Points <= 0 {
		q.Points = 1
	}
	return nil
}

type ChoiceOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

type SingleChoice struct {
	ID        uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	Options   datatypes.JSONSlice[ChoiceOption] `gorm:"column:options" json:"options"`
	CreatedAt time.Time                         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                         `gorm:"not null" json:"updated_at"`
}

func (SingleChoice) TableName() string { return "question_single_choice" }

func (s *SingleChoice) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type MultipleChoice struct {
	ID        uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	Options   datatypes.JSONSlice[ChoiceOption] `gorm:"column:options" json:"options"`
	CreatedAt time.Time                         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                         `gorm:"not null" json:"updated_at"`
}

func (MultipleChoice) TableName() string { return "question_multiple_choice" }

func (m *MultipleChoice) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type FillIn struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Answers       datatypes.JSONSlice[string] `gorm:"column:answers" json:"answers"`
	CaseSensitive bool                        `gorm:"not null;column:case_sensitive" json:"case_sensitive"`
	CreatedAt     time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null" json:"updated_at"`
}

func (FillIn) TableName() string { return "question_fill_in" }

func (f *FillIn) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// QuestionResource is the resolved answer key of a question.
type QuestionResource struct {
	Type           QuestionType
	SingleChoice   *SingleChoice
	MultipleChoice *MultipleChoice
	FillIn         *FillIn
}

func (r *QuestionResource) ID() uuid.UUID {
	switch {
	case r == nil:
		return uuid.Nil
	case r.Type == QuestionTypeSingleChoice && r.SingleChoice != nil:
		return r.SingleChoice.ID
	case r.Type == QuestionTypeMultipleChoice && r.MultipleChoice != nil:
		return r.MultipleChoice.ID
	case r.Type == QuestionTypeFillIn && r.FillIn != nil:
		return r.FillIn.ID
	default:
		return uuid.Nil
	}
}

// Redacted returns a copy safe to show a learner: option correctness cleared, fill-in answers dropped.
func (r *QuestionResource) Redacted() *QuestionResource {
	if r == nil {
		return nil
	}
	out := &QuestionResource{Type: r.Type}
	switch r.Type {
	case QuestionTypeSingleChoice:
		if r.SingleChoice != nil {
			cp := *r.SingleChoice
			cp.Options = hideCorrect(cp.Options)
			out.SingleChoice = &cp
		}
	case QuestionTypeMultipleChoice:
		if r.MultipleChoice != nil {
			cp := *r.MultipleChoice
			cp.Options = hideCorrect(cp.Options)
			out.MultipleChoice = &cp
		}
	case QuestionTypeFillIn:
		if r.FillIn != nil {
			cp := *r.FillIn
			cp.Answers = datatypes.JSONSlice[string]{}
			out.FillIn = &cp
		}
	}
	return out
}

func hideCorrect(opts datatypes.JSONSlice[ChoiceOption]) datatypes.JSONSlice[ChoiceOption] {
	out := make(datatypes.JSONSlice[ChoiceOption], len(opts))
	for i, o := range opts {
		out[i] = ChoiceOption{ID: o.ID, Text: o.Text}
	}
	return out
}

func (r QuestionResource) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case QuestionTypeSingleChoice:
		return json.Marshal(r.SingleChoice)
	case QuestionTypeMultipleChoice:
		return json.Marshal(r.MultipleChoice)
	case QuestionTypeFillIn:
		return json.Marshal(r.FillIn)
	default:
		return []byte("null"), nil
	}
}
