package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/learning/grading"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type ChoiceInput struct {
	Options []types.ChoiceOption `json:"options"`
}

type FillInInput struct {
	Answers       []string `json:"answers"`
	CaseSensitive bool     `json:"case_sensitive"`
}

// QuestionInput is used for create and patch. On patch a resource payload replaces the answer key,
// and may change the question type when Type is set.
type QuestionInput struct {
	Type           types.QuestionType `json:"type"`
	Content        *string            `json:"content"`
	Explanation    *string            `json:"explanation"`
	Points         *int               `json:"points"`
	Position       *int               `json:"position"`
	SingleChoice   *ChoiceInput       `json:"single_choice"`
	MultipleChoice *ChoiceInput       `json:"multiple_choice"`
	FillIn         *FillInInput       `json:"fill_in"`
}

func (in QuestionInput) hasResource() bool {
	return in.SingleChoice != nil || in.MultipleChoice != nil || in.FillIn != nil
}

func trimOptions(opts []types.ChoiceOption) datatypes.JSONSlice[types.ChoiceOption] {
	out := make(datatypes.JSONSlice[types.ChoiceOption], 0, len(opts))
	for _, o := range opts {
		out = append(out, types.ChoiceOption{
			ID:        strings.TrimSpace(o.ID),
			Text:      strings.TrimSpace(o.Text),
			IsCorrect: o.IsCorrect,
		})
	}
	return out
}

// buildQuestionResource turns the payload matching typ into a validated answer key.
func buildQuestionResource(typ types.QuestionType, in QuestionInput) (*types.QuestionResource, error) {
	if !typ.Valid() {
		return nil, apierr.BadRequest("invalid_question", "type must be single_choice, multiple_choice or fill_in")
	}
	res := &types.QuestionResource{Type: typ}
	switch typ {
	case types.QuestionTypeSingleChoice:
		if in.SingleChoice == nil {
			return nil, apierr.BadRequest("invalid_question", "single_choice payload is required")
		}
		res.SingleChoice = &types.SingleChoice{Options: trimOptions(in.SingleChoice.Options)}
	case types.QuestionTypeMultipleChoice:
		if in.MultipleChoice == nil {
			return nil, apierr.BadRequest("invalid_question", "multiple_choice payload is required")
		}
		res.MultipleChoice = &types.MultipleChoice{Options: trimOptions(in.MultipleChoice.Options)}
	case types.QuestionTypeFillIn:
		if in.FillIn == nil {
			return nil, apierr.BadRequest("invalid_question", "fill_in payload is required")
		}
		answers := make(datatypes.JSONSlice[string], 0, len(in.FillIn.Answers))
		for _, a := range in.FillIn.Answers {
			if a = strings.TrimSpace(a); a != "" {
				answers = append(answers, a)
			}
		}
		res.FillIn = &types.FillIn{Answers: answers, CaseSensitive: in.FillIn.CaseSensitive}
	}
	if err := grading.Validate(res); err != nil {
		return nil, apierr.BadRequest("invalid_question", err.Error())
	}
	return res, nil
}

type QuestionService interface {
	Create(ctx context.Context, lessonID uuid.UUID, in QuestionInput) (*types.Question, error)
	// ListByLesson returns the quiz questions; answer keys are redacted unless the caller manages the course.
	ListByLesson(dbc dbctx.Context, lessonID uuid.UUID) ([]*types.Question, error)
	Update(ctx context.Context, id uuid.UUID, in QuestionInput) (*types.Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type questionService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lessonRepo     repos.LessonRepo
	questionRepo   repos.QuestionRepo
	enrollmentRepo repos.EnrollmentRepo
}

func NewQuestionService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, lessonRepo repos.LessonRepo, questionRepo repos.QuestionRepo, enrollmentRepo repos.EnrollmentRepo) QuestionService {
	return &questionService{
		db:             db,
		log:            log.With("service", "QuestionService"),
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		questionRepo:   questionRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (qs *questionService) loadManagedQuiz(dbc dbctx.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	lesson, _, err := loadLesson(dbc, qs.lessonRepo, qs.courseRepo, lessonID)
	if err != nil {
		return nil, err
	}
	if _, _, err := loadManagedCourse(dbc, qs.courseRepo, lesson.CourseID); err != nil {
		return nil, err
	}
	if lesson.Type != types.LessonTypeQuiz {
		return nil, apierr.BadRequest("not_a_quiz", "questions belong to quiz lessons only")
	}
	return lesson, nil
}

// loadManagedQuestion returns the question with the lesson it belongs to, after checking the caller
// manages the course.
func (qs *questionService) loadManagedQuestion(dbc dbctx.Context, id uuid.UUID) (*types.Question, error) {
	q, err := qs.questionRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return nil, apierr.NotFound("question not found")
	}
	lesson, err := qs.lessonRepo.GetByQuizID(dbc, q.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil {
		return nil, apierr.NotFound("question not found")
	}
	if _, _, err := loadManagedCourse(dbc, qs.courseRepo, lesson.CourseID); err != nil {
		return nil, err
	}
	return q, nil
}

func (qs *questionService) Create(ctx context.Context, lessonID uuid.UUID, in QuestionInput) (*types.Question, error) {
	content := ""
	if in.Content != nil {
		content = strings.TrimSpace(*in.Content)
	}
	if content == "" {
		return nil, apierr.BadRequest("invalid_question", "content is required")
	}
	points := 1
	if in.Points != nil {
		if *in.Points <= 0 {
			return nil, apierr.BadRequest("invalid_question", "points must be positive")
		}
		points = *in.Points
	}
	res, err := buildQuestionResource(in.Type, in)
	if err != nil {
		return nil, err
	}
	var out *types.Question
	err = withTx(qs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		lesson, err := qs.loadManagedQuiz(inner, lessonID)
		if err != nil {
			return err
		}
		pos := 0
		if in.Position != nil && *in.Position >= 0 {
			pos = *in.Position
		} else if pos, err = qs.questionRepo.NextPosition(inner, lesson.ResourceID); err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		if err := qs.questionRepo.CreateResource(inner, res); err != nil {
			return fmt.Errorf("create question resource: %w", err)
		}
		q := &types.Question{
			QuizID:     lesson.ResourceID,
			Type:       in.Type,
			ResourceID: res.ID(),
			Content:    content,
			Points:     points,
			Position:   pos,
		}
		if in.Explanation != nil {
			q.Explanation = strings.TrimSpace(*in.Explanation)
		}
		if _, err := qs.questionRepo.Create(inner, []*types.Question{q}); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		q.Resource = res
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (qs *questionService) ListByLesson(dbc dbctx.Context, lessonID uuid.UUID) ([]*types.Question, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	lesson, course, err := loadLesson(dbc, qs.lessonRepo, qs.courseRepo, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Type != types.LessonTypeQuiz {
		return nil, apierr.BadRequest("not_a_quiz", "questions belong to quiz lessons only")
	}
	if err := checkLessonAccess(dbc, rd, course, lesson, qs.enrollmentRepo); err != nil {
		return nil, err
	}
	questions, err := qs.questionRepo.GetByQuizIDs(dbc, []uuid.UUID{lesson.ResourceID})
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if err := qs.questionRepo.GetResources(dbc, questions); err != nil {
		return nil, fmt.Errorf("load question resources: %w", err)
	}
	if !canManageCourse(rd, course) {
		for _, q := range questions {
			q.Resource = q.Resource.Redacted()
			q.Explanation = ""
		}
	}
	return questions, nil
}

func (qs *questionService) Update(ctx context.Context, id uuid.UUID, in QuestionInput) (*types.Question, error) {
	var out *types.Question
	err := withTx(qs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		q, err := qs.loadManagedQuestion(inner, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Content != nil {
			content := strings.TrimSpace(*in.Content)
			if content == "" {
				return apierr.BadRequest("invalid_question", "content is required")
			}
			q.Content = content
			updates["content"] = content
		}
		if in.Explanation != nil {
			q.Explanation = strings.TrimSpace(*in.Explanation)
			updates["explanation"] = q.Explanation
		}
		if in.Points != nil {
			if *in.Points <= 0 {
				return apierr.BadRequest("invalid_question", "points must be positive")
			}
			q.Points = *in.Points
			updates["points"] = *in.Points
		}
		if in.Position != nil {
			if *in.Position < 0 {
				return apierr.BadRequest("invalid_question", "position must not be negative")
			}
			q.Position = *in.Position
			updates["position"] = *in.Position
		}
		if err := qs.questionRepo.UpdateFields(inner, q.ID, updates); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		typ := q.Type
		if in.Type != "" {
			typ = in.Type
		}
		switch {
		case in.hasResource() || typ != q.Type:
			res, err := buildQuestionResource(typ, in)
			if err != nil {
				return err
			}
			if err := qs.questionRepo.ReplaceResource(inner, q, res); err != nil {
				return fmt.Errorf("replace question resource: %w", err)
			}
		default:
			if err := qs.questionRepo.GetResources(inner, []*types.Question{q}); err != nil {
				return fmt.Errorf("load question resource: %w", err)
			}
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (qs *questionService) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(qs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		q, err := qs.loadManagedQuestion(inner, id)
		if err != nil {
			return err
		}
		if err := qs.questionRepo.FullDeleteResources(inner, []*types.Question{q}); err != nil {
			return fmt.Errorf("delete question resource: %w", err)
		}
		return qs.questionRepo.FullDeleteByIDs(inner, []uuid.UUID{q.ID})
	})
}
