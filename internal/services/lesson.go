package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

const defaultPassScore = 50

// LessonResourceInput carries the fields of every resource type; only those of the lesson's
// type are read.
type LessonResourceInput struct {
	URL         *string  `json:"url"`
	Duration    *int     `json:"duration"`
	Content     *string  `json:"content"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	PassScore   *float64 `json:"pass_score"`
	TimeLimit   *int     `json:"time_limit"`
}

type LessonInput struct {
	Title     *string              `json:"title"`
	Type      types.LessonType     `json:"type"`
	IsPreview *bool                `json:"is_preview"`
	Position  *int                 `json:"position"`
	Resource  *LessonResourceInput `json:"resource"`
}

type LessonService interface {
	Create(ctx context.Context, moduleID uuid.UUID, in LessonInput) (*types.Lesson, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error)
	Update(ctx context.Context, id uuid.UUID, in LessonInput) (*types.Lesson, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Complete marks a video or theory lesson complete in the caller's enrollment.
	Complete(ctx context.Context, id uuid.UUID) (*types.Enrollment, error)
	// DeleteLessonTree removes a lesson, its resource, and for quizzes its questions and attempts.
	// Callers recompute enrollment progress once the whole delete is done.
	DeleteLessonTree(dbc dbctx.Context, lesson *types.Lesson) error
}

type lessonService struct {
	db                 *gorm.DB
	log                *logger.Logger
	courseRepo         repos.CourseRepo
	moduleRepo         repos.ModuleRepo
	lessonRepo         repos.LessonRepo
	lessonResourceRepo repos.LessonResourceRepo
	questionRepo       repos.QuestionRepo
	attemptRepo        repos.AttemptRepo
	progress           *ProgressTracker
}

func NewLessonService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	moduleRepo repos.ModuleRepo,
	lessonRepo repos.LessonRepo,
	lessonResourceRepo repos.LessonResourceRepo,
	questionRepo repos.QuestionRepo,
	attemptRepo repos.AttemptRepo,
	progress *ProgressTracker,
) LessonService {
	return &lessonService{
		db:                 db,
		log:                log.With("service", "LessonService"),
		courseRepo:         courseRepo,
		moduleRepo:         moduleRepo,
		lessonRepo:         lessonRepo,
		lessonResourceRepo: lessonResourceRepo,
		questionRepo:       questionRepo,
		attemptRepo:        attemptRepo,
		progress:           progress,
	}
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// buildLessonResource turns create input into a resource document of typ.
func buildLessonResource(typ types.LessonType, in *LessonResourceInput, lessonTitle string) (*types.LessonResource, error) {
	if in == nil {
		return nil, apierr.BadRequest("invalid_resource", "resource is required")
	}
	switch typ {
	case types.LessonTypeVideo:
		if in.URL == nil || !validHTTPURL(strings.TrimSpace(*in.URL)) {
			return nil, apierr.BadRequest("invalid_resource", "video url must be an http(s) url")
		}
		v := &types.Video{URL: strings.TrimSpace(*in.URL)}
		if in.Duration != nil {
			if *in.Duration < 0 {
				return nil, apierr.BadRequest("invalid_resource", "duration must not be negative")
			}
			v.DurationSeconds = *in.Duration
		}
		return &types.LessonResource{Type: typ, Video: v}, nil
	case types.LessonTypeTheory:
		if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
			return nil, apierr.BadRequest("invalid_resource", "theory content is required")
		}
		return &types.LessonResource{Type: typ, Theory: &types.Theory{Content: *in.Content}}, nil
	case types.LessonTypeQuiz:
		q := &types.Quiz{Title: lessonTitle, PassScore: defaultPassScore}
		if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
			q.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			q.Description = strings.TrimSpace(*in.Description)
		}
		if in.PassScore != nil {
			q.PassScore = *in.PassScore
		}
		if in.TimeLimit != nil {
			q.TimeLimitMinutes = *in.TimeLimit
		}
		if err := validateQuiz(q); err != nil {
			return nil, err
		}
		return &types.LessonResource{Type: typ, Quiz: q}, nil
	default:
		return nil, apierr.BadRequest("invalid_lesson", "type must be video, theory or quiz")
	}
}

func validateQuiz(q *types.Quiz) error {
	if q.PassScore < 0 || q.PassScore > 100 {
		return apierr.BadRequest("invalid_resource", "pass_score must be between 0 and 100")
	}
	if q.TimeLimitMinutes < 0 {
		return apierr.BadRequest("invalid_resource", "time_limit must not be negative")
	}
	return nil
}

// resourceUpdates applies a patch to res and returns the changed columns.
func resourceUpdates(res *types.LessonResource, in *LessonResourceInput) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if in == nil || res == nil {
		return updates, nil
	}
	switch res.Type {
	case types.LessonTypeVideo:
		if in.URL != nil {
			u := strings.TrimSpace(*in.URL)
			if !validHTTPURL(u) {
				return nil, apierr.BadRequest("invalid_resource", "video url must be an http(s) url")
			}
			res.Video.URL = u
			updates["url"] = u
		}
		if in.Duration != nil {
			if *in.Duration < 0 {
				return nil, apierr.BadRequest("invalid_resource", "duration must not be negative")
			}
			res.Video.DurationSeconds = *in.Duration
			updates["duration_seconds"] = *in.Duration
		}
	case types.LessonTypeTheory:
		if in.Content != nil {
			if strings.TrimSpace(*in.Content) == "" {
				return nil, apierr.BadRequest("invalid_resource", "theory content is required")
			}
			res.Theory.Content = *in.Content
			updates["content"] = *in.Content
		}
	case types.LessonTypeQuiz:
		if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
			res.Quiz.Title = strings.TrimSpace(*in.Title)
			updates["title"] = res.Quiz.Title
		}
		if in.Description != nil {
			res.Quiz.Description = strings.TrimSpace(*in.Description)
			updates["description"] = res.Quiz.Description
		}
		if in.PassScore != nil {
			res.Quiz.PassScore = *in.PassScore
			updates["pass_score"] = *in.PassScore
		}
		if in.TimeLimit != nil {
			res.Quiz.TimeLimitMinutes = *in.TimeLimit
			updates["time_limit_minutes"] = *in.TimeLimit
		}
		if err := validateQuiz(res.Quiz); err != nil {
			return nil, err
		}
	}
	return updates, nil
}

func (ls *lessonService) Create(ctx context.Context, moduleID uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apierr.BadRequest("invalid_lesson", "title is required")
	}
	if !in.Type.Valid() {
		return nil, apierr.BadRequest("invalid_lesson", "type must be video, theory or quiz")
	}
	if in.Position != nil && *in.Position < 0 {
		return nil, apierr.BadRequest("invalid_lesson", "position must not be negative")
	}
	title := strings.TrimSpace(*in.Title)
	res, err := buildLessonResource(in.Type, in.Resource, title)
	if err != nil {
		return nil, err
	}

	var (
		out     *types.Lesson
		course  *types.Course
		changes []ProgressChange
	)
	err = withTx(ls.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		m, c, err := loadManagedModule(inner, ls.moduleRepo, ls.courseRepo, moduleID)
		if err != nil {
			return err
		}
		if err := ls.lessonResourceRepo.Create(inner, res); err != nil {
			return fmt.Errorf("create lesson resource: %w", err)
		}
		lesson := &types.Lesson{
			ModuleID:   m.ID,
			CourseID:   m.CourseID,
			Title:      title,
			Type:       in.Type,
			ResourceID: res.ID(),
			Resource:   res,
		}
		if in.IsPreview != nil {
			lesson.IsPreview = *in.IsPreview
		}
		if in.Position != nil {
			lesson.Position = *in.Position
		} else {
			next, err := ls.lessonRepo.NextPosition(inner, m.ID)
			if err != nil {
				return fmt.Errorf("next position: %w", err)
			}
			lesson.Position = next
		}
		if _, err := ls.lessonRepo.Create(inner, []*types.Lesson{lesson}); err != nil {
			return fmt.Errorf("create lesson: %w", err)
		}
		changes, err = ls.progress.RecomputeCourse(inner, m.CourseID)
		if err != nil {
			return err
		}
		out, course = lesson, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	ls.progress.AfterCourseChange(ctx, changes, course)
	return out, nil
}

// checkLessonAccess allows course managers, enrolled learners, and anyone signed in for preview
// lessons of a published course.
func checkLessonAccess(dbc dbctx.Context, rd *ctxutil.RequestData, course *types.Course, lesson *types.Lesson, enrollmentRepo repos.EnrollmentRepo) error {
	if canManageCourse(rd, course) {
		return nil
	}
	if course == nil || !course.IsPublished() {
		return apierr.NotFound("lesson not found")
	}
	if lesson.IsPreview {
		return nil
	}
	e, err := enrollmentRepo.GetByUserAndCourse(dbc, rd.UserID, course.ID)
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if e == nil {
		return apierr.Forbidden("enroll in the course to access this lesson")
	}
	return nil
}

func loadLesson(dbc dbctx.Context, lessonRepo repos.LessonRepo, courseRepo repos.CourseRepo, id uuid.UUID) (*types.Lesson, *types.Course, error) {
	lesson, err := lessonRepo.GetByID(dbc, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil {
		return nil, nil, apierr.NotFound("lesson not found")
	}
	course, err := courseRepo.GetByID(dbc, lesson.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, nil, apierr.NotFound("lesson not found")
	}
	return lesson, course, nil
}

func (ls *lessonService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	lesson, course, err := loadLesson(dbc, ls.lessonRepo, ls.courseRepo, id)
	if err != nil {
		return nil, err
	}
	if err := checkLessonAccess(dbc, rd, course, lesson, ls.progress.enrollmentRepo); err != nil {
		return nil, err
	}
	res, err := ls.lessonResourceRepo.Get(dbc, lesson.Type, lesson.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("load lesson resource: %w", err)
	}
	if res == nil {
		ls.log.Warn("Lesson resource missing", "lesson_id", lesson.ID, "type", lesson.Type)
	}
	lesson.Resource = res
	return lesson, nil
}

func (ls *lessonService) Update(ctx context.Context, id uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if in.Type != "" {
		return nil, apierr.BadRequest("invalid_lesson", "lesson type cannot be changed")
	}
	var out *types.Lesson
	err := withTx(ls.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		lesson, err := ls.lessonRepo.GetByID(inner, id)
		if err != nil {
			return fmt.Errorf("load lesson: %w", err)
		}
		if lesson == nil {
			return apierr.NotFound("lesson not found")
		}
		if _, _, err := loadManagedCourse(inner, ls.courseRepo, lesson.CourseID); err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apierr.BadRequest("invalid_lesson", "title is required")
			}
			lesson.Title = title
			updates["title"] = title
		}
		if in.IsPreview != nil {
			lesson.IsPreview = *in.IsPreview
			updates["is_preview"] = *in.IsPreview
		}
		if in.Position != nil {
			if *in.Position < 0 {
				return apierr.BadRequest("invalid_lesson", "position must not be negative")
			}
			lesson.Position = *in.Position
			updates["position"] = *in.Position
		}
		if err := ls.lessonRepo.UpdateFields(inner, id, updates); err != nil {
			return fmt.Errorf("update lesson: %w", err)
		}

		res, err := ls.lessonResourceRepo.Get(inner, lesson.Type, lesson.ResourceID)
		if err != nil {
			return fmt.Errorf("load lesson resource: %w", err)
		}
		if res != nil && in.Resource != nil {
			resUpdates, err := resourceUpdates(res, in.Resource)
			if err != nil {
				return err
			}
			if err := ls.lessonResourceRepo.UpdateFields(inner, lesson.Type, lesson.ResourceID, resUpdates); err != nil {
				return fmt.Errorf("update lesson resource: %w", err)
			}
		}
		lesson.Resource = res
		out = lesson
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the lesson tree and re-derives progress for the course's enrollments.
func (ls *lessonService) Delete(ctx context.Context, id uuid.UUID) error {
	var (
		course  *types.Course
		changes []ProgressChange
	)
	err := withTx(ls.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		lesson, err := ls.lessonRepo.GetByID(inner, id)
		if err != nil {
			return fmt.Errorf("load lesson: %w", err)
		}
		if lesson == nil {
			return apierr.NotFound("lesson not found")
		}
		c, _, err := loadManagedCourse(inner, ls.courseRepo, lesson.CourseID)
		if err != nil {
			return err
		}
		if err := ls.DeleteLessonTree(inner, lesson); err != nil {
			return err
		}
		changes, err = ls.progress.RecomputeCourse(inner, lesson.CourseID)
		course = c
		return err
	})
	if err != nil {
		return err
	}
	ls.progress.AfterCourseChange(ctx, changes, course)
	return nil
}

func (ls *lessonService) DeleteLessonTree(dbc dbctx.Context, lesson *types.Lesson) error {
	if lesson.Type == types.LessonTypeQuiz {
		questions, err := ls.questionRepo.GetByQuizIDs(dbc, []uuid.UUID{lesson.ResourceID})
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		if err := ls.questionRepo.FullDeleteResources(dbc, questions); err != nil {
			return fmt.Errorf("delete question resources: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(questions))
		for _, q := range questions {
			ids = append(ids, q.ID)
		}
		if err := ls.questionRepo.FullDeleteByIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if err := ls.attemptRepo.FullDeleteByLessonIDs(dbc, []uuid.UUID{lesson.ID}); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
	}
	if err := ls.lessonResourceRepo.FullDeleteByIDs(dbc, lesson.Type, []uuid.UUID{lesson.ResourceID}); err != nil {
		return fmt.Errorf("delete lesson resource: %w", err)
	}
	return ls.lessonRepo.FullDeleteByIDs(dbc, []uuid.UUID{lesson.ID})
}

func (ls *lessonService) Complete(ctx context.Context, id uuid.UUID) (*types.Enrollment, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var (
		out      *types.Enrollment
		finished bool
		course   *types.Course
	)
	err = withTx(ls.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		lesson, c, err := loadLesson(inner, ls.lessonRepo, ls.courseRepo, id)
		if err != nil {
			return err
		}
		if lesson.Type == types.LessonTypeQuiz {
			return apierr.BadRequest("quiz_lesson", "quiz lessons are completed by passing the quiz")
		}
		e, err := ls.progress.enrollmentRepo.GetByUserAndCourse(inner, rd.UserID, lesson.CourseID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if e == nil {
			return apierr.Forbidden("enroll in the course to track progress")
		}
		finished, err = ls.progress.MarkLessonComplete(inner, e, lesson.ID)
		if err != nil {
			return err
		}
		out, course = e, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	ls.progress.AfterCommit(ctx, out, course, finished)
	return out, nil
}
