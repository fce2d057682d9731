package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/learning/grading"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

// submitGrace absorbs clock skew and network latency at the end of a timed quiz.
const submitGrace = 30 * time.Second

type AttemptService interface {
	// Start opens an attempt on a quiz lesson, or returns the caller's attempt that is still open.
	Start(ctx context.Context, lessonID uuid.UUID) (*types.Attempt, error)
	Submit(ctx context.Context, attemptID uuid.UUID, answers []types.AttemptAnswer) (*types.Attempt, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Attempt, error)
	ListMine(dbc dbctx.Context, lessonID uuid.UUID) ([]*types.Attempt, error)
}

type attemptService struct {
	db                 *gorm.DB
	log                *logger.Logger
	courseRepo         repos.CourseRepo
	lessonRepo         repos.LessonRepo
	lessonResourceRepo repos.LessonResourceRepo
	questionRepo       repos.QuestionRepo
	attemptRepo        repos.AttemptRepo
	progress           *ProgressTracker
}

func NewAttemptService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lessonRepo repos.LessonRepo,
	lessonResourceRepo repos.LessonResourceRepo,
	questionRepo repos.QuestionRepo,
	attemptRepo repos.AttemptRepo,
	progress *ProgressTracker,
) AttemptService {
	return &attemptService{
		db:                 db,
		log:                log.With("service", "AttemptService"),
		courseRepo:         courseRepo,
		lessonRepo:         lessonRepo,
		lessonResourceRepo: lessonResourceRepo,
		questionRepo:       questionRepo,
		attemptRepo:        attemptRepo,
		progress:           progress,
	}
}

// checkQuizAccess requires a quiz lesson the caller is enrolled in or manages. Preview does not
// open quizzes.
func (as *attemptService) checkQuizAccess(dbc dbctx.Context, rd *ctxutil.RequestData, lessonID uuid.UUID) (*types.Lesson, *types.Course, error) {
	lesson, course, err := loadLesson(dbc, as.lessonRepo, as.courseRepo, lessonID)
	if err != nil {
		return nil, nil, err
	}
	if lesson.Type != types.LessonTypeQuiz {
		return nil, nil, apierr.BadRequest("not_a_quiz", "attempts are only possible on quiz lessons")
	}
	if canManageCourse(rd, course) {
		return lesson, course, nil
	}
	if !course.IsPublished() {
		return nil, nil, apierr.NotFound("lesson not found")
	}
	e, err := as.progress.enrollmentRepo.GetByUserAndCourse(dbc, rd.UserID, course.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load enrollment: %w", err)
	}
	if e == nil {
		return nil, nil, apierr.Forbidden("enroll in the course to take this quiz")
	}
	return lesson, course, nil
}

func (as *attemptService) loadQuiz(dbc dbctx.Context, lesson *types.Lesson) (*types.Quiz, error) {
	res, err := as.lessonResourceRepo.Get(dbc, types.LessonTypeQuiz, lesson.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if res == nil || res.Quiz == nil {
		return nil, fmt.Errorf("quiz %s missing for lesson %s", lesson.ResourceID, lesson.ID)
	}
	return res.Quiz, nil
}

func expired(a *types.Attempt, quiz *types.Quiz, now time.Time) bool {
	if quiz.TimeLimitMinutes <= 0 {
		return false
	}
	deadline := a.StartedAt.Add(time.Duration(quiz.TimeLimitMinutes)*time.Minute + submitGrace)
	return now.After(deadline)
}

// closeExpired submits an overdue attempt with no answers so a new one can be opened.
func (as *attemptService) closeExpired(dbc dbctx.Context, a *types.Attempt, now time.Time) error {
	total, err := as.questionRepo.CountByQuizID(dbc, a.QuizID)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	_, err = as.attemptRepo.Submit(dbc, a.ID, repos.AttemptResult{
		SubmittedAt: now,
		Total:       int(total),
	})
	return err
}

func (as *attemptService) Start(ctx context.Context, lessonID uuid.UUID) (*types.Attempt, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Attempt
	err = withTx(as.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		lesson, course, err := as.checkQuizAccess(inner, rd, lessonID)
		if err != nil {
			return err
		}
		quiz, err := as.loadQuiz(inner, lesson)
		if err != nil {
			return err
		}
		open, err := as.attemptRepo.GetOpen(inner, rd.UserID, lesson.ID)
		if err != nil {
			return fmt.Errorf("load open attempt: %w", err)
		}
		now := time.Now().UTC()
		if open != nil {
			if !expired(open, quiz, now) {
				out = open
				return nil
			}
			if err := as.closeExpired(inner, open, now); err != nil {
				return fmt.Errorf("close expired attempt: %w", err)
			}
		}
		a := &types.Attempt{
			UserID:    rd.UserID,
			LessonID:  lesson.ID,
			QuizID:    quiz.ID,
			CourseID:  course.ID,
			StartedAt: now,
			Answers:   datatypes.JSONSlice[types.AttemptAnswer]{},
		}
		if _, err := as.attemptRepo.Create(inner, []*types.Attempt{a}); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		out = a
		return nil
	})
	if err != nil && isUniqueViolation(err) {
		// A concurrent start won; its attempt is the open one.
		open, getErr := as.attemptRepo.GetOpen(dbctx.Context{Ctx: ctx}, rd.UserID, lessonID)
		if getErr != nil {
			return nil, fmt.Errorf("load open attempt: %w", getErr)
		}
		if open != nil {
			return open, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (as *attemptService) Submit(ctx context.Context, attemptID uuid.UUID, answers []types.AttemptAnswer) (*types.Attempt, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var (
		out        *types.Attempt
		enrollment *types.Enrollment
		course     *types.Course
		finished   bool
	)
	err = withTx(as.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		a, err := as.attemptRepo.GetByID(inner, attemptID)
		if err != nil {
			return fmt.Errorf("load attempt: %w", err)
		}
		if a == nil {
			return apierr.NotFound("attempt not found")
		}
		if a.UserID != rd.UserID {
			return apierr.Forbidden("this attempt belongs to another user")
		}
		if a.SubmittedAt != nil {
			return apierr.BadRequest("already_submitted", "attempt already submitted")
		}
		lesson, c, err := loadLesson(inner, as.lessonRepo, as.courseRepo, a.LessonID)
		if err != nil {
			return err
		}
		quiz, err := as.loadQuiz(inner, lesson)
		if err != nil {
			return err
		}
		questions, err := as.questionRepo.GetByQuizIDs(inner, []uuid.UUID{a.QuizID})
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		if err := as.questionRepo.GetResources(inner, questions); err != nil {
			return fmt.Errorf("load question resources: %w", err)
		}

		now := time.Now().UTC()
		if expired(a, quiz, now) {
			as.log.Info("Attempt submitted after time limit", "attempt_id", a.ID)
			answers = nil
		}
		result, err := grading.Grade(questions, answers, quiz.PassScore)
		if err != nil {
			if errors.Is(err, grading.ErrMissingResource) {
				return fmt.Errorf("grade attempt: %w", err)
			}
			return apierr.BadRequest("invalid_answers", err.Error())
		}
		ok, err := as.attemptRepo.Submit(inner, a.ID, repos.AttemptResult{
			SubmittedAt: now,
			Score:       result.Score,
			IsPassed:    result.IsPassed,
			Correct:     result.Correct,
			Total:       result.Total,
			Answers:     result.Answers,
		})
		if err != nil {
			return fmt.Errorf("submit attempt: %w", err)
		}
		if !ok {
			return apierr.BadRequest("already_submitted", "attempt already submitted")
		}
		a.SubmittedAt = &now
		a.Score = result.Score
		a.IsPassed = result.IsPassed
		a.Correct = result.Correct
		a.Total = result.Total
		a.Answers = result.Answers
		out = a

		if !result.IsPassed {
			return nil
		}
		e, err := as.progress.enrollmentRepo.GetByUserAndCourse(inner, rd.UserID, a.CourseID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if e == nil {
			return nil
		}
		finished, err = as.progress.MarkLessonComplete(inner, e, lesson.ID)
		if err != nil {
			return err
		}
		enrollment, course = e, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncQuizAttempt(out.IsPassed)
	if enrollment != nil {
		as.progress.AfterCommit(ctx, enrollment, course, finished)
	}
	return out, nil
}

func (as *attemptService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Attempt, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	a, err := as.attemptRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	if a == nil {
		return nil, apierr.NotFound("attempt not found")
	}
	if a.UserID == rd.UserID {
		return a, nil
	}
	course, err := as.courseRepo.GetByID(dbc, a.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if !canManageCourse(rd, course) {
		return nil, apierr.NotFound("attempt not found")
	}
	return a, nil
}

func (as *attemptService) ListMine(dbc dbctx.Context, lessonID uuid.UUID) ([]*types.Attempt, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return as.attemptRepo.ListByUserAndLesson(dbc, rd.UserID, lessonID)
}
