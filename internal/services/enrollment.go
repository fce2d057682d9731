package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

// ComputeProgress keeps the completed lessons that still belong to the course, without
// duplicates, and returns the rounded completion percentage.
func ComputeProgress(completed, courseLessons []uuid.UUID) ([]uuid.UUID, float64) {
	inCourse := make(map[uuid.UUID]struct{}, len(courseLessons))
	for _, id := range courseLessons {
		inCourse[id] = struct{}{}
	}
	seen := make(map[uuid.UUID]struct{}, len(completed))
	kept := make([]uuid.UUID, 0, len(completed))
	for _, id := range completed {
		if _, ok := inCourse[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	if len(inCourse) == 0 {
		return kept, 0
	}
	pct := 100 * float64(len(kept)) / float64(len(inCourse))
	return kept, math.Round(pct*100) / 100
}

// ProgressTracker owns every write to an enrollment's progress.
type ProgressTracker struct {
	log            *logger.Logger
	enrollmentRepo repos.EnrollmentRepo
	lessonRepo     repos.LessonRepo
	notifications  NotificationService
	realtime       RealtimeNotifier
}

func NewProgressTracker(log *logger.Logger, enrollmentRepo repos.EnrollmentRepo, lessonRepo repos.LessonRepo, notifications NotificationService, rt RealtimeNotifier) *ProgressTracker {
	return &ProgressTracker{
		log:            log.With("service", "ProgressTracker"),
		enrollmentRepo: enrollmentRepo,
		lessonRepo:     lessonRepo,
		notifications:  notifications,
		realtime:       rt,
	}
}

// MarkLessonComplete records lessonID and recomputes e in place. finished reports whether
// this call completed the course.
func (pt *ProgressTracker) MarkLessonComplete(dbc dbctx.Context, e *types.Enrollment, lessonID uuid.UUID) (bool, error) {
	completed := append([]uuid.UUID{}, e.CompletedLessons...)
	if !e.HasCompleted(lessonID) {
		completed = append(completed, lessonID)
	}
	e.CompletedLessons = completed
	return pt.Recompute(dbc, e)
}

// Recompute re-derives progress_percent from the stored lessons and persists it.
func (pt *ProgressTracker) Recompute(dbc dbctx.Context, e *types.Enrollment) (bool, error) {
	lessonIDs, err := pt.lessonRepo.GetIDsByCourseID(dbc, e.CourseID)
	if err != nil {
		return false, fmt.Errorf("load course lessons: %w", err)
	}
	return pt.apply(dbc, e, lessonIDs)
}

// ProgressChange is one enrollment touched by RecomputeCourse.
type ProgressChange struct {
	Enrollment *types.Enrollment
	Finished   bool
}

// RecomputeCourse re-derives every enrollment of a course after its lesson set changed.
func (pt *ProgressTracker) RecomputeCourse(dbc dbctx.Context, courseID uuid.UUID) ([]ProgressChange, error) {
	rows, err := pt.enrollmentRepo.GetByCourseID(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course enrollments: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	lessonIDs, err := pt.lessonRepo.GetIDsByCourseID(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course lessons: %w", err)
	}
	out := make([]ProgressChange, 0, len(rows))
	for _, e := range rows {
		finished, err := pt.apply(dbc, e, lessonIDs)
		if err != nil {
			return nil, fmt.Errorf("enrollment %s: %w", e.ID, err)
		}
		out = append(out, ProgressChange{Enrollment: e, Finished: finished})
	}
	return out, nil
}

// AfterCourseChange publishes the results of RecomputeCourse once the transaction committed.
func (pt *ProgressTracker) AfterCourseChange(ctx context.Context, changes []ProgressChange, course *types.Course) {
	for _, ch := range changes {
		pt.AfterCommit(ctx, ch.Enrollment, course, ch.Finished)
	}
}

func (pt *ProgressTracker) apply(dbc dbctx.Context, e *types.Enrollment, lessonIDs []uuid.UUID) (bool, error) {
	kept, pct := ComputeProgress(e.CompletedLessons, lessonIDs)
	finished := false
	if pct >= 100 && e.CompletedAt == nil {
		now := time.Now().UTC()
		e.CompletedAt = &now
		finished = true
	}
	e.CompletedLessons = kept
	e.ProgressPercent = pct
	if err := pt.enrollmentRepo.UpdateProgress(dbc, e.ID, kept, pct, e.CompletedAt); err != nil {
		return false, fmt.Errorf("update progress: %w", err)
	}
	return finished, nil
}

// AfterCommit publishes progress and, when the course was just finished, a notification.
func (pt *ProgressTracker) AfterCommit(ctx context.Context, e *types.Enrollment, course *types.Course, finished bool) {
	if pt == nil || e == nil {
		return
	}
	pt.realtime.EnrollmentProgress(e)
	if !finished || course == nil {
		return
	}
	if _, err := pt.notifications.Notify(ctx, []uuid.UUID{e.UserID}, NotificationDraft{
		Type:    types.NotificationTypeCourse,
		Title:   "Course completed",
		Message: fmt.Sprintf("You completed %q.", course.Title),
		Link:    "/courses/" + course.ID.String(),
	}); err != nil {
		pt.log.Warn("Failed to send completion notification", "error", err)
	}
}

type EnrollmentService interface {
	// Enroll joins a free course.
	Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error)
	ListMine(dbc dbctx.Context, q pagination.Query) (pagination.Page[*types.Enrollment], error)
	GetMine(dbc dbctx.Context, courseID uuid.UUID) (*types.Enrollment, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID, q pagination.Query) (pagination.Page[*types.Enrollment], error)
	// RecomputeAll re-derives progress for every enrollment in batches and returns how many rows it visited.
	RecomputeAll(ctx context.Context, batchSize int) (int, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	progress       *ProgressTracker
	notifications  NotificationService
}

func NewEnrollmentService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, enrollmentRepo repos.EnrollmentRepo, progress *ProgressTracker, notifications NotificationService) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		progress:       progress,
		notifications:  notifications,
	}
}

func (es *enrollmentService) Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var (
		out    *types.Enrollment
		course *types.Course
	)
	err = withTx(es.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, err := es.courseRepo.GetByID(inner, courseID)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if c == nil || !c.IsPublished() {
			return apierr.NotFound("course not found")
		}
		if c.InstructorID == rd.UserID {
			return apierr.BadRequest("own_course", "instructors cannot enroll in their own course")
		}
		if !c.IsFree() {
			return apierr.BadRequest("payment_required", "this course must be purchased")
		}
		existing, err := es.enrollmentRepo.GetByUserAndCourse(inner, rd.UserID, courseID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if existing != nil {
			return apierr.BadRequest("already_enrolled", "already enrolled in this course")
		}
		e := &types.Enrollment{UserID: rd.UserID, CourseID: courseID}
		if _, err := es.enrollmentRepo.Create(inner, []*types.Enrollment{e}); err != nil {
			if isUniqueViolation(err) {
				return apierr.BadRequest("already_enrolled", "already enrolled in this course")
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		out, course = e, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := es.notifications.Notify(ctx, []uuid.UUID{rd.UserID}, NotificationDraft{
		Type:    types.NotificationTypeEnrollment,
		Title:   "Enrolled",
		Message: fmt.Sprintf("You are now enrolled in %q.", course.Title),
		Link:    "/courses/" + course.ID.String(),
	}); err != nil {
		es.log.Warn("Failed to send enrollment notification", "error", err)
	}
	return out, nil
}

func (es *enrollmentService) ListMine(dbc dbctx.Context, q pagination.Query) (pagination.Page[*types.Enrollment], error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return pagination.Page[*types.Enrollment]{}, err
	}
	return es.enrollmentRepo.ListByUser(dbc, rd.UserID, q)
}

func (es *enrollmentService) GetMine(dbc dbctx.Context, courseID uuid.UUID) (*types.Enrollment, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	e, err := es.enrollmentRepo.GetByUserAndCourse(dbc, rd.UserID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if e == nil {
		return nil, apierr.NotFound("not enrolled in this course")
	}
	return e, nil
}

func (es *enrollmentService) ListByCourse(dbc dbctx.Context, courseID uuid.UUID, q pagination.Query) (pagination.Page[*types.Enrollment], error) {
	if _, _, err := loadManagedCourse(dbc, es.courseRepo, courseID); err != nil {
		return pagination.Page[*types.Enrollment]{}, err
	}
	return es.enrollmentRepo.ListByCourse(dbc, courseID, q)
}

func (es *enrollmentService) RecomputeAll(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	visited := 0
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		batch, err := es.enrollmentRepo.ListAfter(dbctx.Context{Ctx: ctx}, after, batchSize)
		if err != nil {
			return visited, fmt.Errorf("list enrollments: %w", err)
		}
		if len(batch) == 0 {
			return visited, nil
		}
		err = withTx(es.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
			for _, e := range batch {
				if _, err := es.progress.Recompute(inner, e); err != nil {
					return fmt.Errorf("enrollment %s: %w", e.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return visited, err
		}
		visited += len(batch)
		after = batch[len(batch)-1].ID
		es.log.Info("Recomputed enrollment progress", "visited", visited)
	}
}
