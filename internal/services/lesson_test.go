package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func TestLessonAccess(t *testing.T) {
	h := newHarness(t)
	instructor := h.user("teach@example.com", types.RoleInstructor)
	enrolled := h.user("learn@example.com", types.RoleStudent)
	outsider := h.user("browse@example.com", types.RoleStudent)
	admin := h.user("root@example.com", types.RoleAdmin)

	course := testutil.SeedCourse(t, h.ctx, h.db, instructor.ID, "20", nil)
	mod := testutil.SeedModule(t, h.ctx, h.db, course.ID, 0)
	preview := testutil.SeedTheoryLesson(t, h.ctx, h.db, mod, 0)
	locked := testutil.SeedTheoryLesson(t, h.ctx, h.db, mod, 1)
	if err := h.db.Model(&types.Lesson{}).Where("id = ?", preview.ID).Update("is_preview", true).Error; err != nil {
		t.Fatalf("mark preview: %v", err)
	}
	testutil.SeedEnrollment(t, h.ctx, h.db, enrolled.ID, course.ID)

	svc := h.lessonService()
	cases := []struct {
		name   string
		user   *types.User
		lesson uuid.UUID
		want   int
	}{
		{name: "preview for any signed in user", user: outsider, lesson: preview.ID, want: http.StatusOK},
		{name: "locked lesson for outsider", user: outsider, lesson: locked.ID, want: http.StatusForbidden},
		{name: "locked lesson for enrolled learner", user: enrolled, lesson: locked.ID, want: http.StatusOK},
		{name: "locked lesson for owner", user: instructor, lesson: locked.ID, want: http.StatusOK},
		{name: "locked lesson for admin", user: admin, lesson: locked.ID, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Get(dbctx.Context{Ctx: h.as(tc.user)}, tc.lesson)
			if tc.want == http.StatusOK {
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				if got.Resource == nil || got.Resource.Theory == nil {
					t.Fatalf("resource not resolved: %+v", got.Resource)
				}
				return
			}
			wantStatus(t, err, tc.want)
		})
	}

	t.Run("draft course hides preview", func(t *testing.T) {
		if err := h.db.Model(&types.Course{}).Where("id = ?", course.ID).Update("status", types.CourseStatusDraft).Error; err != nil {
			t.Fatalf("unpublish: %v", err)
		}
		_, err := svc.Get(dbctx.Context{Ctx: h.as(outsider)}, preview.ID)
		wantStatus(t, err, http.StatusNotFound)
		if _, err := svc.Get(dbctx.Context{Ctx: h.as(instructor)}, preview.ID); err != nil {
			t.Fatalf("owner on draft: %v", err)
		}
	})
}

func TestLessonDeleteRemovesTree(t *testing.T) {
	h := newHarness(t)
	f := seedQuiz(h, 50)
	attempt, err := h.attemptService().Start(h.as(f.student), f.lesson.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	instructor, err := h.users.GetByID(dbctx.Context{Ctx: h.ctx}, f.course.InstructorID)
	if err != nil || instructor == nil {
		t.Fatalf("load instructor: %v", err)
	}

	err = h.lessonService().Delete(h.as(f.student), f.lesson.ID)
	wantStatus(t, err, http.StatusForbidden)

	if err := h.lessonService().Delete(h.as(instructor), f.lesson.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	dbc := dbctx.Context{Ctx: h.ctx}
	if l, _ := h.lessons.GetByID(dbc, f.lesson.ID); l != nil {
		t.Fatalf("lesson still present")
	}
	if res, err := h.resources.Get(dbc, types.LessonTypeQuiz, f.lesson.ResourceID); err != nil || res != nil {
		t.Fatalf("quiz resource: err=%v res=%+v", err, res)
	}
	qs, err := h.questions.GetByQuizIDs(dbc, []uuid.UUID{f.lesson.ResourceID})
	if err != nil || len(qs) != 0 {
		t.Fatalf("questions: err=%v n=%d", err, len(qs))
	}
	var choices int64
	h.db.Model(&types.SingleChoice{}).Where("id = ?", f.single.ResourceID).Count(&choices)
	if choices != 0 {
		t.Fatalf("single choice resource still present")
	}
	if a, _ := h.attempts.GetByID(dbc, attempt.ID); a != nil {
		t.Fatalf("attempt still present")
	}
}

func TestLessonSetChangesRecomputeProgress(t *testing.T) {
	h := newHarness(t)
	instructor := h.user("teach@example.com", types.RoleInstructor)
	student := h.user("learn@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, instructor.ID, "0", nil)
	mod := testutil.SeedModule(t, h.ctx, h.db, course.ID, 0)
	first := testutil.SeedTheoryLesson(t, h.ctx, h.db, mod, 0)
	second := testutil.SeedTheoryLesson(t, h.ctx, h.db, mod, 1)
	testutil.SeedEnrollment(t, h.ctx, h.db, student.ID, course.ID)

	lessons := h.lessonService()
	if _, err := lessons.Complete(h.as(student), first.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if e := h.enrollment(student.ID, course.ID); e.ProgressPercent != 50 {
		t.Fatalf("after first lesson: pct=%v", e.ProgressPercent)
	}

	if err := lessons.Delete(h.as(instructor), second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	e := h.enrollment(student.ID, course.ID)
	if e.ProgressPercent != 100 || e.CompletedAt == nil {
		t.Fatalf("after delete: pct=%v completed_at=%v", e.ProgressPercent, e.CompletedAt)
	}
	if h.rt.count("notification_created") != 1 {
		t.Fatalf("completion notifications: want=1 got=%d", h.rt.count("notification_created"))
	}

	_, err := lessons.Create(h.as(instructor), mod.ID, LessonInput{
		Title:    strPtr("Extra reading"),
		Type:     types.LessonTypeTheory,
		Resource: &LessonResourceInput{Content: strPtr("more")},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	e = h.enrollment(student.ID, course.ID)
	if e.ProgressPercent != 50 || e.CompletedAt == nil {
		t.Fatalf("after create: pct=%v completed_at=%v", e.ProgressPercent, e.CompletedAt)
	}

	extra := testutil.SeedModule(t, h.ctx, h.db, course.ID, 1)
	testutil.SeedTheoryLesson(t, h.ctx, h.db, extra, 0)
	if err := h.moduleService().Delete(h.as(instructor), extra.ID); err != nil {
		t.Fatalf("module Delete: %v", err)
	}
	if e := h.enrollment(student.ID, course.ID); e.ProgressPercent != 50 {
		t.Fatalf("after module delete: pct=%v", e.ProgressPercent)
	}
}
