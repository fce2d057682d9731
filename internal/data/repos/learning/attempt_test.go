package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func TestAttemptRepoSubmitOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAttemptRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "attemptrepo@example.com", types.RoleStudent)
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "0", nil)
	m := testutil.SeedModule(t, ctx, tx, c.ID, 0)
	lesson, quiz := testutil.SeedQuizLesson(t, ctx, tx, m, 0, 50)

	a := &types.Attempt{UserID: u.ID, LessonID: lesson.ID, QuizID: quiz.ID, CourseID: c.ID}
	if _, err := repo.Create(dbc, []*types.Attempt{a}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status() != types.AttemptStatusInProgress {
		t.Fatalf("Status: want in_progress got=%s", a.Status())
	}

	open, err := repo.GetOpen(dbc, u.ID, lesson.ID)
	if err != nil || open == nil || open.ID != a.ID {
		t.Fatalf("GetOpen: err=%v open=%+v", err, open)
	}

	result := AttemptResult{
		SubmittedAt: time.Now().UTC(),
		Score:       50,
		IsPassed:    true,
		Correct:     1,
		Total:       2,
		Answers:     []types.AttemptAnswer{{QuestionID: uuid.New(), Text: "x"}},
	}
	ok, err := repo.Submit(dbc, a.ID, result)
	if err != nil || !ok {
		t.Fatalf("Submit: err=%v ok=%v", err, ok)
	}
	ok, err = repo.Submit(dbc, a.ID, result)
	if err != nil {
		t.Fatalf("Submit again: %v", err)
	}
	if ok {
		t.Fatalf("Submit again: want ok=false")
	}

	got, err := repo.GetByID(dbc, a.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v", err)
	}
	if got.SubmittedAt == nil || got.Score != 50 || !got.IsPassed || len(got.Answers) != 1 {
		t.Fatalf("GetByID: unexpected attempt %+v", got)
	}
	if open, _ := repo.GetOpen(dbc, u.ID, lesson.ID); open != nil {
		t.Fatalf("GetOpen after submit: want nil")
	}
}

func TestAttemptRepoOneOpenAttemptPerLesson(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAttemptRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "attemptunique@example.com", types.RoleStudent)
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "0", nil)
	m := testutil.SeedModule(t, ctx, tx, c.ID, 0)
	lesson, quiz := testutil.SeedQuizLesson(t, ctx, tx, m, 0, 50)

	first := &types.Attempt{UserID: u.ID, LessonID: lesson.ID, QuizID: quiz.ID, CourseID: c.ID}
	if _, err := repo.Create(dbc, []*types.Attempt{first}); err != nil {
		t.Fatalf("Create first: %v", err)
	}

	// A savepoint keeps the outer test transaction usable after the expected failure.
	err := tx.Transaction(func(inner *gorm.DB) error {
		second := &types.Attempt{UserID: u.ID, LessonID: lesson.ID, QuizID: quiz.ID, CourseID: c.ID}
		_, err := repo.Create(dbctx.Context{Ctx: ctx, Tx: inner}, []*types.Attempt{second})
		return err
	})
	if err == nil {
		t.Fatalf("Create second open attempt: want unique violation")
	}

	if _, err := repo.Submit(dbc, first.ID, AttemptResult{SubmittedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	third := &types.Attempt{UserID: u.ID, LessonID: lesson.ID, QuizID: quiz.ID, CourseID: c.ID}
	if _, err := repo.Create(dbc, []*types.Attempt{third}); err != nil {
		t.Fatalf("Create after submit: %v", err)
	}
	history, err := repo.ListByUserAndLesson(dbc, u.ID, lesson.ID)
	if err != nil || len(history) != 2 {
		t.Fatalf("ListByUserAndLesson: err=%v len=%d", err, len(history))
	}
}
