package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func TestLessonRepoWithResources(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	logg := testutil.Logger(t)
	lessons := NewLessonRepo(db, logg)
	resources := NewLessonResourceRepo(db, logg)

	u := testutil.SeedUser(t, ctx, tx, "lessonrepo@example.com", types.RoleInstructor)
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "0", nil)
	m := testutil.SeedModule(t, ctx, tx, c.ID, 0)

	res := &types.LessonResource{Type: types.LessonTypeVideo, Video: &types.Video{URL: "https://v", DurationSeconds: 90}}
	if err := resources.Create(dbc, res); err != nil {
		t.Fatalf("Create resource: %v", err)
	}
	if res.ID() == uuid.Nil {
		t.Fatalf("Create resource: id not assigned")
	}
	if err := resources.Create(dbc, &types.LessonResource{Type: types.LessonTypeQuiz}); err == nil {
		t.Fatalf("Create resource without payload: want error")
	}

	l := &types.Lesson{ModuleID: m.ID, CourseID: c.ID, Title: "video", Type: types.LessonTypeVideo, ResourceID: res.ID()}
	if _, err := lessons.Create(dbc, []*types.Lesson{l}); err != nil {
		t.Fatalf("Create lesson: %v", err)
	}

	got, err := resources.Get(dbc, l.Type, l.ResourceID)
	if err != nil || got == nil || got.Video == nil {
		t.Fatalf("Get resource: err=%v got=%+v", err, got)
	}
	if got.Video.DurationSeconds != 90 {
		t.Fatalf("Get resource: want duration=90 got=%d", got.Video.DurationSeconds)
	}
	if missing, err := resources.Get(dbc, types.LessonTypeTheory, l.ResourceID); err != nil || missing != nil {
		t.Fatalf("Get resource wrong type: err=%v got=%+v", err, missing)
	}

	if err := resources.UpdateFields(dbc, l.Type, l.ResourceID, map[string]interface{}{"url": "https://w"}); err != nil {
		t.Fatalf("UpdateFields resource: %v", err)
	}
	got, _ = resources.Get(dbc, l.Type, l.ResourceID)
	if got.Video.URL != "https://w" {
		t.Fatalf("UpdateFields resource: url=%s", got.Video.URL)
	}

	pos, err := lessons.NextPosition(dbc, m.ID)
	if err != nil || pos != 1 {
		t.Fatalf("NextPosition: want=1 got=%d err=%v", pos, err)
	}
	ids, err := lessons.GetIDsByCourseID(dbc, c.ID)
	if err != nil || len(ids) != 1 || ids[0] != l.ID {
		t.Fatalf("GetIDsByCourseID: err=%v ids=%v", err, ids)
	}

	if err := resources.FullDeleteByIDs(dbc, l.Type, []uuid.UUID{l.ResourceID}); err != nil {
		t.Fatalf("FullDeleteByIDs resource: %v", err)
	}
	if err := lessons.FullDeleteByIDs(dbc, []uuid.UUID{l.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs lesson: %v", err)
	}
	if row, err := lessons.GetByID(dbc, l.ID); err != nil || row != nil {
		t.Fatalf("after delete: err=%v row=%v", err, row)
	}
}

func TestLessonRepoGetByQuizID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	lessons := NewLessonRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "quizlookup@example.com", types.RoleInstructor)
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "0", nil)
	m := testutil.SeedModule(t, ctx, tx, c.ID, 0)
	lesson, quiz := testutil.SeedQuizLesson(t, ctx, tx, m, 0, 60)

	got, err := lessons.GetByQuizID(dbc, quiz.ID)
	if err != nil || got == nil || got.ID != lesson.ID {
		t.Fatalf("GetByQuizID: err=%v got=%v", err, got)
	}
	missing, err := lessons.GetByQuizID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByQuizID missing: err=%v got=%v", err, missing)
	}
}
