package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func TestQuestionRepoResources(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewQuestionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "questionrepo@example.com", types.RoleInstructor)
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "0", nil)
	m := testutil.SeedModule(t, ctx, tx, c.ID, 0)
	_, quiz := testutil.SeedQuizLesson(t, ctx, tx, m, 0, 50)

	q1 := testutil.SeedSingleChoice(t, ctx, tx, quiz.ID, 0)
	q2 := testutil.SeedFillIn(t, ctx, tx, quiz.ID, 1, false, "Paris")

	rows, err := repo.GetByQuizIDs(dbc, []uuid.UUID{quiz.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByQuizIDs: err=%v len=%d", err, len(rows))
	}
	if err := repo.GetResources(dbc, rows); err != nil {
		t.Fatalf("GetResources: %v", err)
	}
	if rows[0].ID != q1.ID || rows[0].Resource == nil || rows[0].Resource.SingleChoice == nil {
		t.Fatalf("GetResources single: %+v", rows[0].Resource)
	}
	if rows[1].ID != q2.ID || rows[1].Resource == nil || rows[1].Resource.FillIn == nil {
		t.Fatalf("GetResources fill in: %+v", rows[1].Resource)
	}
	if got := rows[1].Resource.FillIn.Answers; len(got) != 1 || got[0] != "Paris" {
		t.Fatalf("fill in answers: %v", got)
	}

	if n, err := repo.CountByQuizID(dbc, quiz.ID); err != nil || n != 2 {
		t.Fatalf("CountByQuizID: err=%v n=%d", err, n)
	}
	if pos, err := repo.NextPosition(dbc, quiz.ID); err != nil || pos != 2 {
		t.Fatalf("NextPosition: err=%v pos=%d", err, pos)
	}

	replacement := &types.QuestionResource{
		Type: types.QuestionTypeMultipleChoice,
		MultipleChoice: &types.MultipleChoice{Options: []types.ChoiceOption{
			{ID: "x", Text: "X", IsCorrect: true},
			{ID: "y", Text: "Y", IsCorrect: true},
		}},
	}
	oldResourceID := rows[0].ResourceID
	if err := repo.ReplaceResource(dbc, rows[0], replacement); err != nil {
		t.Fatalf("ReplaceResource: %v", err)
	}
	reloaded, err := repo.GetByID(dbc, q1.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("GetByID: err=%v", err)
	}
	if reloaded.Type != types.QuestionTypeMultipleChoice || reloaded.ResourceID == oldResourceID {
		t.Fatalf("ReplaceResource: type=%s resource=%s", reloaded.Type, reloaded.ResourceID)
	}
	var leftover int64
	tx.Model(&types.SingleChoice{}).Where("id = ?", oldResourceID).Count(&leftover)
	if leftover != 0 {
		t.Fatalf("ReplaceResource: old single choice row kept")
	}

	all := []*types.Question{reloaded, rows[1]}
	if err := repo.FullDeleteResources(dbc, all); err != nil {
		t.Fatalf("FullDeleteResources: %v", err)
	}
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{q1.ID, q2.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if n, _ := repo.CountByQuizID(dbc, quiz.ID); n != 0 {
		t.Fatalf("after delete: count=%d", n)
	}
}
