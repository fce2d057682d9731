package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func TestModuleRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewModuleRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "modulerepo@example.com", types.RoleInstructor)
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "0", nil)

	pos, err := repo.NextPosition(dbc, c.ID)
	if err != nil || pos != 0 {
		t.Fatalf("NextPosition (empty): err=%v pos=%d", err, pos)
	}

	m1 := &types.Module{CourseID: c.ID, Title: "one", Position: 0}
	m2 := &types.Module{CourseID: c.ID, Title: "two", Position: 3}
	if _, err := repo.Create(dbc, []*types.Module{m2, m1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pos, err = repo.NextPosition(dbc, c.ID)
	if err != nil || pos != 4 {
		t.Fatalf("NextPosition: want=4 got=%d err=%v", pos, err)
	}

	rows, err := repo.GetByCourseIDs(dbc, []uuid.UUID{c.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByCourseIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID != m1.ID {
		t.Fatalf("GetByCourseIDs: want position order, first=%s", rows[0].Title)
	}

	if err := repo.FullDeleteByCourseIDs(dbc, []uuid.UUID{c.ID}); err != nil {
		t.Fatalf("FullDeleteByCourseIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{m1.ID, m2.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after delete: err=%v len=%d", err, len(rows))
	}
}
