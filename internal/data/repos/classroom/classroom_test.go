package classroom

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

func TestClassroomAndMemberRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	logg := testutil.Logger(t)
	rooms := NewClassroomRepo(db, logg)
	members := NewMemberRepo(db, logg)

	owner := testutil.SeedUser(t, ctx, tx, "owner@example.com", types.RoleInstructor)
	student := testutil.SeedUser(t, ctx, tx, "student@example.com", types.RoleStudent)
	room := testutil.SeedClassroom(t, ctx, tx, owner.ID)
	testutil.SeedClassroom(t, ctx, tx, student.ID)

	got, err := rooms.GetByJoinCode(dbc, room.JoinCode)
	if err != nil || got == nil || got.ID != room.ID {
		t.Fatalf("GetByJoinCode: err=%v got=%+v", err, got)
	}

	if _, err := members.Create(dbc, []*types.ClassroomMember{{ClassroomID: room.ID, UserID: student.ID}}); err != nil {
		t.Fatalf("Create member: %v", err)
	}
	m, err := members.Get(dbc, room.ID, student.ID)
	if err != nil || m == nil || m.Role != types.MemberRoleStudent {
		t.Fatalf("Get member: err=%v m=%+v", err, m)
	}

	page, err := rooms.ListByMember(dbc, student.ID, pagination.Query{})
	if err != nil || page.TotalResults != 2 {
		t.Fatalf("ListByMember: err=%v total=%d", err, page.TotalResults)
	}

	if n, err := members.CountByRole(dbc, room.ID, types.MemberRoleAdmin); err != nil || n != 1 {
		t.Fatalf("CountByRole: err=%v n=%d", err, n)
	}
	if err := members.UpdateRole(dbc, room.ID, student.ID, types.MemberRoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if n, _ := members.CountByRole(dbc, room.ID, types.MemberRoleAdmin); n != 2 {
		t.Fatalf("CountByRole after promote: n=%d", n)
	}
	admins, err := members.LockByRole(dbc, room.ID, types.MemberRoleAdmin)
	if err != nil || len(admins) != 2 {
		t.Fatalf("LockByRole: err=%v n=%d", err, len(admins))
	}
	if admins[0].UserID.String() > admins[1].UserID.String() {
		t.Fatalf("LockByRole: rows not ordered by user_id")
	}
	if err := members.Delete(dbc, room.ID, student.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if m, _ := members.Get(dbc, room.ID, student.ID); m != nil {
		t.Fatalf("Delete: member still present")
	}

	if err := rooms.SoftDeleteByIDs(dbc, []uuid.UUID{room.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if got, _ := rooms.GetByID(dbc, room.ID); got != nil {
		t.Fatalf("after SoftDeleteByIDs: classroom still visible")
	}
}

func TestMessageRepoListBefore(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMessageRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "msgowner@example.com", types.RoleInstructor)
	room := testutil.SeedClassroom(t, ctx, tx, owner.ID)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var rows []*types.Message
	for i := 0; i < 5; i++ {
		rows = append(rows, &types.Message{
			ClassroomID: room.ID,
			SenderID:    owner.ID,
			Content:     "hi",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err := repo.ListBefore(dbc, room.ID, time.Time{}, 2)
	if err != nil || len(latest) != 2 {
		t.Fatalf("ListBefore latest: err=%v len=%d", err, len(latest))
	}
	if latest[0].ID != rows[4].ID {
		t.Fatalf("ListBefore latest: want newest first")
	}

	older, err := repo.ListBefore(dbc, room.ID, latest[1].CreatedAt, 10)
	if err != nil || len(older) != 3 {
		t.Fatalf("ListBefore cursor: err=%v len=%d", err, len(older))
	}
}
