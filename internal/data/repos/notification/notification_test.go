package notification

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

func TestNotificationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewNotificationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "notify@example.com", types.RoleStudent)
	other := testutil.SeedUser(t, ctx, tx, "notify-other@example.com", types.RoleStudent)

	rows := []*types.Notification{
		{UserID: u.ID, Title: "one"},
		{UserID: u.ID, Title: "two"},
		{UserID: other.ID, Title: "three"},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if n, err := repo.CountUnread(dbc, u.ID); err != nil || n != 2 {
		t.Fatalf("CountUnread: err=%v n=%d", err, n)
	}

	n, err := repo.MarkRead(dbc, u.ID, []uuid.UUID{rows[0].ID, rows[2].ID}, time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("MarkRead: want only own notification, err=%v n=%d", err, n)
	}

	page, err := repo.ListByUser(dbc, u.ID, true, pagination.Query{})
	if err != nil || page.TotalResults != 1 || page.Results[0].ID != rows[1].ID {
		t.Fatalf("ListByUser unread: err=%v page=%+v", err, page)
	}

	if n, err := repo.MarkAllRead(dbc, u.ID, time.Now().UTC()); err != nil || n != 1 {
		t.Fatalf("MarkAllRead: err=%v n=%d", err, n)
	}
	if n, _ := repo.CountUnread(dbc, u.ID); n != 0 {
		t.Fatalf("CountUnread after MarkAllRead: n=%d", n)
	}
	if n, _ := repo.CountUnread(dbc, other.ID); n != 1 {
		t.Fatalf("other user's unread touched: n=%d", n)
	}
}
