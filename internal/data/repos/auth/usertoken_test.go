package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com", types.RoleStudent)

	makeToken := func(access, refresh string, expires time.Time) *types.UserToken {
		return &types.UserToken{
			ID:           uuid.New(),
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expires,
		}
	}

	t1 := makeToken("access-1", "refresh-1", time.Now().Add(time.Hour))
	t2 := makeToken("access-2", "refresh-2", time.Now().Add(-time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{t1, t2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if row, err := repo.GetByID(dbc, t1.ID); err != nil || row == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, row)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByRefreshTokens(dbc, []string{"refresh-1"}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByRefreshTokens: err=%v len=%d", err, len(rows))
	}

	dup := makeToken("access-3", "refresh-1", time.Now().Add(time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{dup}); err == nil {
		t.Fatalf("Create duplicate refresh token: want error")
	}
}

func TestUserTokenRepoDeletes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "tokendeletes@example.com", types.RoleStudent)
	live := &types.UserToken{UserID: u.ID, AccessToken: "a1", RefreshToken: "r1", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &types.UserToken{UserID: u.ID, AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Now().Add(-time.Hour)}
	if _, err := repo.Create(dbc, []*types.UserToken{live, expired}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := repo.FullDeleteExpired(dbc, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("FullDeleteExpired: err=%v n=%d", err, n)
	}
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{live.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after deletes: err=%v len=%d", err, len(rows))
	}
}
