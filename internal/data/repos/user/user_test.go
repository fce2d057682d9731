package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			ID:       uuid.New(),
			Email:    "  UserRepo@Example.com ",
			Password: "pw",
			Name:     "A",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Create: expected 1 user, got %d", len(created))
	}
	if created[0].Email != "userrepo@example.com" {
		t.Fatalf("Create: email not normalized: %q", created[0].Email)
	}
	if created[0].Role != types.RoleStudent {
		t.Fatalf("Create: default role: want=%s got=%s", types.RoleStudent, created[0].Role)
	}

	got, err := repo.GetByID(dbc, created[0].ID)
	if err != nil || got == nil || got.ID != created[0].ID {
		t.Fatalf("GetByID: err=%v got=%+v", err, got)
	}

	byEmail, err := repo.GetByEmail(dbc, "USERREPO@example.com")
	if err != nil || byEmail == nil {
		t.Fatalf("GetByEmail: err=%v got=%+v", err, byEmail)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: err=%v exists=%v", err, exists)
	}
	exists, err = repo.EmailExists(dbc, "does-not-exist@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists (missing): err=%v exists=%v", err, exists)
	}

	if err := repo.UpdateRole(dbc, created[0].ID, types.RoleInstructor); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	page, err := repo.List(dbc, UserListFilter{Role: types.RoleInstructor}, pagination.Query{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalResults != 1 || len(page.Results) != 1 {
		t.Fatalf("List: want=1 got total=%d len=%d", page.TotalResults, len(page.Results))
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{created[0].ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if got, err := repo.GetByID(dbc, created[0].ID); err != nil || got != nil {
		t.Fatalf("after SoftDeleteByIDs GetByID: err=%v got=%+v", err, got)
	}
}

func TestUserRepoWallet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "wallet@example.com", types.RoleStudent)

	after, err := repo.CreditWallet(dbc, u.ID, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("CreditWallet: %v", err)
	}
	if !after.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("CreditWallet: want=50 got=%s", after)
	}

	after, ok, err := repo.DebitWallet(dbc, u.ID, decimal.RequireFromString("19.5"))
	if err != nil || !ok {
		t.Fatalf("DebitWallet: err=%v ok=%v", err, ok)
	}
	if !after.Equal(decimal.RequireFromString("30.5")) {
		t.Fatalf("DebitWallet: want=30.5 got=%s", after)
	}

	_, ok, err = repo.DebitWallet(dbc, u.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("DebitWallet (insufficient): %v", err)
	}
	if ok {
		t.Fatalf("DebitWallet (insufficient): want ok=false")
	}

	got, err := repo.GetByID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.WalletBalance.Equal(decimal.RequireFromString("30.5")) {
		t.Fatalf("balance: want=30.5 got=%s", got.WalletBalance)
	}

	if _, err := repo.CreditWallet(dbc, uuid.New(), decimal.NewFromInt(1)); err == nil {
		t.Fatalf("CreditWallet (missing user): want error")
	}
}
