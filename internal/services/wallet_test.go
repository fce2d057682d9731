package services

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

func TestWalletDepositWithdraw(t *testing.T) {
	h := newHarness(t)
	svc := h.walletService()
	u := h.user("saver@example.com", types.RoleStudent)
	ctx := h.as(u)

	dep, err := svc.Deposit(ctx, decimal.RequireFromString("40.50"))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if !dep.BalanceBefore.IsZero() || !dep.BalanceAfter.Equal(decimal.RequireFromString("40.5")) {
		t.Fatalf("deposit ledger: before=%s after=%s", dep.BalanceBefore, dep.BalanceAfter)
	}

	_, err = svc.Withdraw(ctx, decimal.NewFromInt(100))
	wantStatus(t, err, http.StatusBadRequest)
	wantCode(t, err, "insufficient_funds")

	wd, err := svc.Withdraw(ctx, decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !wd.BalanceAfter.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("withdraw ledger: after=%s", wd.BalanceAfter)
	}

	bal, err := svc.Balance(dbctx.Context{Ctx: ctx})
	if err != nil || !bal.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("Balance: %s err=%v", bal, err)
	}

	page, err := svc.ListMine(dbctx.Context{Ctx: ctx}, types.TransactionTypeDeposit, pagination.Query{Page: 1, Limit: 10})
	if err != nil || page.TotalResults != 1 {
		t.Fatalf("ListMine deposits: total=%d err=%v", page.TotalResults, err)
	}
	if h.rt.count("wallet_updated") != 2 {
		t.Fatalf("wallet_updated events: want=2 got=%d", h.rt.count("wallet_updated"))
	}
}

func TestWalletRejectsBadAmounts(t *testing.T) {
	h := newHarness(t)
	svc := h.walletService()
	ctx := h.as(h.user("saver@example.com", types.RoleStudent))

	for _, raw := range []string{"0", "-5", "1.001"} {
		_, err := svc.Deposit(ctx, decimal.RequireFromString(raw))
		wantCode(t, err, "invalid_amount")
	}
	_, err := svc.ListMine(dbctx.Context{Ctx: ctx}, "bogus", pagination.Query{Page: 1, Limit: 10})
	wantStatus(t, err, http.StatusBadRequest)
	_, err = svc.List(dbctx.Context{Ctx: ctx}, repos.TransactionListFilter{}, pagination.Query{Page: 1, Limit: 10})
	wantStatus(t, err, http.StatusForbidden)
}
