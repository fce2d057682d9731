package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type shopFixture struct {
	buyer   *types.User
	listed  *types.Course
	onSale  *types.Course
	courses []uuid.UUID
}

// seedShop lists one course at 30 and one at 50 on sale for 20, and funds the buyer with 100.
func seedShop(h *harness) shopFixture {
	h.t.Helper()
	instructor := h.user("seller@example.com", types.RoleInstructor)
	buyer := h.user("buyer@example.com", types.RoleStudent)
	sale := "20"
	listed := testutil.SeedCourse(h.t, h.ctx, h.db, instructor.ID, "30", nil)
	onSale := testutil.SeedCourse(h.t, h.ctx, h.db, instructor.ID, "50", &sale)
	testutil.SetBalance(h.t, h.ctx, h.db, buyer.ID, decimal.NewFromInt(100))
	return shopFixture{buyer: buyer, listed: listed, onSale: onSale, courses: []uuid.UUID{listed.ID, onSale.ID}}
}

func TestOrderPayDeductsEffectivePriceAndEnrolls(t *testing.T) {
	h := newHarness(t)
	f := seedShop(h)
	svc := h.orderService()
	ctx := h.as(f.buyer)

	o, err := svc.Create(ctx, append(f.courses, f.listed.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items: want=2 (deduplicated) got=%d", len(o.Items))
	}
	if !o.Total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("total: want=50 got=%s", o.Total)
	}

	paid, err := svc.Pay(ctx, o.ID)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if paid.Status != types.OrderStatusCompleted {
		t.Fatalf("status: want=completed got=%s", paid.Status)
	}
	if got := h.balance(f.buyer.ID); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("balance: want=50 got=%s", got)
	}

	dbc := dbctx.Context{Ctx: h.ctx}
	enrolled, err := h.enrollments.GetByUserAndCourses(dbc, f.buyer.ID, f.courses)
	if err != nil || len(enrolled) != 2 {
		t.Fatalf("enrollments: want=2 got=%d err=%v", len(enrolled), err)
	}
	txs, err := h.transactions.GetByOrderID(dbc, o.ID)
	if err != nil || len(txs) != 1 {
		t.Fatalf("transactions: want=1 got=%d err=%v", len(txs), err)
	}
	tx := txs[0]
	if tx.Type != types.TransactionTypePurchase || !tx.BalanceBefore.Equal(decimal.NewFromInt(100)) || !tx.BalanceAfter.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("transaction: type=%s before=%s after=%s", tx.Type, tx.BalanceBefore, tx.BalanceAfter)
	}
	if h.rt.count("wallet_updated") != 1 {
		t.Fatalf("wallet_updated events: want=1 got=%d", h.rt.count("wallet_updated"))
	}

	_, err = svc.Pay(ctx, o.ID)
	wantStatus(t, err, http.StatusBadRequest)
	wantCode(t, err, "order_not_pending")
	if got := h.balance(f.buyer.ID); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("balance after second pay: want=50 got=%s", got)
	}
}

func TestOrderPayInsufficientFundsRollsBack(t *testing.T) {
	h := newHarness(t)
	f := seedShop(h)
	testutil.SetBalance(t, h.ctx, h.db, f.buyer.ID, decimal.NewFromInt(10))
	svc := h.orderService()
	ctx := h.as(f.buyer)

	o, err := svc.Create(ctx, f.courses)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = svc.Pay(ctx, o.ID)
	wantStatus(t, err, http.StatusBadRequest)
	wantCode(t, err, "insufficient_funds")

	got, err := svc.Get(dbctx.Context{Ctx: ctx}, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != types.OrderStatusPending {
		t.Fatalf("status: want=pending got=%s", got.Status)
	}
	enrolled, err := h.enrollments.GetByUserAndCourses(dbctx.Context{Ctx: h.ctx}, f.buyer.ID, f.courses)
	if err != nil || len(enrolled) != 0 {
		t.Fatalf("enrollments: want=0 got=%d err=%v", len(enrolled), err)
	}
	if b := h.balance(f.buyer.ID); !b.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("balance: want=10 got=%s", b)
	}
}

func TestOrderCreateRejects(t *testing.T) {
	h := newHarness(t)
	f := seedShop(h)
	svc := h.orderService()
	testutil.SeedEnrollment(t, h.ctx, h.db, f.buyer.ID, f.listed.ID)

	_, err := svc.Create(h.as(f.buyer), f.courses)
	wantCode(t, err, "already_enrolled")

	_, err = svc.Create(h.as(f.buyer), nil)
	wantStatus(t, err, http.StatusBadRequest)

	_, err = svc.Create(h.as(f.buyer), []uuid.UUID{uuid.New()})
	wantStatus(t, err, http.StatusNotFound)

	owner, err := h.users.GetByID(dbctx.Context{Ctx: h.ctx}, f.onSale.InstructorID)
	if err != nil || owner == nil {
		t.Fatalf("load instructor: %v", err)
	}
	_, err = svc.Create(h.as(owner), []uuid.UUID{f.onSale.ID})
	wantCode(t, err, "own_course")
}

func TestOrderCancelAndRefund(t *testing.T) {
	h := newHarness(t)
	f := seedShop(h)
	svc := h.orderService()
	ctx := h.as(f.buyer)
	admin := h.user("admin@example.com", types.RoleAdmin)

	pending, err := svc.Create(ctx, []uuid.UUID{f.listed.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cancelled, err := svc.Cancel(ctx, pending.ID)
	if err != nil || cancelled.Status != types.OrderStatusCancelled {
		t.Fatalf("Cancel: err=%v order=%v", err, cancelled)
	}
	_, err = svc.Pay(ctx, pending.ID)
	wantStatus(t, err, http.StatusBadRequest)

	o, err := svc.Create(ctx, f.courses)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Pay(ctx, o.ID); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	_, err = svc.Refund(ctx, o.ID)
	wantStatus(t, err, http.StatusForbidden)

	refunded, err := svc.Refund(h.as(admin), o.ID)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != types.OrderStatusRefunded {
		t.Fatalf("status: want=refunded got=%s", refunded.Status)
	}
	if b := h.balance(f.buyer.ID); !b.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance: want=100 got=%s", b)
	}
	enrolled, err := h.enrollments.GetByUserAndCourses(dbctx.Context{Ctx: h.ctx}, f.buyer.ID, f.courses)
	if err != nil || len(enrolled) != 0 {
		t.Fatalf("enrollments after refund: want=0 got=%d err=%v", len(enrolled), err)
	}

	_, err = svc.Refund(h.as(admin), o.ID)
	wantCode(t, err, "order_not_completed")

	page, err := svc.ListMine(dbctx.Context{Ctx: ctx}, types.OrderStatusRefunded, pagination.Query{Page: 1, Limit: 10})
	if err != nil || page.TotalResults != 1 {
		t.Fatalf("ListMine refunded: total=%d err=%v", page.TotalResults, err)
	}
	all, err := svc.List(dbctx.Context{Ctx: h.as(admin)}, repos.OrderListFilter{}, pagination.Query{Page: 1, Limit: 10})
	if err != nil || all.TotalResults != 2 {
		t.Fatalf("admin List: total=%d err=%v", all.TotalResults, err)
	}
}

func TestOrderHiddenFromOtherUsers(t *testing.T) {
	h := newHarness(t)
	f := seedShop(h)
	svc := h.orderService()
	other := h.user("nosy@example.com", types.RoleStudent)

	o, err := svc.Create(h.as(f.buyer), f.courses)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = svc.Get(dbctx.Context{Ctx: h.as(other)}, o.ID)
	wantStatus(t, err, http.StatusNotFound)
	_, err = svc.Pay(h.as(other), o.ID)
	wantStatus(t, err, http.StatusNotFound)
}
