package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

const maxOrderItems = 50

type OrderService interface {
	// Create snapshots the effective price of each course into a pending order.
	Create(ctx context.Context, courseIDs []uuid.UUID) (*types.Order, error)
	// Pay settles a pending order from the caller's wallet and enrolls them.
	Pay(ctx context.Context, id uuid.UUID) (*types.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*types.Order, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	ListMine(dbc dbctx.Context, status string, q pagination.Query) (pagination.Page[*types.Order], error)
	List(dbc dbctx.Context, filter repos.OrderListFilter, q pagination.Query) (pagination.Page[*types.Order], error)
	// Refund reverses a completed order: wallet credit, refund transaction, enrollments removed.
	Refund(ctx context.Context, id uuid.UUID) (*types.Order, error)
}

type orderService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	orderRepo      repos.OrderRepo
	enrollmentRepo repos.EnrollmentRepo
	ledger         ledger
	notifications  NotificationService
	realtime       RealtimeNotifier
}

func NewOrderService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	orderRepo repos.OrderRepo,
	transactionRepo repos.TransactionRepo,
	enrollmentRepo repos.EnrollmentRepo,
	notifications NotificationService,
	rt RealtimeNotifier,
) OrderService {
	return &orderService{
		db:             db,
		log:            log.With("service", "OrderService"),
		courseRepo:     courseRepo,
		orderRepo:      orderRepo,
		enrollmentRepo: enrollmentRepo,
		ledger:         ledger{userRepo: userRepo, transactionRepo: transactionRepo},
		notifications:  notifications,
		realtime:       rt,
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isValidOrderStatus(s string) bool {
	switch s {
	case types.OrderStatusPending, types.OrderStatusCompleted, types.OrderStatusCancelled, types.OrderStatusRefunded:
		return true
	default:
		return false
	}
}

func (ors *orderService) Create(ctx context.Context, courseIDs []uuid.UUID) (*types.Order, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	ids := dedupeIDs(courseIDs)
	if len(ids) == 0 {
		return nil, apierr.BadRequest("invalid_order", "course_ids must contain at least one course")
	}
	if len(ids) > maxOrderItems {
		return nil, apierr.BadRequest("invalid_order", fmt.Sprintf("at most %d courses per order", maxOrderItems))
	}
	var out *types.Order
	err = withTx(ors.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		courses, err := ors.courseRepo.GetByIDs(inner, ids)
		if err != nil {
			return fmt.Errorf("load courses: %w", err)
		}
		byID := make(map[uuid.UUID]*types.Course, len(courses))
		for _, c := range courses {
			byID[c.ID] = c
		}
		enrolled, err := ors.enrollmentRepo.GetByUserAndCourses(inner, rd.UserID, ids)
		if err != nil {
			return fmt.Errorf("load enrollments: %w", err)
		}
		if len(enrolled) > 0 {
			return apierr.BadRequest("already_enrolled", fmt.Sprintf("already enrolled in course %s", enrolled[0].CourseID))
		}
		items := make(datatypes.JSONSlice[types.OrderItem], 0, len(ids))
		total := decimal.Zero
		for _, id := range ids {
			c, ok := byID[id]
			if !ok || !c.IsPublished() {
				return apierr.NotFound(fmt.Sprintf("course %s not found", id))
			}
			if c.InstructorID == rd.UserID {
				return apierr.BadRequest("own_course", "instructors cannot buy their own course")
			}
			price := c.EffectivePrice()
			items = append(items, types.OrderItem{CourseID: c.ID, Title: c.Title, Price: price})
			total = total.Add(price)
		}
		o := &types.Order{
			UserID: rd.UserID,
			Items:  items,
			Total:  total,
			Status: types.OrderStatusPending,
		}
		if _, err := ors.orderRepo.Create(inner, []*types.Order{o}); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncCheckout("created")
	ors.log.Info("Order created", "order_id", out.ID, "items", len(out.Items), "total", out.Total.String())
	return out, nil
}

// loadOwnOrder hides orders of other users behind 404; admins see every order.
func (ors *orderService) loadOwnOrder(dbc dbctx.Context, id uuid.UUID, allowAdmin bool) (*types.Order, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	o, err := ors.orderRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil || (o.UserID != rd.UserID && !(allowAdmin && rd.IsAdmin())) {
		return nil, apierr.NotFound("order not found")
	}
	return o, nil
}

func (ors *orderService) Pay(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	var (
		out     *types.Order
		balance decimal.Decimal
		created []*types.Enrollment
	)
	err := withTx(ors.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		o, err := ors.loadOwnOrder(inner, id, false)
		if err != nil {
			return err
		}
		if o.Status != types.OrderStatusPending {
			return apierr.BadRequest("order_not_pending", fmt.Sprintf("order is already %s", o.Status))
		}
		now := time.Now().UTC()
		ok, err := ors.orderRepo.Transition(inner, o.ID, types.OrderStatusPending, types.OrderStatusCompleted, now)
		if err != nil {
			return fmt.Errorf("complete order: %w", err)
		}
		if !ok {
			return apierr.BadRequest("order_not_pending", "order is no longer pending")
		}
		o.Status = types.OrderStatusCompleted
		o.PaidAt = &now

		if o.Total.IsPositive() {
			row, err := ors.ledger.debit(inner, ledgerEntry{
				UserID:      o.UserID,
				Amount:      o.Total,
				Type:        types.TransactionTypePurchase,
				OrderID:     &o.ID,
				Description: orderDescription("Purchase", o),
			})
			if err != nil {
				return err
			}
			if row == nil {
				observability.Current().IncCheckout("insufficient_funds")
				return apierr.BadRequest("insufficient_funds", "insufficient wallet balance")
			}
			balance = row.BalanceAfter
		}

		courseIDs := o.CourseIDs()
		existing, err := ors.enrollmentRepo.GetByUserAndCourses(inner, o.UserID, courseIDs)
		if err != nil {
			return fmt.Errorf("load enrollments: %w", err)
		}
		have := make(map[uuid.UUID]struct{}, len(existing))
		for _, e := range existing {
			have[e.CourseID] = struct{}{}
		}
		rows := make([]*types.Enrollment, 0, len(courseIDs))
		for _, cid := range courseIDs {
			if _, ok := have[cid]; ok {
				continue
			}
			rows = append(rows, &types.Enrollment{UserID: o.UserID, CourseID: cid, OrderID: &o.ID})
		}
		if _, err := ors.enrollmentRepo.Create(inner, rows); err != nil {
			return fmt.Errorf("create enrollments: %w", err)
		}
		out, created = o, rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncCheckout("paid")
	if out.Total.IsPositive() {
		observability.Current().IncWalletOp(types.TransactionTypePurchase)
		ors.realtime.WalletUpdated(out.UserID, balance)
	}
	if _, err := ors.notifications.Notify(ctx, []uuid.UUID{out.UserID}, NotificationDraft{
		Type:    types.NotificationTypeOrder,
		Title:   "Order completed",
		Message: fmt.Sprintf("Payment of %s received. You are enrolled in %d course(s).", out.Total.StringFixed(2), len(created)),
		Link:    "/orders/" + out.ID.String(),
	}); err != nil {
		ors.log.Warn("Failed to send order notification", "error", err)
	}
	return out, nil
}

func orderDescription(prefix string, o *types.Order) string {
	titles := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		titles = append(titles, it.Title)
	}
	return prefix + ": " + strings.Join(titles, ", ")
}

func (ors *orderService) Cancel(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	var out *types.Order
	err := withTx(ors.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		o, err := ors.loadOwnOrder(inner, id, true)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		ok, err := ors.orderRepo.Transition(inner, o.ID, types.OrderStatusPending, types.OrderStatusCancelled, now)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if !ok {
			return apierr.BadRequest("order_not_pending", "only pending orders can be cancelled")
		}
		o.Status = types.OrderStatusCancelled
		o.CancelledAt = &now
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncCheckout("cancelled")
	return out, nil
}

func (ors *orderService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	return ors.loadOwnOrder(dbc, id, true)
}

func (ors *orderService) ListMine(dbc dbctx.Context, status string, q pagination.Query) (pagination.Page[*types.Order], error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return pagination.Page[*types.Order]{}, err
	}
	if status != "" && !isValidOrderStatus(status) {
		return pagination.Page[*types.Order]{}, apierr.BadRequest("invalid_status", "unknown order status")
	}
	return ors.orderRepo.List(dbc, repos.OrderListFilter{UserID: &rd.UserID, Status: status}, q)
}

func (ors *orderService) List(dbc dbctx.Context, filter repos.OrderListFilter, q pagination.Query) (pagination.Page[*types.Order], error) {
	if _, err := requireAdmin(dbc.Ctx); err != nil {
		return pagination.Page[*types.Order]{}, err
	}
	if filter.Status != "" && !isValidOrderStatus(filter.Status) {
		return pagination.Page[*types.Order]{}, apierr.BadRequest("invalid_status", "unknown order status")
	}
	return ors.orderRepo.List(dbc, filter, q)
}

func (ors *orderService) Refund(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var (
		out     *types.Order
		balance decimal.Decimal
	)
	err := withTx(ors.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		o, err := ors.orderRepo.GetByID(inner, id)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil {
			return apierr.NotFound("order not found")
		}
		now := time.Now().UTC()
		ok, err := ors.orderRepo.Transition(inner, o.ID, types.OrderStatusCompleted, types.OrderStatusRefunded, now)
		if err != nil {
			return fmt.Errorf("refund order: %w", err)
		}
		if !ok {
			return apierr.BadRequest("order_not_completed", "only completed orders can be refunded")
		}
		o.Status = types.OrderStatusRefunded
		o.RefundedAt = &now
		if o.Total.IsPositive() {
			row, err := ors.ledger.credit(inner, ledgerEntry{
				UserID:      o.UserID,
				Amount:      o.Total,
				Type:        types.TransactionTypeRefund,
				OrderID:     &o.ID,
				Description: orderDescription("Refund", o),
			})
			if err != nil {
				return err
			}
			balance = row.BalanceAfter
		}
		removed, err := ors.enrollmentRepo.FullDeleteByOrderID(inner, o.ID)
		if err != nil {
			return fmt.Errorf("remove enrollments: %w", err)
		}
		ors.log.Info("Order refunded", "order_id", o.ID, "enrollments_removed", removed)
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncCheckout("refunded")
	if out.Total.IsPositive() {
		observability.Current().IncWalletOp(types.TransactionTypeRefund)
		ors.realtime.WalletUpdated(out.UserID, balance)
	}
	if _, err := ors.notifications.Notify(ctx, []uuid.UUID{out.UserID}, NotificationDraft{
		Type:    types.NotificationTypeOrder,
		Title:   "Order refunded",
		Message: fmt.Sprintf("%s was returned to your wallet.", out.Total.StringFixed(2)),
		Link:    "/orders/" + out.ID.String(),
	}); err != nil {
		ors.log.Warn("Failed to send refund notification", "error", err)
	}
	return out, nil
}
