package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type OrderListFilter struct {
	UserID *uuid.UUID
	Status string
}

type OrderRepo interface {
	Create(dbc dbctx.Context, orders []*types.Order) ([]*types.Order, error)
	GetByIDs(dbc dbctx.Context, orderIDs []uuid.UUID) ([]*types.Order, error)
	GetByID(dbc dbctx.Context, orderID uuid.UUID) (*types.Order, error)
	List(dbc dbctx.Context, filter OrderListFilter, q pagination.Query) (pagination.Page[*types.Order], error)
	Transition(dbc dbctx.Context, orderID uuid.UUID, from, to string, at time.Time) (bool, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	repoLog := baseLog.With("repo", "OrderRepo")
	return &orderRepo{db: db, log: repoLog}
}

func (r *orderRepo) Create(dbc dbctx.Context, orders []*types.Order) ([]*types.Order, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(orders) == 0 {
		return []*types.Order{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) GetByIDs(dbc dbctx.Context, orderIDs []uuid.UUID) ([]*types.Order, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Order
	if len(orderIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", orderIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orderRepo) GetByID(dbc dbctx.Context, orderID uuid.UUID) (*types.Order, error) {
	if orderID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

var orderSortColumns = map[string]string{
	"created_at": "created_at",
	"total":      "total",
	"status":     "status",
}

func (r *orderRepo) List(dbc dbctx.Context, filter OrderListFilter, q pagination.Query) (pagination.Page[*types.Order], error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	base := t.WithContext(dbc.Ctx).Model(&types.Order{})
	if filter.UserID != nil {
		base = base.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	return pagination.Find[*types.Order](base, q, q.OrderClause(orderSortColumns, "created_at DESC"))
}

// Transition moves the order from one status to another only if it is still in from.
// The timestamp column matching the target status is stamped with at.
func (r *orderRepo) Transition(dbc dbctx.Context, orderID uuid.UUID, from, to string, at time.Time) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	updates := map[string]interface{}{"status": to}
	switch to {
	case types.OrderStatusCompleted:
		updates["paid_at"] = at
	case types.OrderStatusCancelled:
		updates["cancelled_at"] = at
	case types.OrderStatusRefunded:
		updates["refunded_at"] = at
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
