package commerce

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type TransactionListFilter struct {
	UserID *uuid.UUID
	Type   string
}

type TransactionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Transaction) ([]*types.Transaction, error)
	GetByOrderID(dbc dbctx.Context, orderID uuid.UUID) ([]*types.Transaction, error)
	List(dbc dbctx.Context, filter TransactionListFilter, q pagination.Query) (pagination.Page[*types.Transaction], error)
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	repoLog := baseLog.With("repo", "TransactionRepo")
	return &transactionRepo{db: db, log: repoLog}
}

func (r *transactionRepo) Create(dbc dbctx.Context, rows []*types.Transaction) ([]*types.Transaction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Transaction{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepo) GetByOrderID(dbc dbctx.Context, orderID uuid.UUID) ([]*types.Transaction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Transaction
	if err := t.WithContext(dbc.Ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var transactionSortColumns = map[string]string{
	"created_at": "created_at",
	"amount":     "amount",
}

func (r *transactionRepo) List(dbc dbctx.Context, filter TransactionListFilter, q pagination.Query) (pagination.Page[*types.Transaction], error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	base := t.WithContext(dbc.Ctx).Model(&types.Transaction{})
	if filter.UserID != nil {
		base = base.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != "" {
		base = base.Where("type = ?", filter.Type)
	}
	return pagination.Find[*types.Transaction](base, q, q.OrderClause(transactionSortColumns, "created_at DESC"))
}
