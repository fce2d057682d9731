package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

// ledger moves wallet balances and writes the matching Transaction row. Callers must pass a
// transaction so both writes commit together.
type ledger struct {
	userRepo        repos.UserRepo
	transactionRepo repos.TransactionRepo
}

type ledgerEntry struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Type        string
	OrderID     *uuid.UUID
	Description string
}

func (l ledger) credit(dbc dbctx.Context, e ledgerEntry) (*types.Transaction, error) {
	after, err := l.userRepo.CreditWallet(dbc, e.UserID, e.Amount)
	if err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	return l.record(dbc, e, after.Sub(e.Amount), after)
}

// debit returns a nil transaction when the balance does not cover the amount.
func (l ledger) debit(dbc dbctx.Context, e ledgerEntry) (*types.Transaction, error) {
	after, ok, err := l.userRepo.DebitWallet(dbc, e.UserID, e.Amount)
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return l.record(dbc, e, after.Add(e.Amount), after)
}

func (l ledger) record(dbc dbctx.Context, e ledgerEntry, before, after decimal.Decimal) (*types.Transaction, error) {
	row := &types.Transaction{
		UserID:        e.UserID,
		OrderID:       e.OrderID,
		Type:          e.Type,
		Amount:        e.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        types.TransactionStatusCompleted,
		Description:   e.Description,
	}
	if _, err := l.transactionRepo.Create(dbc, []*types.Transaction{row}); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return row, nil
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apierr.BadRequest("invalid_amount", "amount must be greater than 0")
	}
	if !amount.Equal(amount.Round(2)) {
		return apierr.BadRequest("invalid_amount", "amount supports at most two decimal places")
	}
	return nil
}

type WalletService interface {
	Balance(dbc dbctx.Context) (decimal.Decimal, error)
	Deposit(ctx context.Context, amount decimal.Decimal) (*types.Transaction, error)
	Withdraw(ctx context.Context, amount decimal.Decimal) (*types.Transaction, error)
	ListMine(dbc dbctx.Context, txType string, q pagination.Query) (pagination.Page[*types.Transaction], error)
	// List is the admin view over every wallet.
	List(dbc dbctx.Context, filter repos.TransactionListFilter, q pagination.Query) (pagination.Page[*types.Transaction], error)
}

type walletService struct {
	db              *gorm.DB
	log             *logger.Logger
	userRepo        repos.UserRepo
	transactionRepo repos.TransactionRepo
	ledger          ledger
	realtime        RealtimeNotifier
}

func NewWalletService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, transactionRepo repos.TransactionRepo, rt RealtimeNotifier) WalletService {
	return &walletService{
		db:              db,
		log:             log.With("service", "WalletService"),
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger{userRepo: userRepo, transactionRepo: transactionRepo},
		realtime:        rt,
	}
}

func (ws *walletService) Balance(dbc dbctx.Context) (decimal.Decimal, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return decimal.Zero, err
	}
	u, err := ws.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return decimal.Zero, apierr.NotFound("user not found")
	}
	return u.WalletBalance, nil
}

func (ws *walletService) Deposit(ctx context.Context, amount decimal.Decimal) (*types.Transaction, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	var out *types.Transaction
	err = withTx(ws.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		row, err := ws.ledger.credit(inner, ledgerEntry{
			UserID:      rd.UserID,
			Amount:      amount,
			Type:        types.TransactionTypeDeposit,
			Description: "Wallet deposit",
		})
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncWalletOp(out.Type)
	ws.realtime.WalletUpdated(rd.UserID, out.BalanceAfter)
	return out, nil
}

func (ws *walletService) Withdraw(ctx context.Context, amount decimal.Decimal) (*types.Transaction, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	var out *types.Transaction
	err = withTx(ws.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		row, err := ws.ledger.debit(inner, ledgerEntry{
			UserID:      rd.UserID,
			Amount:      amount,
			Type:        types.TransactionTypeWithdraw,
			Description: "Wallet withdrawal",
		})
		if err != nil {
			return err
		}
		if row == nil {
			return apierr.BadRequest("insufficient_funds", "insufficient wallet balance")
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncWalletOp(out.Type)
	ws.realtime.WalletUpdated(rd.UserID, out.BalanceAfter)
	return out, nil
}

func (ws *walletService) ListMine(dbc dbctx.Context, txType string, q pagination.Query) (pagination.Page[*types.Transaction], error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return pagination.Page[*types.Transaction]{}, err
	}
	if txType != "" && !types.IsValidTransactionType(txType) {
		return pagination.Page[*types.Transaction]{}, apierr.BadRequest("invalid_type", "unknown transaction type")
	}
	return ws.transactionRepo.List(dbc, repos.TransactionListFilter{UserID: &rd.UserID, Type: txType}, q)
}

func (ws *walletService) List(dbc dbctx.Context, filter repos.TransactionListFilter, q pagination.Query) (pagination.Page[*types.Transaction], error) {
	if _, err := requireAdmin(dbc.Ctx); err != nil {
		return pagination.Page[*types.Transaction]{}, err
	}
	if filter.Type != "" && !types.IsValidTransactionType(filter.Type) {
		return pagination.Page[*types.Transaction]{}, apierr.BadRequest("invalid_type", "unknown transaction type")
	}
	return ws.transactionRepo.List(dbc, filter, q)
}
