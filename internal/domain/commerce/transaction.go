package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeWithdraw = "withdraw"
	TransactionTypePurchase = "purchase"
	TransactionTypeRefund   = "refund"

	TransactionStatusCompleted = "completed"
)

func IsValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypePurchase, TransactionTypeRefund:
		return true
	default:
		return false
	}
}

// Transaction is an append-only wallet ledger row. Amount is always positive; Type gives the direction.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	OrderID       *uuid.UUID      `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Type          string          `gorm:"not null;index;column:type" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null;column:amount" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(14,2);not null;column:balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(14,2);not null;column:balance_after" json:"balance_after"`
	Status        string          `gorm:"not null;column:status" json:"status"`
	Description   string          `gorm:"column:description" json:"description"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (Transaction) TableName() string { return "wallet_transaction" }

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TransactionStatusCompleted
	}
	return nil
}
