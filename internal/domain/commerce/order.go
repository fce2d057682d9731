package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"

	PaymentMethodWallet = "wallet"
)

// OrderItem snapshots a course's effective price at checkout.
type OrderItem struct {
	CourseID uuid.UUID       `json:"course_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
}

type Order struct {
	ID            uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                      `gorm:"type:uuid;not null;index" json:"user_id"`
	Items         datatypes.JSONSlice[OrderItem] `gorm:"column:items" json:"items"`
	Total         decimal.Decimal                `gorm:"type:numeric(14,2);not null;column:total" json:"total"`
	Status        string                         `gorm:"not null;index;column:status" json:"status"`
	PaymentMethod string                         `gorm:"not null;column:payment_method" json:"payment_method"`
	PaidAt        *time.Time                     `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CancelledAt   *time.Time                     `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	RefundedAt    *time.Time                     `gorm:"column:refunded_at" json:"refunded_at,omitempty"`
	CreatedAt     time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time                      `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "purchase_order" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = PaymentMethodWallet
	}
	return nil
}

func (o *Order) CourseIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, it.CourseID)
	}
	return out
}
