package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"

	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

func IsValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

type Course struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID           `gorm:"type:uuid;not null;index" json:"instructor_id"`
	CategoryID   *uuid.UUID          `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Title        string              `gorm:"not null;column:title" json:"title"`
	Description  string              `gorm:"column:description" json:"description"`
	ThumbnailURL string              `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	ThumbnailKey string              `gorm:"column:thumbnail_key" json:"-"`
	Price        decimal.Decimal     `gorm:"type:numeric(14,2);not null;column:price" json:"price"`
	SalePrice    decimal.NullDecimal `gorm:"type:numeric(14,2);column:sale_price" json:"sale_price"`
	Level        string              `gorm:"not null;column:level" json:"level"`
	Status       string              `gorm:"not null;index;column:status" json:"status"`
	PublishedAt  *time.Time          `gorm:"column:published_at" json:"published_at,omitempty"`

	Modules []*Module `gorm:"-" json:"modules,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CourseStatusDraft
	}
	if c.Level == "" {
		c.Level = LevelBeginner
	}
	return nil
}

// EffectivePrice is what a buyer pays: the sale price when one is set, the list price otherwise.
func (c *Course) EffectivePrice() decimal.Decimal {
	if c.SalePrice.Valid {
		return c.SalePrice.Decimal
	}
	return c.Price
}

func (c *Course) IsPublished() bool { return c.Status == CourseStatusPublished }

func (c *Course) IsFree() bool { return c.EffectivePrice().IsZero() }
