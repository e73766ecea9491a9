package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FoodItemStatusAvailable   = "available"
	FoodItemStatusUnavailable = "unavailable"
)

type FoodCategory struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FoodItems []FoodItem `gorm:"foreignKey:CategoryID" json:"food_items,omitempty"`
}

func (c *FoodCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type FoodItem struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(128);not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Status      string          `gorm:"type:varchar(16);not null;default:'available'" json:"status"`
	ImageURL    *string         `gorm:"type:varchar(256)" json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category *FoodCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (f *FoodItem) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
