package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BillStatusDraft     = "draft"
	BillStatusActive    = "active"
	BillStatusCompleted = "completed"

	PaymentModeCash   = "cash"
	PaymentModeOnline = "online"

	// AdditionalMarker tags the order number of a supplemental kitchen
	// order spawned while a draft for the base number already exists.
	AdditionalMarker = " (Additional)"
)

var additionalSuffixRe = regexp.MustCompile(`\s*\(Additional\)\s*$`)

type Bill struct {
	ID              string  `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerName    *string `gorm:"type:varchar(128)" json:"customer_name"`
	MobileLastDigit string  `gorm:"type:varchar(32);not null;index" json:"mobile_last_digit"`
	Status          string  `gorm:"type:varchar(16);not null;index" json:"status"`

	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMode *string         `gorm:"type:varchar(16)" json:"payment_mode,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BillItems []BillItem `gorm:"foreignKey:BillID" json:"bill_items"`
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// IsAdditional reports whether this bill is a supplemental kitchen order.
func (b *Bill) IsAdditional() bool {
	return strings.Contains(b.MobileLastDigit, "(Additional)")
}

// BaseNumber strips the supplemental marker from the order number.
func (b *Bill) BaseNumber() string {
	return strings.TrimSpace(additionalSuffixRe.ReplaceAllString(b.MobileLastDigit, ""))
}

type BillItem struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	BillID       string `gorm:"type:uuid;not null;index" json:"bill_id"`
	FoodItemID   string `gorm:"type:uuid;not null" json:"food_item_id"`
	FoodItemName string `gorm:"type:varchar(128);not null" json:"food_item_name"`

	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity int             `gorm:"not null" json:"quantity"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`

	CreatedAt time.Time `json:"created_at"`
}

func (i *BillItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
