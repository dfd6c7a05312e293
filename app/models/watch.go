package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoblawsWatch is a tracked Loblaws product together with the latest sale
// information pulled from the product API. Several watches may share a
// product_code (the same product added from different URLs); presentation
// collapses those by code.
type LoblawsWatch struct {
	ID             string              `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	URL            string              `gorm:"size:512;not null;uniqueIndex" json:"url"`
	ProductCode    string              `gorm:"size:64;not null;index" json:"product_code"`
	StoreID        string              `gorm:"size:16;not null;default:1032" json:"store_id"`
	Label          string              `gorm:"size:120" json:"label"`
	Name           string              `gorm:"size:200" json:"name"`
	Brand          string              `gorm:"size:120" json:"brand"`
	ImageURL       string              `gorm:"size:512" json:"image_url"`
	CurrentPrice   decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"current_price"`
	PriceUnit      string              `gorm:"size:32" json:"price_unit"`
	RegularPrice   decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"regular_price"`
	SaleText       string              `gorm:"size:160" json:"sale_text"`
	SaleExpiry     *time.Time          `json:"sale_expiry"`
	SaleType       string              `gorm:"size:32" json:"sale_type"`
	SaleBadgeName  string              `gorm:"size:64" json:"sale_badge_name"`
	StockStatus    string              `gorm:"size:32" json:"stock_status"`
	LastCheckedAt  *time.Time          `json:"last_checked_at"`
	LastChangeAt   *time.Time          `json:"last_change_at"`
	LastNotifiedAt *time.Time          `json:"last_notified_at"`
	LastSignature  string              `gorm:"size:200" json:"-"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
