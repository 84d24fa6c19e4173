package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product holds the catalog fields the order flow reads. Catalog management
// lives in another service; this side only resolves prices, checks stock and
// decrements it through the inventory guard. Stock on the product row is
// authoritative only when the product has no variants.
type Product struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	StoreID            uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	Name               string           `gorm:"column:name;not null"`
	PriceCents         int              `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int             `gorm:"column:discount_price_cents"`
	StockQty           int              `gorm:"column:stock_qty;not null;default:0"`
	IsActive           bool             `gorm:"column:is_active;not null;default:true"`
	Tags               pq.StringArray   `gorm:"column:tags;type:text[]"`
	Variants           []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
