package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a sellable configuration of a product with its own stock
// pool. Variant price is recorded but not used for cart pricing; the product
// level discount/price wins.
type ProductVariant struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	Color      *string    `gorm:"column:color"`
	Size       *string    `gorm:"column:size"`
	PriceCents *int       `gorm:"column:price_cents"`
	StockQty   int        `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
