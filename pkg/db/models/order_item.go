package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/pkg/types"
)

// OrderItem is the immutable per-line snapshot of a placed order. It is never
// recalculated from the catalog after creation.
type OrderItem struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	ProductID        uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	ProductVariantID *uuid.UUID            `gorm:"column:product_variant_id;type:uuid"`
	ProductName      string                `gorm:"column:product_name;not null"`
	Options          types.OptionSelection `gorm:"column:options;type:jsonb;serializer:json"`
	Qty              int                   `gorm:"column:qty;not null"`
	UnitPriceCents   int                   `gorm:"column:unit_price_cents;not null"`
	DiscountCents    int                   `gorm:"column:discount_cents;not null;default:0"`
	LineTotalCents   int                   `gorm:"column:line_total_cents;not null"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}
