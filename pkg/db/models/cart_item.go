package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/pkg/types"
)

// CartItem carries an add-time price snapshot tied to one Cart. The snapshot
// never tracks later catalog price changes.
type CartItem struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CartID           uuid.UUID             `gorm:"column:cart_id;type:uuid;not null"`
	ProductID        uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	ProductVariantID *uuid.UUID            `gorm:"column:product_variant_id;type:uuid"`
	Qty              int                   `gorm:"column:qty;not null"`
	UnitPriceCents   int                   `gorm:"column:unit_price_cents;not null"`
	DiscountCents    int                   `gorm:"column:discount_cents;not null;default:0"`
	LineTotalCents   int                   `gorm:"column:line_total_cents;not null"`
	Options          types.OptionSelection `gorm:"column:options;type:jsonb;serializer:json"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
