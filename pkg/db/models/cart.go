package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
)

// Cart is a customer's in-progress selection. At most one active cart exists
// per customer; it is created lazily and becomes immutable once converted.
type Cart struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID         uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	AddressID          *uuid.UUID           `gorm:"column:address_id;type:uuid"`
	PaymentMethod      *enums.PaymentMethod `gorm:"column:payment_method;type:text"`
	Status             enums.CartStatus     `gorm:"column:status;type:text;not null;default:'active'"`
	SubtotalCents      int                  `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountTotalCents int                  `gorm:"column:discount_total_cents;not null;default:0"`
	TaxTotalCents      int                  `gorm:"column:tax_total_cents;not null;default:0"`
	DeliveryFeeCents   int                  `gorm:"column:delivery_fee_cents;not null;default:0"`
	GrandTotalCents    int                  `gorm:"column:grand_total_cents;not null;default:0"`
	ConvertedAt        *time.Time           `gorm:"column:converted_at"`
	Items              []CartItem           `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
