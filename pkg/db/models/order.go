package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
)

// Order is created once by checkout. Identity fields (store, customer, code)
// and the address/totals snapshots never change afterwards; only status and
// the delivery timestamps are mutable.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode          string              `gorm:"column:order_code;type:text;not null;uniqueIndex:idx_orders_order_code"`
	StoreID            uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	CustomerID         uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cod'"`
	ShippingAddress    string              `gorm:"column:shipping_address;not null"`
	ShippingLat        *float64            `gorm:"column:shipping_lat;type:numeric(10,7)"`
	ShippingLng        *float64            `gorm:"column:shipping_lng;type:numeric(10,7)"`
	SubtotalCents      int                 `gorm:"column:subtotal_cents;not null"`
	DiscountTotalCents int                 `gorm:"column:discount_total_cents;not null;default:0"`
	TaxTotalCents      int                 `gorm:"column:tax_total_cents;not null;default:0"`
	DeliveryFeeCents   int                 `gorm:"column:delivery_fee_cents;not null;default:0"`
	GrandTotalCents    int                 `gorm:"column:grand_total_cents;not null"`
	DeliveredAt        *time.Time          `gorm:"column:delivered_at"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory      []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Assignment         *OrderAssignment    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
