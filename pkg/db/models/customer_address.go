package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerAddress is a saved shipping address. Checkout snapshots the text
// and coordinates onto the order, so later edits never touch placed orders.
type CustomerAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Label      *string   `gorm:"column:label"`
	Address    string    `gorm:"column:address;not null"`
	Lat        *float64  `gorm:"column:lat;type:numeric(10,7)"`
	Lng        *float64  `gorm:"column:lng;type:numeric(10,7)"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	IsVerified bool      `gorm:"column:is_verified;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
