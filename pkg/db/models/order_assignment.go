package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderAssignment binds one driver to one order. The unique index on
// order_id enforces at most one assignment per order; re-assignment means
// replacing the row, never reusing a rejected one.
type OrderAssignment struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_assignments_order_id"`
	DriverID         uuid.UUID  `gorm:"column:driver_id;type:uuid;not null;index"`
	AssignedByID     *uuid.UUID `gorm:"column:assigned_by_id;type:uuid"`
	AssignedAt       time.Time  `gorm:"column:assigned_at;autoCreateTime"`
	AcceptedAt       *time.Time `gorm:"column:accepted_at"`
	RejectedAt       *time.Time `gorm:"column:rejected_at"`
	StartedAt        *time.Time `gorm:"column:started_at"`
	PickedAt         *time.Time `gorm:"column:picked_at"`
	OutForDeliveryAt *time.Time `gorm:"column:out_for_delivery_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`
}
