package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
)

// OrderStatusHistory is the append-only audit trail of status changes. Rows
// are never updated or deleted; the order's current status always equals the
// to_status of its latest row.
type OrderStatusHistory struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus    *enums.OrderStatus `gorm:"column:from_status;type:text"`
	ToStatus      enums.OrderStatus  `gorm:"column:to_status;type:text;not null"`
	ChangedByID   uuid.UUID          `gorm:"column:changed_by_id;type:uuid;not null"`
	ChangedByRole enums.ActorRole    `gorm:"column:changed_by_role;type:text;not null"`
	Reason        string             `gorm:"column:reason;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
