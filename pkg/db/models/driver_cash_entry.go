package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
)

// DriverCashEntry is one immutable movement of cash between a driver and the
// platform. The partial unique index keys the automatic collect-on-delivery:
// a retried delivery confirmation finds the existing row instead of crediting
// twice. There is no cached balance column anywhere; balances are folded from
// these rows on read.
type DriverCashEntry struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	DriverID    uuid.UUID           `gorm:"column:driver_id;type:uuid;not null;index;uniqueIndex:idx_driver_cash_entries_order_once,where:order_id IS NOT NULL"`
	OrderID     *uuid.UUID          `gorm:"column:order_id;type:uuid;uniqueIndex:idx_driver_cash_entries_order_once,where:order_id IS NOT NULL"`
	Type        enums.CashEntryType `gorm:"column:type;type:text;not null;uniqueIndex:idx_driver_cash_entries_order_once"`
	AmountCents int                 `gorm:"column:amount_cents;not null"`
	Reference   *string             `gorm:"column:reference"`
	Note        *string             `gorm:"column:note"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
