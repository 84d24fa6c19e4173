package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
)

// User is the identity row shared by customers, shop owners and drivers.
// Registration and password handling belong to the auth service; this side
// only reads the row for role checks and audit fields.
type User struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Email     string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;not null"`
	Phone     *string         `gorm:"column:phone"`
	Role      enums.ActorRole `gorm:"column:role;type:text;not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
