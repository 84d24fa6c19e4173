package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes the customer address reads checkout depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAddress(ctx context.Context, id uuid.UUID) (*models.CustomerAddress, error)
	// FindDefaultVerifiedAddress returns the customer's default verified
	// address, or gorm.ErrRecordNotFound when none qualifies.
	FindDefaultVerifiedAddress(ctx context.Context, customerID uuid.UUID) (*models.CustomerAddress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAddress(ctx context.Context, id uuid.UUID) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) FindDefaultVerifiedAddress(ctx context.Context, customerID uuid.UUID) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND is_default = ? AND is_verified = ?", customerID, true, true).
		Order("updated_at DESC").
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}
