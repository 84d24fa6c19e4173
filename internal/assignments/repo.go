package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
)

// Repository manages persistence for order assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.OrderAssignment) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderAssignment, error)
	Save(ctx context.Context, assignment *models.OrderAssignment) error
	ListOrdersByDriver(ctx context.Context, driverID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.OrderAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderAssignment, error) {
	var assignment models.OrderAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) Save(ctx context.Context, assignment *models.OrderAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *repository) ListOrdersByDriver(ctx context.Context, driverID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN order_assignments ON order_assignments.order_id = orders.id").
		Where("order_assignments.driver_id = ?", driverID).
		Preload("Items").
		Preload("Assignment")
	if len(statuses) > 0 {
		query = query.Where("orders.status IN ?", statuses)
	}

	var rows []models.Order
	if err := query.Order("orders.created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
