package cashledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
)

// Repository manages persistence for driver cash entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.DriverCashEntry) error
	FindCollectForOrder(ctx context.Context, driverID, orderID uuid.UUID) (*models.DriverCashEntry, error)
	SumByType(ctx context.Context, driverID uuid.UUID) (map[enums.CashEntryType]int, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.DriverCashEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cash ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.DriverCashEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindCollectForOrder(ctx context.Context, driverID, orderID uuid.UUID) (*models.DriverCashEntry, error) {
	var entry models.DriverCashEntry
	if err := r.db.WithContext(ctx).
		Where("driver_id = ? AND order_id = ? AND type = ?", driverID, orderID, enums.CashEntryTypeCollect).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) SumByType(ctx context.Context, driverID uuid.UUID) (map[enums.CashEntryType]int, error) {
	var rows []struct {
		Type  enums.CashEntryType
		Total int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DriverCashEntry{}).
		Select("type, COALESCE(SUM(amount_cents), 0) AS total").
		Where("driver_id = ?", driverID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[enums.CashEntryType]int, len(rows))
	for _, row := range rows {
		sums[row.Type] = row.Total
	}
	return sums, nil
}

func (r *repository) ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]models.DriverCashEntry, error) {
	var entries []models.DriverCashEntry
	query := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
