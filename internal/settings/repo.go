package settings

import (
	"context"

	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the settings key-value table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetValue(ctx context.Context, key string) (string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetValue(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}
