package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"gorm.io/gorm"
)

// ReservationRequest asks for qty units from one stock pool. When VariantID
// is set the variant row is the pool; otherwise the product row is.
type ReservationRequest struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	VariantID  *uuid.UUID
	Qty        int
}

// Guard is the only writer of stock columns. Reserve is the authoritative
// check: the conditional UPDATE takes the row lock, re-reads the current
// quantity under it and decrements only on sufficiency, all in one statement.
// Unlocked reads elsewhere (cart add feedback) are advisory only.
type Guard interface {
	// Reserve decrements each requested pool within tx, in request order.
	// The first insufficient pool fails the whole call; the caller's
	// transaction rollback undoes any earlier decrements.
	Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error
	// Release returns previously reserved quantities, used when an order is
	// cancelled before delivery.
	Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error
}

type guard struct{}

// NewGuard returns the default stock guard.
func NewGuard() Guard {
	return guard{}
}

func (guard) Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}

	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reservation qty must be positive, got %d", req.Qty))
		}

		var res *gorm.DB
		if req.VariantID != nil {
			res = tx.WithContext(ctx).Exec(`
				UPDATE product_variants
				SET stock_qty = stock_qty - ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE id = ? AND stock_qty >= ?
			`, req.Qty, *req.VariantID, req.Qty)
		} else {
			res = tx.WithContext(ctx).Exec(`
				UPDATE products
				SET stock_qty = stock_qty - ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE id = ? AND stock_qty >= ?
			`, req.Qty, req.ProductID, req.Qty)
		}
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
		}
		if res.RowsAffected == 0 {
			return insufficientStockError(ctx, tx, req)
		}
	}
	return nil
}

func (guard) Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}

		var res *gorm.DB
		if req.VariantID != nil {
			res = tx.WithContext(ctx).Exec(`
				UPDATE product_variants
				SET stock_qty = stock_qty + ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE id = ?
			`, req.Qty, *req.VariantID)
		} else {
			res = tx.WithContext(ctx).Exec(`
				UPDATE products
				SET stock_qty = stock_qty + ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE id = ?
			`, req.Qty, req.ProductID)
		}
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
		}
	}
	return nil
}

// insufficientStockError re-reads the pool to distinguish a missing row from
// a short one and to report what is actually available.
func insufficientStockError(ctx context.Context, tx *gorm.DB, req ReservationRequest) error {
	available := 0
	if req.VariantID != nil {
		var variant models.ProductVariant
		err := tx.WithContext(ctx).First(&variant, "id = ?", *req.VariantID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant stock")
		}
		available = variant.StockQty
	} else {
		var product models.Product
		err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
		}
		available = product.StockQty
	}

	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id":  req.ProductID,
			"variant_id":  req.VariantID,
			"requested":   req.Qty,
			"available":   available,
			"cart_item":   req.CartItemID,
		})
}
