package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductVariant{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{ID: uuid.New(), StoreID: uuid.New(), Name: "water", PriceCents: 100, StockQty: stock}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func seedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, stock int) uuid.UUID {
	t.Helper()
	variant := models.ProductVariant{ID: uuid.New(), ProductID: productID, StockQty: stock}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func TestReserveDecrementsProductStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		return NewGuard().Reserve(ctx, tx, []ReservationRequest{
			{CartItemID: uuid.New(), ProductID: productID, Qty: 3},
		})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.StockQty != 2 {
		t.Fatalf("expected stock 2, got %d", product.StockQty)
	}
}

func TestReserveInsufficientStockRollsBackEarlierLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5)
	productB := seedProduct(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return NewGuard().Reserve(ctx, tx, []ReservationRequest{
			{CartItemID: uuid.New(), ProductID: productA, Qty: 3},
			{CartItemID: uuid.New(), ProductID: productB, Qty: 2},
		})
	})
	if err == nil {
		t.Fatal("expected reservation to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	// The failed transaction must leave both pools untouched.
	var a, b models.Product
	if err := db.First(&a, "id = ?", productA).Error; err != nil {
		t.Fatalf("load product a: %v", err)
	}
	if err := db.First(&b, "id = ?", productB).Error; err != nil {
		t.Fatalf("load product b: %v", err)
	}
	if a.StockQty != 5 || b.StockQty != 1 {
		t.Fatalf("expected stock untouched, got a=%d b=%d", a.StockQty, b.StockQty)
	}
}

func TestReserveVariantPool(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 0)
	variantID := seedVariant(t, db, productID, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return NewGuard().Reserve(ctx, tx, []ReservationRequest{
			{CartItemID: uuid.New(), ProductID: productID, VariantID: &variantID, Qty: 2},
		})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.StockQty != 0 {
		t.Fatalf("expected variant stock 0, got %d", variant.StockQty)
	}
}

func TestReserveRejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	productID := seedProduct(t, db, 5)

	err := NewGuard().Reserve(context.Background(), db, []ReservationRequest{
		{ProductID: productID, Qty: 0},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveUnknownProductIsNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	err := NewGuard().Reserve(context.Background(), db, []ReservationRequest{
		{ProductID: uuid.New(), Qty: 1},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReleaseRestoresStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		guard := NewGuard()
		reqs := []ReservationRequest{{CartItemID: uuid.New(), ProductID: productID, Qty: 1}}
		if err := guard.Reserve(ctx, tx, reqs); err != nil {
			return err
		}
		return guard.Release(ctx, tx, reqs)
	})
	if err != nil {
		t.Fatalf("reserve/release: %v", err)
	}

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.StockQty != 1 {
		t.Fatalf("expected stock back to 1, got %d", product.StockQty)
	}
}
