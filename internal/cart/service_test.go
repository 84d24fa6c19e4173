package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/internal/catalog"
	"github.com/rashidalbanna/mandoob-backend/internal/customers"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixedSettings struct {
	taxRatePercent decimal.Decimal
	deliveryFee    int
}

func (s fixedSettings) TaxRatePercent(context.Context) (decimal.Decimal, error) {
	return s.taxRatePercent, nil
}

func (s fixedSettings) DefaultDeliveryFeeCents(context.Context) (int, error) {
	return s.deliveryFee, nil
}

func newTestService(t *testing.T, taxRatePercent int, deliveryFeeCents int) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Cart{},
		&models.CartItem{},
		&models.Product{},
		&models.ProductVariant{},
		&models.CustomerAddress{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(
		NewRepository(db),
		gormTxRunner{db: db},
		catalog.NewRepository(db),
		customers.NewRepository(db),
		fixedSettings{taxRatePercent: decimal.NewFromInt(int64(taxRatePercent)), deliveryFee: deliveryFeeCents},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, priceCents int, discountPriceCents *int, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:                 uuid.New(),
		StoreID:            uuid.New(),
		Name:               "shawarma wrap",
		PriceCents:         priceCents,
		DiscountPriceCents: discountPriceCents,
		StockQty:           stock,
		IsActive:           true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func seedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, stock int) uuid.UUID {
	t.Helper()
	size := "large"
	variant := models.ProductVariant{ID: uuid.New(), ProductID: productID, Size: &size, StockQty: stock}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func TestGetOrCreateIsLazy(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, 10, 500)
	ctx := context.Background()
	customerID := uuid.New()

	first, err := svc.GetOrCreate(ctx, customerID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if first.Status != enums.CartStatusActive {
		t.Fatalf("expected active cart, got %q", first.Status)
	}
	if first.GrandTotalCents != 0 {
		t.Fatalf("expected empty cart totals, got %d", first.GrandTotalCents)
	}

	second, err := svc.GetOrCreate(ctx, customerID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the same active cart on repeat access")
	}
}

func TestAddItemComputesTotals(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 10, 500)
	ctx := context.Background()
	customerID := uuid.New()
	productID := seedProduct(t, db, 2000, nil, 10)

	cart, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 3})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	if cart.SubtotalCents != 6000 {
		t.Fatalf("expected subtotal 6000, got %d", cart.SubtotalCents)
	}
	if cart.TaxTotalCents != 600 {
		t.Fatalf("expected tax 600, got %d", cart.TaxTotalCents)
	}
	if cart.DeliveryFeeCents != 500 {
		t.Fatalf("expected delivery fee 500, got %d", cart.DeliveryFeeCents)
	}
	if cart.GrandTotalCents != 7100 {
		t.Fatalf("expected grand total 7100, got %d", cart.GrandTotalCents)
	}
	if len(cart.Items) != 1 || cart.Items[0].LineTotalCents != 6000 {
		t.Fatalf("unexpected items: %+v", cart.Items)
	}
}

func TestAddItemMergesSameLine(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 0, 0)
	ctx := context.Background()
	customerID := uuid.New()
	productID := seedProduct(t, db, 1000, nil, 10)

	if _, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 2})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected merged line, got %d items", len(cart.Items))
	}
	if cart.Items[0].Qty != 3 || cart.Items[0].LineTotalCents != 3000 {
		t.Fatalf("unexpected merged line: %+v", cart.Items[0])
	}
}

func TestAddItemSnapshotsDiscountPrice(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 10, 500)
	ctx := context.Background()
	customerID := uuid.New()
	discountPrice := 1500
	productID := seedProduct(t, db, 2000, &discountPrice, 10)

	cart, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 3})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	item := cart.Items[0]
	if item.UnitPriceCents != 2000 || item.DiscountCents != 500 {
		t.Fatalf("unexpected price snapshot: %+v", item)
	}
	if item.LineTotalCents != 4500 {
		t.Fatalf("expected line total 4500, got %d", item.LineTotalCents)
	}
	if cart.SubtotalCents != 6000 || cart.DiscountTotalCents != 1500 {
		t.Fatalf("unexpected totals: %+v", cart)
	}
	// taxable 4500 at 10% -> 450, plus fee 500
	if cart.TaxTotalCents != 450 || cart.GrandTotalCents != 5450 {
		t.Fatalf("unexpected tax/grand: %+v", cart)
	}
}

func TestAddItemInsufficientStockIsAdvisory(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 0, 0)
	ctx := context.Background()
	customerID := uuid.New()
	productID := seedProduct(t, db, 1000, nil, 2)

	_, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 3})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if product.StockQty != 2 {
		t.Fatalf("advisory check must not touch stock, got %d", product.StockQty)
	}
}

func TestAddItemRequiresVariantSelection(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 0, 0)
	ctx := context.Background()
	customerID := uuid.New()
	productID := seedProduct(t, db, 1000, nil, 0)
	seedVariant(t, db, productID, 5)

	_, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 1})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemUsesVariantStockPool(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 0, 0)
	ctx := context.Background()
	customerID := uuid.New()
	productID := seedProduct(t, db, 1000, nil, 0)
	variantID := seedVariant(t, db, productID, 5)

	cart, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, VariantID: &variantID, Qty: 4})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if cart.Items[0].ProductVariantID == nil || *cart.Items[0].ProductVariantID != variantID {
		t.Fatalf("expected variant on line: %+v", cart.Items[0])
	}
}

func TestUpdateRemoveClear(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 0, 500)
	ctx := context.Background()
	customerID := uuid.New()
	productID := seedProduct(t, db, 1000, nil, 10)

	cart, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItemQty(ctx, customerID, itemID, 5)
	if err != nil {
		t.Fatalf("update qty: %v", err)
	}
	if cart.SubtotalCents != 5000 || cart.GrandTotalCents != 5500 {
		t.Fatalf("unexpected totals after update: %+v", cart)
	}

	cart, err = svc.RemoveItem(ctx, customerID, itemID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(cart.Items) != 0 || cart.GrandTotalCents != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}

	if _, err := svc.AddItem(ctx, customerID, AddItemInput{ProductID: productID, Qty: 1}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	cart, err = svc.Clear(ctx, customerID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cart.Items) != 0 || cart.DeliveryFeeCents != 0 {
		t.Fatalf("expected cleared cart, got %+v", cart)
	}
}

func TestUpdateQtyUnknownItem(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, 0, 0)
	ctx := context.Background()

	_, err := svc.UpdateItemQty(ctx, uuid.New(), uuid.New(), 2)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSelectAddressEnforcesOwnership(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, 0, 0)
	ctx := context.Background()
	customerID := uuid.New()

	other := models.CustomerAddress{ID: uuid.New(), CustomerID: uuid.New(), Address: "12 Corniche St", IsVerified: true}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}

	_, err := svc.SelectAddress(ctx, customerID, other.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	own := models.CustomerAddress{ID: uuid.New(), CustomerID: customerID, Address: "5 Harbor Rd", IsVerified: true}
	if err := db.Create(&own).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	cart, err := svc.SelectAddress(ctx, customerID, own.ID)
	if err != nil {
		t.Fatalf("select address: %v", err)
	}
	if cart.AddressID == nil || *cart.AddressID != own.ID {
		t.Fatalf("expected address on cart, got %+v", cart.AddressID)
	}
}

func TestSelectPaymentMethod(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, 0, 0)
	ctx := context.Background()
	customerID := uuid.New()

	cart, err := svc.SelectPaymentMethod(ctx, customerID, enums.PaymentMethodCash)
	if err != nil {
		t.Fatalf("select payment: %v", err)
	}
	if cart.PaymentMethod == nil || *cart.PaymentMethod != enums.PaymentMethodCash {
		t.Fatalf("expected cash payment method, got %+v", cart.PaymentMethod)
	}

	_, err = svc.SelectPaymentMethod(ctx, customerID, enums.PaymentMethod("bitcoin"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
