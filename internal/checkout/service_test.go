package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/internal/cart"
	"github.com/rashidalbanna/mandoob-backend/internal/catalog"
	"github.com/rashidalbanna/mandoob-backend/internal/customers"
	"github.com/rashidalbanna/mandoob-backend/internal/inventory"
	"github.com/rashidalbanna/mandoob-backend/internal/orders"
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

type fixture struct {
	svc Service
	db  *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Store{},
		&models.Product{},
		&models.ProductVariant{},
		&models.CustomerAddress{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.OrderAssignment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(
		gormTxRunner{db: db},
		cart.NewRepository(db),
		orders.NewRepository(db),
		customers.NewRepository(db),
		catalog.NewRepository(db),
		inventory.NewGuard(),
		3,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{svc: svc, db: db}
}

func (f fixture) seedProduct(t *testing.T, storeID uuid.UUID, priceCents, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:         uuid.New(),
		StoreID:    storeID,
		Name:       "falafel box",
		PriceCents: priceCents,
		StockQty:   stock,
		IsActive:   true,
	}
	if err := f.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func (f fixture) seedVerifiedAddress(t *testing.T, customerID uuid.UUID) uuid.UUID {
	t.Helper()
	address := models.CustomerAddress{
		ID:         uuid.New(),
		CustomerID: customerID,
		Address:    "7 Marina Walk",
		IsDefault:  true,
		IsVerified: true,
	}
	if err := f.db.Create(&address).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return address.ID
}

type cartLine struct {
	productID uuid.UUID
	variantID *uuid.UUID
	qty       int
	unitCents int
	discount  int
}

func (f fixture) seedCart(t *testing.T, customerID uuid.UUID, lines ...cartLine) uuid.UUID {
	t.Helper()
	subtotal, discount := 0, 0
	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CartItem{
			ID:               uuid.New(),
			ProductID:        line.productID,
			ProductVariantID: line.variantID,
			Qty:              line.qty,
			UnitPriceCents:   line.unitCents,
			DiscountCents:    line.discount,
			LineTotalCents:   (line.unitCents - line.discount) * line.qty,
		})
		subtotal += line.unitCents * line.qty
		discount += line.discount * line.qty
	}

	activeCart := models.Cart{
		ID:                 uuid.New(),
		CustomerID:         customerID,
		Status:             enums.CartStatusActive,
		SubtotalCents:      subtotal,
		DiscountTotalCents: discount,
		GrandTotalCents:    subtotal - discount,
	}
	if err := f.db.Create(&activeCart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for i := range items {
		items[i].CartID = activeCart.ID
		if err := f.db.Create(&items[i]).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return activeCart.ID
}

func (f fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return count
}

func TestCheckoutPlacesOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	storeID := uuid.New()
	productID := f.seedProduct(t, storeID, 2000, 10)
	f.seedVerifiedAddress(t, customerID)
	cartID := f.seedCart(t, customerID, cartLine{productID: productID, qty: 3, unitCents: 2000})

	result, err := f.svc.Execute(ctx, customerID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(result.OrderCode) != 10 {
		t.Fatalf("expected 10-char order code, got %q", result.OrderCode)
	}
	if result.GrandTotalCents != 6000 {
		t.Fatalf("expected grand total 6000, got %d", result.GrandTotalCents)
	}

	var order models.Order
	if err := f.db.Preload("Items").First(&order, "id = ?", result.OrderID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusPending || order.StoreID != storeID {
		t.Fatalf("unexpected order: %+v", order)
	}
	if order.PaymentMethod != enums.PaymentMethodCash {
		t.Fatalf("expected cash default, got %s", order.PaymentMethod)
	}
	if order.ShippingAddress != "7 Marina Walk" {
		t.Fatalf("expected address snapshot, got %q", order.ShippingAddress)
	}
	if len(order.Items) != 1 || order.Items[0].ProductName != "falafel box" || order.Items[0].LineTotalCents != 6000 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}

	var product models.Product
	if err := f.db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.StockQty != 7 {
		t.Fatalf("expected stock decremented to 7, got %d", product.StockQty)
	}

	var history []models.OrderStatusHistory
	if err := f.db.Where("order_id = ?", order.ID).Find(&history).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 1 || history[0].FromStatus != nil || history[0].ToStatus != enums.OrderStatusPending {
		t.Fatalf("unexpected history: %+v", history)
	}
	if history[0].Reason != "order placed" || history[0].ChangedByRole != enums.RoleCustomer {
		t.Fatalf("unexpected history metadata: %+v", history[0])
	}

	var converted models.Cart
	if err := f.db.First(&converted, "id = ?", cartID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if converted.Status != enums.CartStatusConverted || converted.ConvertedAt == nil {
		t.Fatalf("expected converted cart, got %+v", converted)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	f.seedVerifiedAddress(t, customerID)
	f.seedCart(t, customerID)

	_, err := f.svc.Execute(ctx, customerID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if f.orderCount(t) != 0 {
		t.Fatal("empty cart checkout must create no orders")
	}
}

func TestCheckoutWithoutCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Execute(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestCheckoutRequiresVerifiedAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	productID := f.seedProduct(t, uuid.New(), 1000, 5)
	f.seedCart(t, customerID, cartLine{productID: productID, qty: 1, unitCents: 1000})

	_, err := f.svc.Execute(ctx, customerID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeAddressUnverified {
		t.Fatalf("expected address unverified, got %v", err)
	}
	if f.orderCount(t) != 0 {
		t.Fatal("failed checkout must create no orders")
	}
}

func TestCheckoutRejectsUnverifiedSelectedAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	productID := f.seedProduct(t, uuid.New(), 1000, 5)

	address := models.CustomerAddress{ID: uuid.New(), CustomerID: customerID, Address: "9 Dune Ave"}
	if err := f.db.Create(&address).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	cartID := f.seedCart(t, customerID, cartLine{productID: productID, qty: 1, unitCents: 1000})
	if err := f.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("address_id", address.ID).Error; err != nil {
		t.Fatalf("select address: %v", err)
	}

	_, err := f.svc.Execute(ctx, customerID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeAddressUnverified {
		t.Fatalf("expected address unverified, got %v", err)
	}
}

func TestCheckoutInsufficientStockRollsBackEverything(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	storeID := uuid.New()
	plentyID := f.seedProduct(t, storeID, 1000, 10)
	scarceID := f.seedProduct(t, storeID, 500, 1)
	f.seedVerifiedAddress(t, customerID)
	cartID := f.seedCart(t, customerID,
		cartLine{productID: plentyID, qty: 2, unitCents: 1000},
		cartLine{productID: scarceID, qty: 3, unitCents: 500},
	)

	_, err := f.svc.Execute(ctx, customerID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if f.orderCount(t) != 0 {
		t.Fatal("partial orders must never persist")
	}
	var plenty models.Product
	if err := f.db.First(&plenty, "id = ?", plentyID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if plenty.StockQty != 10 {
		t.Fatalf("rollback must restore stock, got %d", plenty.StockQty)
	}
	var stillActive models.Cart
	if err := f.db.First(&stillActive, "id = ?", cartID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if stillActive.Status != enums.CartStatusActive {
		t.Fatalf("cart must stay active after failure, got %s", stillActive.Status)
	}
}

func TestCheckoutSerializesCompetingCarts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	storeID := uuid.New()
	productID := f.seedProduct(t, storeID, 1000, 1)

	winner := uuid.New()
	loser := uuid.New()
	f.seedVerifiedAddress(t, winner)
	f.seedVerifiedAddress(t, loser)
	f.seedCart(t, winner, cartLine{productID: productID, qty: 1, unitCents: 1000})
	f.seedCart(t, loser, cartLine{productID: productID, qty: 1, unitCents: 1000})

	if _, err := f.svc.Execute(ctx, winner); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	_, err := f.svc.Execute(ctx, loser)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("second checkout must lose, got %v", err)
	}

	var product models.Product
	if err := f.db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.StockQty != 0 {
		t.Fatalf("stock must end at exactly zero, got %d", product.StockQty)
	}
	if f.orderCount(t) != 1 {
		t.Fatal("exactly one order must exist")
	}
}

func TestCheckoutConcurrentCartsProduceSingleOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	storeID := uuid.New()
	productID := f.seedProduct(t, storeID, 1000, 1)

	buyers := []uuid.UUID{uuid.New(), uuid.New()}
	for _, id := range buyers {
		f.seedVerifiedAddress(t, id)
		f.seedCart(t, id, cartLine{productID: productID, qty: 1, unitCents: 1000})
	}

	// Shared-cache sqlite aborts a competing writer with "table is locked"
	// instead of blocking it, so pin the pool to one connection to make the
	// two transactions queue the way Postgres row locks would.
	sqlDB, err := f.db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, id := range buyers {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.Execute(ctx, id)
		}(i, id)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientStock {
			t.Fatalf("loser must fail on stock, got %v", err)
		}
		losses++
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected one winner and one loser, got %d/%d", wins, losses)
	}

	var product models.Product
	if err := f.db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.StockQty != 0 {
		t.Fatalf("stock must end at exactly zero, got %d", product.StockQty)
	}
	if f.orderCount(t) != 1 {
		t.Fatal("exactly one order must exist")
	}
}

func TestCheckoutRepairsZeroPriceFromCatalog(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	productID := f.seedProduct(t, uuid.New(), 1500, 5)
	f.seedVerifiedAddress(t, customerID)
	f.seedCart(t, customerID, cartLine{productID: productID, qty: 2, unitCents: 0})

	result, err := f.svc.Execute(ctx, customerID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	var items []models.OrderItem
	if err := f.db.Where("order_id = ?", result.OrderID).Find(&items).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 1 || items[0].UnitPriceCents != 1500 || items[0].LineTotalCents != 3000 {
		t.Fatalf("expected repaired price, got %+v", items)
	}
}

func TestCheckoutRejectsCrossStoreCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	firstID := f.seedProduct(t, uuid.New(), 1000, 5)
	secondID := f.seedProduct(t, uuid.New(), 1000, 5)
	f.seedVerifiedAddress(t, customerID)
	f.seedCart(t, customerID,
		cartLine{productID: firstID, qty: 1, unitCents: 1000},
		cartLine{productID: secondID, qty: 1, unitCents: 1000},
	)

	_, err := f.svc.Execute(ctx, customerID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutCartNeverConvertsTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	productID := f.seedProduct(t, uuid.New(), 1000, 10)
	f.seedVerifiedAddress(t, customerID)
	f.seedCart(t, customerID, cartLine{productID: productID, qty: 1, unitCents: 1000})

	if _, err := f.svc.Execute(ctx, customerID); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	_, err := f.svc.Execute(ctx, customerID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart on second checkout, got %v", err)
	}
	if f.orderCount(t) != 1 {
		t.Fatal("converted cart must not produce another order")
	}
}
