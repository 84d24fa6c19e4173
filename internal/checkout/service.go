package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/internal/cart"
	"github.com/rashidalbanna/mandoob-backend/internal/catalog"
	"github.com/rashidalbanna/mandoob-backend/internal/customers"
	"github.com/rashidalbanna/mandoob-backend/internal/inventory"
	"github.com/rashidalbanna/mandoob-backend/internal/orders"
	"github.com/rashidalbanna/mandoob-backend/pkg/db"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
)

const defaultOrderCodeAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts a ready cart into a placed order. The whole conversion is
// one transaction: order row, stock reservation, item snapshots, the first
// history row and the cart close either all commit or none do.
type Service interface {
	Execute(ctx context.Context, customerID uuid.UUID) (*Result, error)
}

// Result is what checkout hands back to the caller.
type Result struct {
	OrderID         uuid.UUID `json:"order_id"`
	OrderCode       string    `json:"order_code"`
	GrandTotalCents int       `json:"grand_total"`
}

type service struct {
	tx            txRunner
	cartRepo      cart.Repository
	ordersRepo    orders.Repository
	customersRepo customers.Repository
	catalogRepo   catalog.Repository
	guard         inventory.Guard
	codeAttempts  int
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	customersRepo customers.Repository,
	catalogRepo catalog.Repository,
	guard inventory.Guard,
	codeAttempts int,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if customersRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if guard == nil {
		guard = inventory.NewGuard()
	}
	if codeAttempts <= 0 {
		codeAttempts = defaultOrderCodeAttempts
	}
	return &service{
		tx:            tx,
		cartRepo:      cartRepo,
		ordersRepo:    ordersRepo,
		customersRepo: customersRepo,
		catalogRepo:   catalogRepo,
		guard:         guard,
		codeAttempts:  codeAttempts,
	}, nil
}

func (s *service) Execute(ctx context.Context, customerID uuid.UUID) (*Result, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	var lastErr error
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		result, err := s.executeOnce(ctx, customerID)
		if err == nil {
			return result, nil
		}
		if isOrderCodeCollision(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "order code generation kept colliding")
}

func (s *service) executeOnce(ctx context.Context, customerID uuid.UUID) (*Result, error) {
	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)
		catalogRepo := s.catalogRepo.WithTx(tx)

		activeCart, err := cartRepo.FindActiveByCustomer(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, "no items to check out")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(activeCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "no items to check out")
		}

		address, err := s.resolveAddress(ctx, tx, activeCart, customerID)
		if err != nil {
			return err
		}

		paymentMethod := enums.PaymentMethodCash
		if activeCart.PaymentMethod != nil {
			paymentMethod = *activeCart.PaymentMethod
		}

		products, storeID, err := s.loadProducts(ctx, catalogRepo, activeCart.Items)
		if err != nil {
			return err
		}

		code, err := generateOrderCode()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order code")
		}

		order := &models.Order{
			OrderCode:          code,
			StoreID:            storeID,
			CustomerID:         customerID,
			Status:             enums.OrderStatusPending,
			PaymentMethod:      paymentMethod,
			ShippingAddress:    address.Address,
			ShippingLat:        address.Lat,
			ShippingLng:        address.Lng,
			SubtotalCents:      activeCart.SubtotalCents,
			DiscountTotalCents: activeCart.DiscountTotalCents,
			TaxTotalCents:      activeCart.TaxTotalCents,
			DeliveryFeeCents:   activeCart.DeliveryFeeCents,
			GrandTotalCents:    activeCart.GrandTotalCents,
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}

		requests := make([]inventory.ReservationRequest, len(activeCart.Items))
		for i, item := range activeCart.Items {
			requests[i] = inventory.ReservationRequest{
				CartItemID: item.ID,
				ProductID:  item.ProductID,
				VariantID:  item.ProductVariantID,
				Qty:        item.Qty,
			}
		}
		if err := s.guard.Reserve(ctx, tx, requests); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(activeCart.Items))
		for _, item := range activeCart.Items {
			items = append(items, buildOrderItem(order.ID, item, products[item.ProductID]))
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return err
		}

		history := &models.OrderStatusHistory{
			OrderID:       order.ID,
			FromStatus:    nil,
			ToStatus:      enums.OrderStatusPending,
			ChangedByID:   customerID,
			ChangedByRole: enums.RoleCustomer,
			Reason:        "order placed",
		}
		if err := ordersRepo.CreateHistory(ctx, history); err != nil {
			return err
		}

		if err := cartRepo.MarkConverted(ctx, activeCart.ID, time.Now().UTC()); err != nil {
			return err
		}

		result = &Result{
			OrderID:         order.ID,
			OrderCode:       order.OrderCode,
			GrandTotalCents: order.GrandTotalCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveAddress prefers the address selected on the cart and falls back to
// the customer's default verified address.
func (s *service) resolveAddress(ctx context.Context, tx *gorm.DB, activeCart *models.Cart, customerID uuid.UUID) (*models.CustomerAddress, error) {
	repo := s.customersRepo.WithTx(tx)

	if activeCart.AddressID != nil {
		address, err := repo.FindAddress(ctx, *activeCart.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeAddressUnverified, "selected address no longer exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		if address.CustomerID != customerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another customer")
		}
		if !address.IsVerified {
			return nil, pkgerrors.New(pkgerrors.CodeAddressUnverified, "selected address is not verified")
		}
		return address, nil
	}

	address, err := repo.FindDefaultVerifiedAddress(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeAddressUnverified, "no verified shipping address on file")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default address")
	}
	return address, nil
}

// loadProducts resolves every product referenced by the cart and pins the
// order to a single store.
func (s *service) loadProducts(ctx context.Context, catalogRepo catalog.Repository, items []models.CartItem) (map[uuid.UUID]*models.Product, uuid.UUID, error) {
	products := make(map[uuid.UUID]*models.Product, len(items))
	var storeID uuid.UUID

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			loaded, err := catalogRepo.FindProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is no longer available")
				}
				return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if !loaded.IsActive {
				return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is no longer available", loaded.Name))
			}
			products[item.ProductID] = loaded
			product = loaded
		}

		if storeID == uuid.Nil {
			storeID = product.StoreID
		} else if storeID != product.StoreID {
			return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items must belong to a single store")
		}
	}
	return products, storeID, nil
}

// buildOrderItem freezes one cart line into an order line. A zero or missing
// cart price is repaired from the catalog so a stale snapshot cannot place a
// free order.
func buildOrderItem(orderID uuid.UUID, item models.CartItem, product *models.Product) models.OrderItem {
	unit := item.UnitPriceCents
	discount := item.DiscountCents
	if unit <= 0 && product != nil {
		unit = product.PriceCents
		discount = 0
		if product.DiscountPriceCents != nil && *product.DiscountPriceCents > 0 && *product.DiscountPriceCents < unit {
			discount = unit - *product.DiscountPriceCents
		}
	}

	name := ""
	if product != nil {
		name = product.Name
	}

	return models.OrderItem{
		OrderID:          orderID,
		ProductID:        item.ProductID,
		ProductVariantID: item.ProductVariantID,
		ProductName:      name,
		Options:          item.Options,
		Qty:              item.Qty,
		UnitPriceCents:   unit,
		DiscountCents:    discount,
		LineTotalCents:   (unit - discount) * item.Qty,
	}
}

func isOrderCodeCollision(err error) bool {
	return db.IsUniqueViolation(err, "idx_orders_order_code") ||
		db.IsUniqueViolation(err, "orders.order_code")
}
