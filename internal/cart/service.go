package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/internal/catalog"
	"github.com/rashidalbanna/mandoob-backend/internal/customers"
	"github.com/rashidalbanna/mandoob-backend/internal/settings"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the customer-facing cart operations. Every mutation ends
// with a totals recompute so the snapshot on the cart row is never stale.
type Service interface {
	GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateItemQty(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	SelectAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.Cart, error)
	SelectPaymentMethod(ctx context.Context, customerID uuid.UUID, method enums.PaymentMethod) (*models.Cart, error)
}

// AddItemInput captures one add-to-cart request.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
	Options   types.OptionSelection
}

type service struct {
	repo      Repository
	tx        txRunner
	catalog   catalog.Repository
	customers customers.Repository
	settings  settings.Service
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, catalogRepo catalog.Repository, customerRepo customers.Repository, settingsSvc settings.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		catalog:   catalogRepo,
		customers: customerRepo,
		settings:  settingsSvc,
	}, nil
}

func (s *service) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	return s.withActiveCart(ctx, customerID, func(*gorm.DB, Repository, *models.Cart) error {
		return nil
	})
}

func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	return s.withActiveCart(ctx, customerID, func(tx *gorm.DB, repo Repository, cart *models.Cart) error {
		product, variant, err := s.loadCatalogPair(ctx, tx, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}

		existing := findLine(cart.Items, input.ProductID, input.VariantID)
		desiredQty := input.Qty
		if existing != nil {
			desiredQty += existing.Qty
		}
		if err := checkAdvisoryStock(product, variant, desiredQty); err != nil {
			return err
		}

		if existing != nil {
			existing.Qty = desiredQty
			existing.LineTotalCents = lineTotal(existing)
			return repo.SaveItem(ctx, existing)
		}

		unit, discount := resolveUnitPrice(product)
		item := &models.CartItem{
			CartID:           cart.ID,
			ProductID:        product.ID,
			ProductVariantID: input.VariantID,
			Qty:              input.Qty,
			UnitPriceCents:   unit,
			DiscountCents:    discount,
			Options:          input.Options,
		}
		item.LineTotalCents = lineTotal(item)
		return repo.CreateItem(ctx, item)
	})
}

func (s *service) UpdateItemQty(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	return s.withActiveCart(ctx, customerID, func(tx *gorm.DB, repo Repository, cart *models.Cart) error {
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}

		product, variant, err := s.loadCatalogPair(ctx, tx, item.ProductID, item.ProductVariantID)
		if err != nil {
			return err
		}
		if err := checkAdvisoryStock(product, variant, qty); err != nil {
			return err
		}

		item.Qty = qty
		item.LineTotalCents = lineTotal(item)
		return repo.SaveItem(ctx, item)
	})
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.Cart, error) {
	return s.withActiveCart(ctx, customerID, func(tx *gorm.DB, repo Repository, cart *models.Cart) error {
		if _, err := repo.FindItem(ctx, cart.ID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}
		return repo.DeleteItem(ctx, cart.ID, itemID)
	})
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	return s.withActiveCart(ctx, customerID, func(tx *gorm.DB, repo Repository, cart *models.Cart) error {
		return repo.DeleteItems(ctx, cart.ID)
	})
}

func (s *service) SelectAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.Cart, error) {
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}

	return s.withActiveCart(ctx, customerID, func(tx *gorm.DB, repo Repository, cart *models.Cart) error {
		address, err := s.customers.WithTx(tx).FindAddress(ctx, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return err
		}
		if address.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another customer")
		}
		cart.AddressID = &address.ID
		return repo.Save(ctx, cart)
	})
}

func (s *service) SelectPaymentMethod(ctx context.Context, customerID uuid.UUID, method enums.PaymentMethod) (*models.Cart, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}

	return s.withActiveCart(ctx, customerID, func(tx *gorm.DB, repo Repository, cart *models.Cart) error {
		cart.PaymentMethod = &method
		return repo.Save(ctx, cart)
	})
}

// withActiveCart loads (or lazily creates) the customer's active cart, runs
// the mutation, then reloads and re-snapshots totals within one transaction.
func (s *service) withActiveCart(ctx context.Context, customerID uuid.UUID, mutate func(tx *gorm.DB, repo Repository, cart *models.Cart) error) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindActiveByCustomer(ctx, customerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cart = &models.Cart{CustomerID: customerID, Status: enums.CartStatusActive}
			if err := repo.Create(ctx, cart); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := mutate(tx, repo, cart); err != nil {
			return err
		}

		refreshed, err := repo.FindActiveByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if err := s.snapshotTotals(ctx, refreshed); err != nil {
			return err
		}
		if err := repo.Save(ctx, refreshed); err != nil {
			return err
		}
		result = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) snapshotTotals(ctx context.Context, cart *models.Cart) error {
	taxRate, err := s.settings.TaxRatePercent(ctx)
	if err != nil {
		return err
	}
	fee, err := s.settings.DefaultDeliveryFeeCents(ctx)
	if err != nil {
		return err
	}
	recomputeTotals(cart, taxRate, fee)
	return nil
}

// loadCatalogPair resolves the product and optional variant behind a cart
// line. A product that has variants cannot be added without choosing one;
// its own stock column is not a sellable pool in that case.
func (s *service) loadCatalogPair(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) (*models.Product, *models.ProductVariant, error) {
	catalogRepo := s.catalog.WithTx(tx)

	product, err := catalogRepo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, nil, err
	}
	if !product.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	if variantID != nil {
		variant, err := catalogRepo.FindVariant(ctx, *variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
			}
			return nil, nil, err
		}
		if variant.ProductID != product.ID {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
		return product, variant, nil
	}

	count, err := catalogRepo.CountVariants(ctx, product.ID)
	if err != nil {
		return nil, nil, err
	}
	if count > 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "variant selection is required for this product")
	}
	return product, nil, nil
}

// checkAdvisoryStock gives early feedback on availability. It is an
// unlocked read; the checkout-time reservation is the authoritative check.
func checkAdvisoryStock(product *models.Product, variant *models.ProductVariant, qty int) error {
	available := product.StockQty
	details := map[string]any{
		"product_id": product.ID,
		"requested":  qty,
	}
	if variant != nil {
		available = variant.StockQty
		details["variant_id"] = variant.ID
	}
	if available < qty {
		details["available"] = available
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for product").WithDetails(details)
	}
	return nil
}

func findLine(items []models.CartItem, productID uuid.UUID, variantID *uuid.UUID) *models.CartItem {
	for i := range items {
		item := &items[i]
		if item.ProductID != productID {
			continue
		}
		if (item.ProductVariantID == nil) != (variantID == nil) {
			continue
		}
		if item.ProductVariantID != nil && *item.ProductVariantID != *variantID {
			continue
		}
		return item
	}
	return nil
}
