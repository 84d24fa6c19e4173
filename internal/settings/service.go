package settings

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Setting keys the order flow depends on. Values are stored as plain text in
// the settings table and parsed on read.
const (
	KeyTaxRate            = "tax_rate"
	KeyDefaultDeliveryFee = "default_delivery_fee"
)

// Service resolves platform-level pricing configuration. Missing keys fall
// back to zero so a fresh install can take orders before any settings exist.
type Service interface {
	// TaxRatePercent returns the tax rate as a percentage, e.g. 10 for 10%.
	TaxRatePercent(ctx context.Context) (decimal.Decimal, error)
	// DefaultDeliveryFeeCents returns the flat delivery fee in cents.
	DefaultDeliveryFeeCents(ctx context.Context) (int, error)
}

type service struct {
	repo Repository
}

// NewService wires a settings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) TaxRatePercent(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.repo.GetValue(ctx, KeyTaxRate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rate")
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("parse %s value %q", KeyTaxRate, raw))
	}
	if rate.IsNegative() {
		return decimal.Zero, nil
	}
	return rate, nil
}

func (s *service) DefaultDeliveryFeeCents(ctx context.Context) (int, error) {
	raw, err := s.repo.GetValue(ctx, KeyDefaultDeliveryFee)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fee")
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("parse %s value %q", KeyDefaultDeliveryFee, raw))
	}
	if fee.IsNegative() {
		return 0, nil
	}
	cents := fee.Mul(decimal.NewFromInt(100)).Round(0)
	return int(cents.IntPart()), nil
}
