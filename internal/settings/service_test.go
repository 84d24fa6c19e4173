package settings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepository struct {
	values map[string]string
	err    error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) GetValue(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func TestTaxRatePercent(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&fakeRepository{values: map[string]string{KeyTaxRate: "10"}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rate, err := svc.TaxRatePercent(context.Background())
	if err != nil {
		t.Fatalf("TaxRatePercent: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected rate 10, got %s", rate)
	}
}

func TestTaxRatePercentMissingKeyDefaultsToZero(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&fakeRepository{values: map[string]string{}})
	rate, err := svc.TaxRatePercent(context.Background())
	if err != nil {
		t.Fatalf("TaxRatePercent: %v", err)
	}
	if !rate.IsZero() {
		t.Fatalf("expected zero rate, got %s", rate)
	}
}

func TestDefaultDeliveryFeeCents(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&fakeRepository{values: map[string]string{KeyDefaultDeliveryFee: "5.00"}})
	fee, err := svc.DefaultDeliveryFeeCents(context.Background())
	if err != nil {
		t.Fatalf("DefaultDeliveryFeeCents: %v", err)
	}
	if fee != 500 {
		t.Fatalf("expected 500 cents, got %d", fee)
	}
}

func TestDefaultDeliveryFeeCentsBadValue(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&fakeRepository{values: map[string]string{KeyDefaultDeliveryFee: "five"}})
	if _, err := svc.DefaultDeliveryFeeCents(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
