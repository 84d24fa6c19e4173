package cashledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/pkg/db"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
)

// recentEntryLimit caps the entry list returned with a cash summary.
const recentEntryLimit = 50

// autoCollectNote marks entries the delivery flow creates on the driver's
// behalf when a cash order is confirmed delivered.
const autoCollectNote = "Auto collect on delivery"

// Service records and folds driver cash movements. The ledger is
// append-only; there is no stored balance to drift out of sync.
type Service interface {
	// Collect credits cash the driver took from a customer. When OrderID is
	// set, a repeat collect for the same order returns the original entry
	// without writing a second row.
	Collect(ctx context.Context, input CollectInput) (*models.DriverCashEntry, error)
	// CollectForDelivery is the automatic variant the delivery confirmation
	// uses, running inside the confirmation's transaction. It reports whether
	// a new entry was written.
	CollectForDelivery(ctx context.Context, tx *gorm.DB, driverID, orderID uuid.UUID, amountCents int) (*models.DriverCashEntry, bool, error)
	// Remit debits cash the driver handed over to the platform.
	Remit(ctx context.Context, input RemitInput) (*models.DriverCashEntry, error)
	// Adjust records a manual correction; the amount may be negative.
	Adjust(ctx context.Context, input AdjustInput) (*models.DriverCashEntry, error)
	// Balance folds the driver's entries into cash currently held.
	Balance(ctx context.Context, driverID uuid.UUID) (int, error)
	// Summary returns the balance, per-type totals and recent entries.
	Summary(ctx context.Context, driverID uuid.UUID) (*DriverCashSummary, error)
}

// CollectInput captures a driver-reported cash collection.
type CollectInput struct {
	DriverID    uuid.UUID
	OrderID     *uuid.UUID
	AmountCents int
	Reference   *string
	Note        *string
}

// RemitInput captures a cash handover from the driver to the platform.
type RemitInput struct {
	DriverID    uuid.UUID
	AmountCents int
	Reference   *string
	Note        *string
}

// AdjustInput captures a manual ledger correction.
type AdjustInput struct {
	DriverID    uuid.UUID
	AmountCents int
	Note        *string
}

// DriverCashSummary is the fold of a driver's ledger at read time.
type DriverCashSummary struct {
	DriverID        uuid.UUID                `json:"driver_id"`
	BalanceCents    int                      `json:"balance_cents"`
	CollectedCents  int                      `json:"collected_cents"`
	RemittedCents   int                      `json:"remitted_cents"`
	AdjustmentCents int                      `json:"adjustment_cents"`
	Entries         []models.DriverCashEntry `json:"entries"`
}

type service struct {
	repo Repository
}

// NewService wires a cash ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cash ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Collect(ctx context.Context, input CollectInput) (*models.DriverCashEntry, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collect amount must be positive")
	}

	entry := &models.DriverCashEntry{
		DriverID:    input.DriverID,
		OrderID:     input.OrderID,
		Type:        enums.CashEntryTypeCollect,
		AmountCents: input.AmountCents,
		Reference:   input.Reference,
		Note:        input.Note,
	}
	created, _, err := s.createCollect(ctx, s.repo, entry)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) CollectForDelivery(ctx context.Context, tx *gorm.DB, driverID, orderID uuid.UUID, amountCents int) (*models.DriverCashEntry, bool, error) {
	if tx == nil {
		return nil, false, fmt.Errorf("cashledger: transaction required")
	}
	if driverID == uuid.Nil || orderID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "driver id and order id are required")
	}
	if amountCents <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "collect amount must be positive")
	}

	note := autoCollectNote
	entry := &models.DriverCashEntry{
		DriverID:    driverID,
		OrderID:     &orderID,
		Type:        enums.CashEntryTypeCollect,
		AmountCents: amountCents,
		Note:        &note,
	}
	return s.createCollect(ctx, s.repo.WithTx(tx), entry)
}

// createCollect inserts a collect entry, falling back to the existing row
// when the (driver, order, collect) key is already taken.
func (s *service) createCollect(ctx context.Context, repo Repository, entry *models.DriverCashEntry) (*models.DriverCashEntry, bool, error) {
	if entry.OrderID != nil {
		existing, err := repo.FindCollectForOrder(ctx, entry.DriverID, *entry.OrderID)
		switch {
		case err == nil:
			return existing, false, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, false, err
		}
	}

	if err := repo.Create(ctx, entry); err != nil {
		if entry.OrderID != nil && db.IsUniqueViolation(err, "") {
			existing, findErr := repo.FindCollectForOrder(ctx, entry.DriverID, *entry.OrderID)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return entry, true, nil
}

func (s *service) Remit(ctx context.Context, input RemitInput) (*models.DriverCashEntry, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remit amount must be positive")
	}

	entry := &models.DriverCashEntry{
		DriverID:    input.DriverID,
		Type:        enums.CashEntryTypeRemit,
		AmountCents: input.AmountCents,
		Reference:   input.Reference,
		Note:        input.Note,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.DriverCashEntry, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	if input.AmountCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment amount must be non-zero")
	}

	entry := &models.DriverCashEntry{
		DriverID:    input.DriverID,
		Type:        enums.CashEntryTypeAdjustment,
		AmountCents: input.AmountCents,
		Note:        input.Note,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Balance(ctx context.Context, driverID uuid.UUID) (int, error) {
	if driverID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	sums, err := s.repo.SumByType(ctx, driverID)
	if err != nil {
		return 0, err
	}
	return foldBalance(sums), nil
}

func (s *service) Summary(ctx context.Context, driverID uuid.UUID) (*DriverCashSummary, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	sums, err := s.repo.SumByType(ctx, driverID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByDriver(ctx, driverID, recentEntryLimit)
	if err != nil {
		return nil, err
	}
	return &DriverCashSummary{
		DriverID:        driverID,
		BalanceCents:    foldBalance(sums),
		CollectedCents:  sums[enums.CashEntryTypeCollect],
		RemittedCents:   sums[enums.CashEntryTypeRemit],
		AdjustmentCents: sums[enums.CashEntryTypeAdjustment],
		Entries:         entries,
	}, nil
}

func foldBalance(sums map[enums.CashEntryType]int) int {
	return sums[enums.CashEntryTypeCollect] - sums[enums.CashEntryTypeRemit] + sums[enums.CashEntryTypeAdjustment]
}
