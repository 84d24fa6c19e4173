package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies order status transitions and serves order reads. Every
// applied transition appends exactly one history row; a transition to the
// current status is a successful no-op and appends nothing.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*TransitionResult, error)
	GetForCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	Timeline(ctx context.Context, orderID, actorID uuid.UUID, role enums.ActorRole) ([]models.OrderStatusHistory, error)
	ListForOwner(ctx context.Context, storeID, ownerID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
	OwnerTransition(ctx context.Context, orderID, ownerID uuid.UUID, to enums.OrderStatus, reason string) (*TransitionResult, error)
}

// TransitionInput captures one requested status change.
type TransitionInput struct {
	OrderID   uuid.UUID
	To        enums.OrderStatus
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
	Reason    string
}

// TransitionResult reports the order after the call. Changed is false for
// the idempotent same-status case.
type TransitionResult struct {
	Order   *models.Order
	Changed bool
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.TransitionTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionTx runs the transition inside the caller's transaction so
// workflows can couple it with their own writes.
func (s *service) TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*TransitionResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("orders: transaction required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if !input.ActorRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid actor role %q", input.ActorRole))
	}

	repo := s.repo.WithTx(tx)

	order, err := repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.Status == input.To {
		return &TransitionResult{Order: order, Changed: false}, nil
	}

	if err := validateTransition(order.Status, input.To, input.ActorRole); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	applied, err := repo.UpdateStatusIf(ctx, order.ID, order.Status, input.To, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModified,
			fmt.Sprintf("order %s changed status mid-request", order.OrderCode))
	}

	from := order.Status
	history := &models.OrderStatusHistory{
		OrderID:       order.ID,
		FromStatus:    &from,
		ToStatus:      input.To,
		ChangedByID:   input.ActorID,
		ChangedByRole: input.ActorRole,
		Reason:        transitionReason(input.Reason, input.To),
	}
	if err := repo.CreateHistory(ctx, history); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}

	order.Status = input.To
	order.UpdatedAt = now
	switch input.To {
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	}
	return &TransitionResult{Order: order, Changed: true}, nil
}

func (s *service) GetForCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) Timeline(ctx context.Context, orderID, actorID uuid.UUID, role enums.ActorRole) ([]models.OrderStatusHistory, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, order, actorID, role); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, order.ID)
}

func (s *service) ListForOwner(ctx context.Context, storeID, ownerID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	if err := s.verifyStoreOwner(ctx, storeID, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByStore(ctx, storeID, statuses)
}

func (s *service) OwnerTransition(ctx context.Context, orderID, ownerID uuid.UUID, to enums.OrderStatus, reason string) (*TransitionResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyStoreOwner(ctx, order.StoreID, ownerID); err != nil {
		return nil, err
	}
	return s.Transition(ctx, TransitionInput{
		OrderID:   orderID,
		To:        to,
		ActorID:   ownerID,
		ActorRole: enums.RoleShopOwner,
		Reason:    reason,
	})
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) authorizeRead(ctx context.Context, order *models.Order, actorID uuid.UUID, role enums.ActorRole) error {
	switch role {
	case enums.RoleAdmin, enums.RoleSystem:
		return nil
	case enums.RoleCustomer:
		if order.CustomerID == actorID {
			return nil
		}
	case enums.RoleShopOwner:
		if err := s.verifyStoreOwner(ctx, order.StoreID, actorID); err == nil {
			return nil
		}
	case enums.RoleDriver:
		if order.Assignment != nil && order.Assignment.DriverID == actorID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this order")
}

func (s *service) verifyStoreOwner(ctx context.Context, storeID, ownerID uuid.UUID) error {
	if storeID == uuid.Nil || ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store and owner ids are required")
	}
	store, err := s.repo.FindStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another owner")
	}
	return nil
}

func transitionReason(reason string, to enums.OrderStatus) string {
	if reason != "" {
		return reason
	}
	return fmt.Sprintf("moved to %s", to)
}
