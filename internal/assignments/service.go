package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rashidalbanna/mandoob-backend/internal/cashledger"
	"github.com/rashidalbanna/mandoob-backend/internal/orders"
	"github.com/rashidalbanna/mandoob-backend/pkg/db"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// assignableStatuses are the order states a driver can still be attached to.
var assignableStatuses = map[enums.OrderStatus]bool{
	enums.OrderStatusPending:   true,
	enums.OrderStatusPreparing: true,
	enums.OrderStatusReady:     true,
}

var activeStatuses = []enums.OrderStatus{
	enums.OrderStatusAssigned,
	enums.OrderStatusStarted,
	enums.OrderStatusPicked,
	enums.OrderStatusOutForDelivery,
}

var doneStatuses = []enums.OrderStatus{
	enums.OrderStatusDelivered,
	enums.OrderStatusRejected,
	enums.OrderStatusCancelled,
}

// advanceTargets are the statuses a driver may push an order to.
var advanceTargets = map[enums.OrderStatus]bool{
	enums.OrderStatusStarted:        true,
	enums.OrderStatusPicked:         true,
	enums.OrderStatusOutForDelivery: true,
	enums.OrderStatusDelivered:      true,
}

// Service runs the driver's side of fulfillment: attach to an order, accept
// or reject it, then walk it through delivery. Delivering a cash order
// credits the driver's cash ledger once.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*models.OrderAssignment, error)
	Accept(ctx context.Context, orderID, driverID uuid.UUID) (*models.OrderAssignment, error)
	Reject(ctx context.Context, orderID, driverID uuid.UUID) (*models.OrderAssignment, error)
	Advance(ctx context.Context, orderID, driverID uuid.UUID, to enums.OrderStatus) (*orders.TransitionResult, error)
	ListDriverOrders(ctx context.Context, driverID uuid.UUID, filter string) ([]models.Order, error)
}

// AssignInput captures an order-to-driver attachment request.
type AssignInput struct {
	OrderID      uuid.UUID
	DriverID     uuid.UUID
	AssignedByID *uuid.UUID
}

type service struct {
	repo       Repository
	tx         txRunner
	ordersRepo orders.Repository
	ordersSvc  orders.Service
	cash       cashledger.Service
}

// NewService builds an assignments service with the required dependencies.
func NewService(repo Repository, tx txRunner, ordersRepo orders.Repository, ordersSvc orders.Service, cash cashledger.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if cash == nil {
		return nil, fmt.Errorf("cash ledger service required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		ordersRepo: ordersRepo,
		ordersSvc:  ordersSvc,
		cash:       cash,
	}, nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*models.OrderAssignment, error) {
	if input.OrderID == uuid.Nil || input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and driver id are required")
	}

	var assignment *models.OrderAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.ordersRepo.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !assignableStatuses[order.Status] {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("order in status %s cannot be assigned", order.Status))
		}

		assignment = &models.OrderAssignment{
			OrderID:      input.OrderID,
			DriverID:     input.DriverID,
			AssignedByID: input.AssignedByID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, assignment); err != nil {
			if isDuplicateAssignment(err) {
				return pkgerrors.New(pkgerrors.CodeAssignmentExists, "order already has an assignment")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *service) Accept(ctx context.Context, orderID, driverID uuid.UUID) (*models.OrderAssignment, error) {
	var assignment *models.OrderAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.loadOwnedAssignment(ctx, tx, orderID, driverID)
		if err != nil {
			return err
		}
		if loaded.RejectedAt != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadyRejected, "assignment was already rejected")
		}
		if loaded.AcceptedAt != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadyAccepted, "assignment was already accepted")
		}

		now := time.Now().UTC()
		loaded.AcceptedAt = &now
		if err := s.repo.WithTx(tx).Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save assignment")
		}

		if _, err := s.ordersSvc.TransitionTx(ctx, tx, orders.TransitionInput{
			OrderID:   orderID,
			To:        enums.OrderStatusAssigned,
			ActorID:   driverID,
			ActorRole: enums.RoleDriver,
			Reason:    "driver accepted",
		}); err != nil {
			return err
		}
		assignment = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *service) Reject(ctx context.Context, orderID, driverID uuid.UUID) (*models.OrderAssignment, error) {
	var assignment *models.OrderAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.loadOwnedAssignment(ctx, tx, orderID, driverID)
		if err != nil {
			return err
		}
		if loaded.AcceptedAt != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadyAccepted, "assignment was already accepted")
		}
		if loaded.RejectedAt != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadyRejected, "assignment was already rejected")
		}

		now := time.Now().UTC()
		loaded.RejectedAt = &now
		if err := s.repo.WithTx(tx).Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save assignment")
		}

		if _, err := s.ordersSvc.TransitionTx(ctx, tx, orders.TransitionInput{
			OrderID:   orderID,
			To:        enums.OrderStatusRejected,
			ActorID:   driverID,
			ActorRole: enums.RoleDriver,
			Reason:    "driver rejected",
		}); err != nil {
			return err
		}
		assignment = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *service) Advance(ctx context.Context, orderID, driverID uuid.UUID, to enums.OrderStatus) (*orders.TransitionResult, error) {
	if !advanceTargets[to] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("drivers cannot move an order to %s", to))
	}

	var result *orders.TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		assignment, err := s.loadOwnedAssignment(ctx, tx, orderID, driverID)
		if err != nil {
			return err
		}
		if assignment.RejectedAt != nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "assignment was rejected")
		}
		if assignment.AcceptedAt == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "assignment has not been accepted")
		}

		result, err = s.ordersSvc.TransitionTx(ctx, tx, orders.TransitionInput{
			OrderID:   orderID,
			To:        to,
			ActorID:   driverID,
			ActorRole: enums.RoleDriver,
		})
		if err != nil {
			return err
		}
		if !result.Changed {
			return nil
		}

		now := time.Now().UTC()
		switch to {
		case enums.OrderStatusStarted:
			assignment.StartedAt = &now
		case enums.OrderStatusPicked:
			assignment.PickedAt = &now
		case enums.OrderStatusOutForDelivery:
			assignment.OutForDeliveryAt = &now
		case enums.OrderStatusDelivered:
			assignment.CompletedAt = &now
		}
		if err := s.repo.WithTx(tx).Save(ctx, assignment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save assignment")
		}

		if to == enums.OrderStatusDelivered && result.Order.PaymentMethod == enums.PaymentMethodCash {
			if _, _, err := s.cash.CollectForDelivery(ctx, tx, driverID, orderID, result.Order.GrandTotalCents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListDriverOrders(ctx context.Context, driverID uuid.UUID, filter string) ([]models.Order, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}

	statuses, err := resolveStatusFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByDriver(ctx, driverID, statuses)
}

func (s *service) loadOwnedAssignment(ctx context.Context, tx *gorm.DB, orderID, driverID uuid.UUID) (*models.OrderAssignment, error) {
	if orderID == uuid.Nil || driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and driver id are required")
	}

	assignment, err := s.repo.WithTx(tx).FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if assignment.DriverID != driverID {
		return nil, pkgerrors.New(pkgerrors.CodeNotOwnedAssignment, "assignment belongs to another driver")
	}
	return assignment, nil
}

func resolveStatusFilter(filter string) ([]enums.OrderStatus, error) {
	switch filter {
	case "":
		return nil, nil
	case "active":
		return activeStatuses, nil
	case "done":
		return doneStatuses, nil
	}

	status, err := enums.ParseOrderStatus(filter)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status filter %q", filter))
	}
	return []enums.OrderStatus{status}, nil
}

func isDuplicateAssignment(err error) bool {
	return db.IsUniqueViolation(err, "idx_order_assignments_order_id") ||
		db.IsUniqueViolation(err, "order_assignments.order_id")
}
