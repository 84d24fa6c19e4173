package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/api/responses"
	"github.com/rashidalbanna/mandoob-backend/api/validators"
	"github.com/rashidalbanna/mandoob-backend/internal/assignments"
	"github.com/rashidalbanna/mandoob-backend/internal/cashledger"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
)

// DriverOrderList returns the driver's assigned orders, optionally filtered
// by ?status=active|done or a single status name.
func DriverOrderList(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := strings.TrimSpace(r.URL.Query().Get("status"))
		orders, err := svc.ListDriverOrders(r.Context(), driverID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "orders fetched", newOrderListResponse(orders))
	}
}

// DriverClaimOrder attaches the driver to an unassigned order.
func DriverClaimOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Assign(r.Context(), assignments.AssignInput{
			OrderID:  orderID,
			DriverID: driverID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "order claimed", newAssignmentResponse(assignment))
	}
}

// DriverAcceptOrder confirms the driver's assignment and moves the order to
// assigned.
func DriverAcceptOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Accept(r.Context(), orderID, driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "assignment accepted", newAssignmentResponse(assignment))
	}
}

// DriverRejectOrder declines the assignment and moves the order to rejected.
func DriverRejectOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Reject(r.Context(), orderID, driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "assignment rejected", newAssignmentResponse(assignment))
	}
}

// DriverAdvanceOrder walks an accepted order through the delivery waypoints.
// Delivering a cash order credits the driver's ledger inside the same
// transaction.
func DriverAdvanceOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload advanceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := enums.ParseOrderStatus(payload.To)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		result, err := svc.Advance(r.Context(), orderID, driverID, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "order updated", newOrderResponse(result.Order))
	}
}

// DriverCashSummary returns the driver's balance, per-type totals and recent
// entries.
func DriverCashSummary(svc cashledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash ledger service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "cash summary fetched", summary)
	}
}

// DriverCashCollect records cash the driver took from a customer.
func DriverCashCollect(svc cashledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash ledger service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cashCollectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Collect(r.Context(), cashledger.CollectInput{
			DriverID:    driverID,
			OrderID:     payload.OrderID,
			AmountCents: payload.AmountCents,
			Reference:   payload.Reference,
			Note:        payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "cash collected", newCashEntryResponse(entry))
	}
}

// DriverCashRemit records cash the driver handed over to the platform.
func DriverCashRemit(svc cashledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash ledger service unavailable"))
			return
		}

		driverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cashRemitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Remit(r.Context(), cashledger.RemitInput{
			DriverID:    driverID,
			AmountCents: payload.AmountCents,
			Reference:   payload.Reference,
			Note:        payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "cash remitted", newCashEntryResponse(entry))
	}
}

type advanceOrderRequest struct {
	To string `json:"to" validate:"required"`
}

type cashCollectRequest struct {
	OrderID     *uuid.UUID `json:"order_id"`
	AmountCents int        `json:"amount_cents" validate:"required,min=1"`
	Reference   *string    `json:"reference"`
	Note        *string    `json:"note"`
}

type cashRemitRequest struct {
	AmountCents int     `json:"amount_cents" validate:"required,min=1"`
	Reference   *string `json:"reference"`
	Note        *string `json:"note"`
}

type assignmentResponse struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          uuid.UUID  `json:"order_id"`
	DriverID         uuid.UUID  `json:"driver_id"`
	AssignedByID     *uuid.UUID `json:"assigned_by_id,omitempty"`
	AssignedAt       time.Time  `json:"assigned_at"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	PickedAt         *time.Time `json:"picked_at,omitempty"`
	OutForDeliveryAt *time.Time `json:"out_for_delivery_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type cashEntryResponse struct {
	ID          uuid.UUID  `json:"id"`
	DriverID    uuid.UUID  `json:"driver_id"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	Type        string     `json:"type"`
	AmountCents int        `json:"amount_cents"`
	Reference   *string    `json:"reference,omitempty"`
	Note        *string    `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newAssignmentResponse(assignment *models.OrderAssignment) assignmentResponse {
	return assignmentResponse{
		ID:               assignment.ID,
		OrderID:          assignment.OrderID,
		DriverID:         assignment.DriverID,
		AssignedByID:     assignment.AssignedByID,
		AssignedAt:       assignment.AssignedAt,
		AcceptedAt:       assignment.AcceptedAt,
		RejectedAt:       assignment.RejectedAt,
		StartedAt:        assignment.StartedAt,
		PickedAt:         assignment.PickedAt,
		OutForDeliveryAt: assignment.OutForDeliveryAt,
		CompletedAt:      assignment.CompletedAt,
	}
}

func newCashEntryResponse(entry *models.DriverCashEntry) cashEntryResponse {
	return cashEntryResponse{
		ID:          entry.ID,
		DriverID:    entry.DriverID,
		OrderID:     entry.OrderID,
		Type:        string(entry.Type),
		AmountCents: entry.AmountCents,
		Reference:   entry.Reference,
		Note:        entry.Note,
		CreatedAt:   entry.CreatedAt,
	}
}
