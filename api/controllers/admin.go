package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/api/responses"
	"github.com/rashidalbanna/mandoob-backend/api/validators"
	"github.com/rashidalbanna/mandoob-backend/internal/assignments"
	"github.com/rashidalbanna/mandoob-backend/internal/cashledger"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
)

// AdminAssignOrder attaches a chosen driver to an order on the dispatcher's
// behalf.
func AdminAssignOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Assign(r.Context(), assignments.AssignInput{
			OrderID:      orderID,
			DriverID:     payload.DriverID,
			AssignedByID: &adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "driver assigned", newAssignmentResponse(assignment))
	}
}

// AdminDriverCashSummary returns any driver's ledger fold for reconciliation.
func AdminDriverCashSummary(svc cashledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash ledger service unavailable"))
			return
		}

		driverID, err := validators.ParsePathUUID(r, "driverId")
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

// AdminDriverCashAdjust records a manual correction on a driver's ledger.
func AdminDriverCashAdjust(svc cashledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash ledger service unavailable"))
			return
		}

		driverID, err := validators.ParsePathUUID(r, "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminCashAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Adjust(r.Context(), cashledger.AdjustInput{
			DriverID:    driverID,
			AmountCents: payload.AmountCents,
			Note:        payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "adjustment recorded", newCashEntryResponse(entry))
	}
}

type adminAssignRequest struct {
	DriverID uuid.UUID `json:"driver_id" validate:"required"`
}

type adminCashAdjustRequest struct {
	AmountCents int     `json:"amount_cents" validate:"required"`
	Note        *string `json:"note"`
}
