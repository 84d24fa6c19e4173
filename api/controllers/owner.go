package controllers

import (
	"net/http"
	"strings"

	"github.com/rashidalbanna/mandoob-backend/api/responses"
	"github.com/rashidalbanna/mandoob-backend/api/validators"
	ordersvc "github.com/rashidalbanna/mandoob-backend/internal/orders"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
)

// OwnerOrderList returns the store's orders, optionally filtered by a
// comma-separated ?status= list.
func OwnerOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerStoreID, err := storeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statuses, err := parseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListForOwner(r.Context(), ownerStoreID, ownerID, statuses)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "orders fetched", newOrderListResponse(orders))
	}
}

// OwnerOrderTransition moves one of the store's orders through the owner's
// side of the lifecycle (preparing, ready, cancelled).
func OwnerOrderTransition(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ownerTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := enums.ParseOrderStatus(payload.To)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		result, err := svc.OwnerTransition(r.Context(), orderID, ownerID, to, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "order updated", newOrderResponse(result.Order))
	}
}

type ownerTransitionRequest struct {
	To     string `json:"to" validate:"required"`
	Reason string `json:"reason"`
}

func parseStatusFilter(raw string) ([]enums.OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]enums.OrderStatus, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status, err := enums.ParseOrderStatus(part)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").WithDetails(map[string]any{"status": part})
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
