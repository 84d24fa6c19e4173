package controllers

import (
	"net/http"

	"github.com/rashidalbanna/mandoob-backend/api/responses"
	checkoutsvc "github.com/rashidalbanna/mandoob-backend/internal/checkout"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
)

// Checkout converts the customer's active cart into a placed order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithOrderID(r.Context(), result.OrderID.String())
			logg.Info(ctx, "checkout.placed")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "order placed", result)
	}
}
