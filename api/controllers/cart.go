package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/api/responses"
	"github.com/rashidalbanna/mandoob-backend/api/validators"
	cartsvc "github.com/rashidalbanna/mandoob-backend/internal/cart"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
	"github.com/rashidalbanna/mandoob-backend/pkg/types"
)

// CartFetch returns the customer's active cart, creating it on first touch.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetOrCreate(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "cart fetched", newCartResponse(cart))
	}
}

// CartAddItem adds a product (or variant) line to the active cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), customerID, cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			VariantID: payload.VariantID,
			Qty:       payload.Qty,
			Options:   payload.Options,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "item added", newCartResponse(cart))
	}
}

// CartUpdateItem changes the quantity of one cart line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateItemQty(r.Context(), customerID, itemID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "item updated", newCartResponse(cart))
	}
}

// CartRemoveItem deletes one line from the active cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), customerID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "item removed", newCartResponse(cart))
	}
}

// CartClear removes every line from the active cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Clear(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "cart cleared", newCartResponse(cart))
	}
}

// CartSelectAddress pins a saved address to the active cart for checkout.
func CartSelectAddress(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.SelectAddress(r.Context(), customerID, payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "address selected", newCartResponse(cart))
	}
}

// CartSelectPaymentMethod records the payment method for checkout.
func CartSelectPaymentMethod(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.SelectPaymentMethod(r.Context(), customerID, enums.PaymentMethod(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "payment method selected", newCartResponse(cart))
	}
}

type addCartItemRequest struct {
	ProductID uuid.UUID             `json:"product_id" validate:"required"`
	VariantID *uuid.UUID            `json:"variant_id"`
	Qty       int                   `json:"qty" validate:"required,min=1"`
	Options   types.OptionSelection `json:"options"`
}

type updateCartItemRequest struct {
	Qty int `json:"qty" validate:"required,min=1"`
}

type selectAddressRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

type selectPaymentMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

type cartResponse struct {
	ID                 uuid.UUID          `json:"id"`
	CustomerID         uuid.UUID          `json:"customer_id"`
	Status             string             `json:"status"`
	AddressID          *uuid.UUID         `json:"address_id,omitempty"`
	PaymentMethod      *string            `json:"payment_method,omitempty"`
	SubtotalCents      int                `json:"subtotal_cents"`
	DiscountTotalCents int                `json:"discount_total_cents"`
	TaxTotalCents      int                `json:"tax_total_cents"`
	DeliveryFeeCents   int                `json:"delivery_fee_cents"`
	GrandTotalCents    int                `json:"grand_total_cents"`
	Items              []cartItemResponse `json:"items"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ID             uuid.UUID             `json:"id"`
	ProductID      uuid.UUID             `json:"product_id"`
	VariantID      *uuid.UUID            `json:"variant_id,omitempty"`
	Qty            int                   `json:"qty"`
	UnitPriceCents int                   `json:"unit_price_cents"`
	DiscountCents  int                   `json:"discount_cents"`
	LineTotalCents int                   `json:"line_total_cents"`
	Options        types.OptionSelection `json:"options,omitempty"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.ProductVariantID,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			DiscountCents:  item.DiscountCents,
			LineTotalCents: item.LineTotalCents,
			Options:        item.Options,
		})
	}

	var method *string
	if cart.PaymentMethod != nil {
		value := string(*cart.PaymentMethod)
		method = &value
	}

	return cartResponse{
		ID:                 cart.ID,
		CustomerID:         cart.CustomerID,
		Status:             string(cart.Status),
		AddressID:          cart.AddressID,
		PaymentMethod:      method,
		SubtotalCents:      cart.SubtotalCents,
		DiscountTotalCents: cart.DiscountTotalCents,
		TaxTotalCents:      cart.TaxTotalCents,
		DeliveryFeeCents:   cart.DeliveryFeeCents,
		GrandTotalCents:    cart.GrandTotalCents,
		Items:              items,
		CreatedAt:          cart.CreatedAt,
		UpdatedAt:          cart.UpdatedAt,
	}
}
