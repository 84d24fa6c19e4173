package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rashidalbanna/mandoob-backend/api/middleware"
	"github.com/rashidalbanna/mandoob-backend/api/responses"
	"github.com/rashidalbanna/mandoob-backend/api/validators"
	ordersvc "github.com/rashidalbanna/mandoob-backend/internal/orders"
	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	pkgerrors "github.com/rashidalbanna/mandoob-backend/pkg/errors"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
	"github.com/rashidalbanna/mandoob-backend/pkg/types"
)

// OrderList returns the customer's orders, newest first.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListForCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "orders fetched", newOrderListResponse(orders))
	}
}

// OrderDetail returns one of the customer's orders with its line items.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCustomer(r.Context(), orderID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "order fetched", newOrderResponse(order))
	}
}

// OrderTimeline returns the append-only status history of an order. Access
// is checked per actor role inside the service.
func OrderTimeline(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown actor role"))
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.Timeline(r.Context(), orderID, userID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "timeline fetched", newTimelineResponse(orderID, history))
	}
}

type orderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderCode          string              `json:"order_code"`
	StoreID            uuid.UUID           `json:"store_id"`
	CustomerID         uuid.UUID           `json:"customer_id"`
	Status             string              `json:"status"`
	PaymentMethod      string              `json:"payment_method"`
	ShippingAddress    string              `json:"shipping_address"`
	SubtotalCents      int                 `json:"subtotal_cents"`
	DiscountTotalCents int                 `json:"discount_total_cents"`
	TaxTotalCents      int                 `json:"tax_total_cents"`
	DeliveryFeeCents   int                 `json:"delivery_fee_cents"`
	GrandTotalCents    int                 `json:"grand_total_cents"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	DriverID           *uuid.UUID          `json:"driver_id,omitempty"`
	Items              []orderItemResponse `json:"items"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type orderItemResponse struct {
	ID             uuid.UUID             `json:"id"`
	ProductID      uuid.UUID             `json:"product_id"`
	VariantID      *uuid.UUID            `json:"variant_id,omitempty"`
	ProductName    string                `json:"product_name"`
	Options        types.OptionSelection `json:"options,omitempty"`
	Qty            int                   `json:"qty"`
	UnitPriceCents int                   `json:"unit_price_cents"`
	DiscountCents  int                   `json:"discount_cents"`
	LineTotalCents int                   `json:"line_total_cents"`
}

type timelineEntryResponse struct {
	FromStatus    *string   `json:"from_status,omitempty"`
	ToStatus      string    `json:"to_status"`
	ChangedByID   uuid.UUID `json:"changed_by_id"`
	ChangedByRole string    `json:"changed_by_role"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

type timelineResponse struct {
	OrderID uuid.UUID               `json:"order_id"`
	History []timelineEntryResponse `json:"history"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.ProductVariantID,
			ProductName:    item.ProductName,
			Options:        item.Options,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			DiscountCents:  item.DiscountCents,
			LineTotalCents: item.LineTotalCents,
		})
	}

	var driverID *uuid.UUID
	if order.Assignment != nil {
		id := order.Assignment.DriverID
		driverID = &id
	}

	return orderResponse{
		ID:                 order.ID,
		OrderCode:          order.OrderCode,
		StoreID:            order.StoreID,
		CustomerID:         order.CustomerID,
		Status:             string(order.Status),
		PaymentMethod:      string(order.PaymentMethod),
		ShippingAddress:    order.ShippingAddress,
		SubtotalCents:      order.SubtotalCents,
		DiscountTotalCents: order.DiscountTotalCents,
		TaxTotalCents:      order.TaxTotalCents,
		DeliveryFeeCents:   order.DeliveryFeeCents,
		GrandTotalCents:    order.GrandTotalCents,
		DeliveredAt:        order.DeliveredAt,
		CancelledAt:        order.CancelledAt,
		DriverID:           driverID,
		Items:              items,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

func newOrderListResponse(orders []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}

func newTimelineResponse(orderID uuid.UUID, history []models.OrderStatusHistory) timelineResponse {
	entries := make([]timelineEntryResponse, 0, len(history))
	for _, row := range history {
		var from *string
		if row.FromStatus != nil {
			value := string(*row.FromStatus)
			from = &value
		}
		entries = append(entries, timelineEntryResponse{
			FromStatus:    from,
			ToStatus:      string(row.ToStatus),
			ChangedByID:   row.ChangedByID,
			ChangedByRole: string(row.ChangedByRole),
			Reason:        row.Reason,
			CreatedAt:     row.CreatedAt,
		})
	}
	return timelineResponse{OrderID: orderID, History: entries}
}
