package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rashidalbanna/mandoob-backend/api/controllers"
	"github.com/rashidalbanna/mandoob-backend/api/middleware"
	"github.com/rashidalbanna/mandoob-backend/internal/assignments"
	"github.com/rashidalbanna/mandoob-backend/internal/cart"
	"github.com/rashidalbanna/mandoob-backend/internal/cashledger"
	checkoutsvc "github.com/rashidalbanna/mandoob-backend/internal/checkout"
	"github.com/rashidalbanna/mandoob-backend/internal/orders"
	"github.com/rashidalbanna/mandoob-backend/pkg/config"
	"github.com/rashidalbanna/mandoob-backend/pkg/db"
	"github.com/rashidalbanna/mandoob-backend/pkg/enums"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
	"github.com/rashidalbanna/mandoob-backend/pkg/metrics"
	"github.com/rashidalbanna/mandoob-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	assignmentsService assignments.Service,
	cashService cashledger.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutLimit,
	)
	mutationPolicy := middleware.NewRateLimitPolicy(
		"mutation",
		cfg.RateLimit.MutationWindow,
		cfg.RateLimit.MutationLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(mutationPolicy, redisClient, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.RoleCustomer)))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
				r.Post("/address", controllers.CartSelectAddress(cartService, logg))
				r.Post("/payment-method", controllers.CartSelectPaymentMethod(cartService, logg))
			})

			r.With(middleware.RateLimit(checkoutPolicy, redisClient, logg)).
				Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(ordersService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
				r.Get("/{orderId}/timeline", controllers.OrderTimeline(ordersService, logg))
			})
		})

		r.Route("/driver", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.RoleDriver)))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.DriverOrderList(assignmentsService, logg))
				r.Post("/{orderId}/claim", controllers.DriverClaimOrder(assignmentsService, logg))
				r.Post("/{orderId}/accept", controllers.DriverAcceptOrder(assignmentsService, logg))
				r.Post("/{orderId}/reject", controllers.DriverRejectOrder(assignmentsService, logg))
				r.Post("/{orderId}/status", controllers.DriverAdvanceOrder(assignmentsService, logg))
				r.Get("/{orderId}/timeline", controllers.OrderTimeline(ordersService, logg))
			})

			r.Route("/cash", func(r chi.Router) {
				r.Get("/summary", controllers.DriverCashSummary(cashService, logg))
				r.Post("/collect", controllers.DriverCashCollect(cashService, logg))
				r.Post("/remit", controllers.DriverCashRemit(cashService, logg))
			})
		})

		r.Route("/owner", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.RoleShopOwner)))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OwnerOrderList(ordersService, logg))
				r.Post("/{orderId}/status", controllers.OwnerOrderTransition(ordersService, logg))
				r.Get("/{orderId}/timeline", controllers.OrderTimeline(ordersService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.RoleAdmin)))

			r.Post("/orders/{orderId}/assign", controllers.AdminAssignOrder(assignmentsService, logg))
			r.Route("/drivers/{driverId}/cash", func(r chi.Router) {
				r.Get("/summary", controllers.AdminDriverCashSummary(cashService, logg))
				r.Post("/adjust", controllers.AdminDriverCashAdjust(cashService, logg))
			})
		})
	})

	return r
}
