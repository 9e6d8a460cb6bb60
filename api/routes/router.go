package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jrivera-dev/platefleet-backend/api/controllers"
	"github.com/jrivera-dev/platefleet-backend/api/middleware"
	"github.com/jrivera-dev/platefleet-backend/internal/broadcast"
	checkoutsvc "github.com/jrivera-dev/platefleet-backend/internal/checkout"
	"github.com/jrivera-dev/platefleet-backend/internal/dispatch"
	"github.com/jrivera-dev/platefleet-backend/internal/orders"
	"github.com/jrivera-dev/platefleet-backend/pkg/config"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
	"github.com/jrivera-dev/platefleet-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	dispatchService dispatch.Service,
	hub *broadcast.Hub,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger controllers.Pinger
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		redisPinger = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/events", controllers.OrderEvents(hub, cfg.Broadcast.HeartbeatInterval, logg))

		r.With(middleware.RequireRole(string(enums.ActorRoleCustomer), logg)).
			Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.ActorRoleCustomer), logg)).
				Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
			r.Post("/{orderId}/status", controllers.TransitionOrder(ordersService, logg))
		})

		r.Route("/restaurant/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleOwner), logg))
			r.Get("/", controllers.ListRestaurantOrders(ordersService, logg))
		})

		r.Route("/agent/orders", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, string(enums.ActorRoleAgent), string(enums.ActorRoleAdmin)))
			r.Get("/", controllers.AgentDeliveries(dispatchService, logg))
			r.Get("/queue", controllers.AgentOrderQueue(dispatchService, logg))
			r.Post("/{orderId}/claim", controllers.AgentClaimOrder(dispatchService, logg))
			r.Post("/{orderId}/deliver", controllers.AgentDeliverOrder(dispatchService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/orders/{orderId}/status", controllers.AdminTransitionOrder(ordersService, logg))
	})

	return r
}
