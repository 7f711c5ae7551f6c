package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stitchlane/stitchlane-backend/api/controllers"
	ordercontrollers "github.com/stitchlane/stitchlane-backend/api/controllers/orders"
	paymentcontrollers "github.com/stitchlane/stitchlane-backend/api/controllers/payments"
	trackingcontrollers "github.com/stitchlane/stitchlane-backend/api/controllers/tracking"
	webhookcontrollers "github.com/stitchlane/stitchlane-backend/api/controllers/webhooks"
	"github.com/stitchlane/stitchlane-backend/api/middleware"
	"github.com/stitchlane/stitchlane-backend/internal/orders"
	"github.com/stitchlane/stitchlane-backend/internal/payments"
	"github.com/stitchlane/stitchlane-backend/internal/tracking"
	stripewebhook "github.com/stitchlane/stitchlane-backend/internal/webhooks/stripe"
	"github.com/stitchlane/stitchlane-backend/pkg/config"
	"github.com/stitchlane/stitchlane-backend/pkg/db"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	"github.com/stitchlane/stitchlane-backend/pkg/logger"
	"github.com/stitchlane/stitchlane-backend/pkg/redis"
	"github.com/stitchlane/stitchlane-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	ordersSvc orders.Service,
	paymentsSvc payments.Service,
	trackingSvc tracking.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	staff := []string{enums.MemberRoleManager.String(), enums.MemberRoleAdmin.String()}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	// Stripe authenticates webhook deliveries by signature, not bearer token.
	r.Post("/api/v1/payments/webhook", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersSvc, logg))
			r.Get("/mine", ordercontrollers.Mine(ordersSvc, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.Put("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, staff...))
				r.Get("/pending", ordercontrollers.Pending(ordersSvc, logg))
				r.Get("/approved", ordercontrollers.Approved(ordersSvc, logg))
				r.Put("/{orderId}/approve", ordercontrollers.Approve(ordersSvc, logg))
				r.Put("/{orderId}/reject", ordercontrollers.Reject(ordersSvc, logg))
				r.Put("/{orderId}/status", ordercontrollers.SetStatus(ordersSvc, logg))
			})

			r.With(middleware.RequireAnyRole(logg, enums.MemberRoleAdmin.String())).
				Get("/", ordercontrollers.List(ordersSvc, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/create-payment-intent", paymentcontrollers.CreateIntent(paymentsSvc, logg))
			r.Post("/confirm", paymentcontrollers.Confirm(paymentsSvc, logg))
		})

		r.Route("/tracking", func(r chi.Router) {
			r.Get("/order/{orderId}", trackingcontrollers.ListByOrder(trackingSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, staff...))
				r.Post("/", trackingcontrollers.Add(trackingSvc, logg))
				r.Put("/{trackingId}", trackingcontrollers.Update(trackingSvc, logg))
				r.Delete("/{trackingId}", trackingcontrollers.Delete(trackingSvc, logg))
			})
		})
	})

	return r
}
