package decorent

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/decorent/decorent/internal/config"
	"github.com/decorent/decorent/internal/http/handlers/auth/login"
	"github.com/decorent/decorent/internal/http/handlers/auth/registerclient"
	"github.com/decorent/decorent/internal/http/handlers/auth/registerprovider"
	"github.com/decorent/decorent/internal/http/handlers/auth/verifyidentity"
	"github.com/decorent/decorent/internal/http/handlers/notification/notificationlist"
	"github.com/decorent/decorent/internal/http/handlers/notification/notificationread"
	"github.com/decorent/decorent/internal/http/handlers/payment/checkoutcreate"
	"github.com/decorent/decorent/internal/http/handlers/payment/dashboardlink"
	"github.com/decorent/decorent/internal/http/handlers/payment/onboardbegin"
	"github.com/decorent/decorent/internal/http/handlers/payment/onboardcomplete"
	"github.com/decorent/decorent/internal/http/handlers/payment/paymentcancel"
	"github.com/decorent/decorent/internal/http/handlers/payment/paymentsuccess"
	"github.com/decorent/decorent/internal/http/handlers/request/requestcreate"
	"github.com/decorent/decorent/internal/http/handlers/request/requestget"
	"github.com/decorent/decorent/internal/http/handlers/request/requestlist"
	"github.com/decorent/decorent/internal/http/handlers/request/requestreject"
	"github.com/decorent/decorent/internal/http/handlers/request/requestrejectresponse"
	"github.com/decorent/decorent/internal/http/handlers/request/requestrespond"
	"github.com/decorent/decorent/internal/http/handlers/review/reviewcreate"
	"github.com/decorent/decorent/internal/http/handlers/review/reviewlist"
	"github.com/decorent/decorent/internal/http/handlers/service/categorylist"
	"github.com/decorent/decorent/internal/http/handlers/service/servicecreate"
	"github.com/decorent/decorent/internal/http/handlers/service/servicedelete"
	"github.com/decorent/decorent/internal/http/handlers/service/serviceedit"
	"github.com/decorent/decorent/internal/http/handlers/service/serviceget"
	"github.com/decorent/decorent/internal/http/handlers/service/servicelist"
	"github.com/decorent/decorent/internal/http/middlewarectx"
	"github.com/decorent/decorent/internal/lib/jwt"
	authservice "github.com/decorent/decorent/internal/services/auth"
	catalogservice "github.com/decorent/decorent/internal/services/catalog"
	notificationservice "github.com/decorent/decorent/internal/services/notification"
	paymentservice "github.com/decorent/decorent/internal/services/payment"
	requestservice "github.com/decorent/decorent/internal/services/request"
	reviewservice "github.com/decorent/decorent/internal/services/review"
)

// Services groups the business-logic layer handed to the router.
type Services struct {
	Auth         *authservice.Service
	Catalog      *catalogservice.Service
	Request      *requestservice.Service
	Payment      *paymentservice.Service
	Notification *notificationservice.Service
	Review       *reviewservice.Service
}

// RegisterRoutes registers all application routes.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, maker jwt.Maker, s *Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(rate.Limit(cfg.RateLimit), cfg.RateBurst, logger))

		// Open endpoints: registration, login, catalog browsing and the
		// redirect targets the payment provider calls back on.
		r.Post("/auth/register/client", registerclient.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/register/provider", registerprovider.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/verify-identity", verifyidentity.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)

		r.Get("/services", servicelist.New(logger, s.Catalog).ServeHTTP)
		r.Get("/services/{id}", serviceget.New(logger, s.Catalog).ServeHTTP)
		r.Get("/services/{id}/reviews", reviewlist.New(logger, s.Review).ServeHTTP)
		r.Get("/categories", categorylist.New(logger, s.Catalog).ServeHTTP)

		r.Get("/payments/success", paymentsuccess.New(logger, s.Payment).ServeHTTP)
		r.Get("/payments/cancel", paymentcancel.New(logger).ServeHTTP)
		r.Get("/payments/onboard/complete", onboardcomplete.New(logger, s.Payment).ServeHTTP)

		// Everything below needs a session token.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))

			r.Post("/services", servicecreate.New(logger, s.Catalog).ServeHTTP)
			r.Put("/services/{id}", serviceedit.New(logger, s.Catalog).ServeHTTP)
			r.Delete("/services/{id}", servicedelete.New(logger, s.Catalog).ServeHTTP)

			r.Post("/services/{id}/requests", requestcreate.New(logger, s.Request).ServeHTTP)
			r.Get("/requests", requestlist.New(logger, s.Request).ServeHTTP)
			r.Get("/requests/{id}", requestget.New(logger, s.Request).ServeHTTP)
			r.Post("/requests/{id}/respond", requestrespond.New(logger, s.Request).ServeHTTP)
			r.Post("/requests/{id}/reject", requestreject.New(logger, s.Request).ServeHTTP)
			r.Post("/requests/{id}/reject-response", requestrejectresponse.New(logger, s.Request).ServeHTTP)

			r.Post("/requests/{id}/checkout", checkoutcreate.New(logger, s.Payment).ServeHTTP)
			r.Post("/payments/onboard", onboardbegin.New(logger, s.Payment).ServeHTTP)
			r.Get("/payments/dashboard", dashboardlink.New(logger, s.Payment).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, s.Notification).ServeHTTP)
			r.Post("/notifications/{id}/read", notificationread.New(logger, s.Notification).ServeHTTP)

			r.Post("/services/{id}/reviews", reviewcreate.New(logger, s.Review).ServeHTTP)
		})
	})

	// Uploaded service and identity images.
	mediaDir, _ := filepath.Abs(cfg.MediaDir)
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
