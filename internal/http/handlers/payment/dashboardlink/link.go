// Package dashboardlink returns a one-time login URL into the calling
// provider's express payment dashboard.
package dashboardlink

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/middlewarectx"
	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	DashboardLink(ctx context.Context, userUID string) (string, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Payment dashboard login
// @Description Returns a one-time express-dashboard login URL for an onboarded provider.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Dashboard URL"
// @Failure 403 {object} response.ErrorResponse "Caller is not a provider"
// @Failure 409 {object} response.ErrorResponse "Provider has no payment account"
// @Router /payments/dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.dashboardlink"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	url, err := h.service.DashboardLink(r.Context(), userUID)
	if err != nil {
		log.Error("failed to create dashboard link", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not create dashboard link"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"dashboard_url": url,
	}))
}
