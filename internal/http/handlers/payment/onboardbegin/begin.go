// Package onboardbegin starts payment-account onboarding for the calling
// provider and returns the hosted onboarding URL.
package onboardbegin

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
	BeginOnboarding(ctx context.Context, userUID string) (string, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Start payment-account onboarding
// @Description Creates a connected account for the calling provider and returns the onboarding URL.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Onboarding URL"
// @Failure 403 {object} response.ErrorResponse "Caller is not a provider"
// @Router /payments/onboard [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.onboardbegin"
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

	url, err := h.service.BeginOnboarding(r.Context(), userUID)
	if err != nil {
		log.Error("failed to start onboarding", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not start onboarding"))
		return
	}

	log.Info("onboarding started")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"onboarding_url": url,
	}))
}
