// Package onboardcomplete handles the onboarding return URL: the one-shot
// token is consumed and the connected account is linked to the provider.
package onboardcomplete

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	CompleteOnboarding(ctx context.Context, token string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Finish payment-account onboarding
// @Description Consumes the return token and links the connected account to the provider.
// @Tags Payments
// @Produce json
// @Param token query string true "Onboarding token"
// @Success 200 {object} response.Response "Account linked"
// @Failure 400 {object} response.ErrorResponse "Missing token"
// @Failure 422 {object} response.ErrorResponse "Token expired or already used"
// @Router /payments/onboard/complete [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.onboardcomplete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if token == "" {
		log.Error("onboarding token missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is required"))
		return
	}

	if err := h.service.CompleteOnboarding(r.Context(), token); err != nil {
		log.Error("failed to complete onboarding", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not complete onboarding"))
		return
	}

	log.Info("onboarding completed")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"linked": true,
	}))
}
