// Package paymentsuccess handles the checkout return URL. The session is
// re-read from the payment provider; a replayed callback answers with the
// contract already on file instead of recording a second one.
package paymentsuccess

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	CompletePayment(ctx context.Context, sessionID string) (*models.Contract, bool, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Checkout success callback
// @Description Records the contract for a paid checkout session. Safe to call more than once per session.
// @Tags Payments
// @Produce json
// @Param session_id query string true "Checkout session id"
// @Success 200 {object} map[string]any "Contract recorded or already on file"
// @Failure 400 {object} response.ErrorResponse "Missing session id"
// @Failure 404 {object} response.ErrorResponse "Session or its request cannot be resolved"
// @Failure 422 {object} response.ErrorResponse "Session not paid"
// @Router /payments/success [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentsuccess"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		log.Error("session id missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("session_id is required"))
		return
	}

	contract, alreadyProcessed, err := h.service.CompletePayment(r.Context(), sessionID)
	if err != nil {
		log.Error("failed to complete payment", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not complete payment"))
		return
	}

	log.Info("payment completed",
		slog.Int64("contract_id", contract.ID),
		slog.Bool("already_processed", alreadyProcessed))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"contract_id":       contract.ID,
		"already_processed": alreadyProcessed,
	}))
}
