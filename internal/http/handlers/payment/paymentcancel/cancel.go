// Package paymentcancel handles the checkout cancel return URL. Nothing
// is recorded; the quote stays accepted and can be paid later.
package paymentcancel

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/response"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Checkout cancel callback
// @Description Acknowledges an abandoned checkout. The request keeps its accepted quote.
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Response "Checkout cancelled"
// @Router /payments/cancel [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentcancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	log.Info("checkout cancelled by user")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"cancelled": true,
	}))
}
