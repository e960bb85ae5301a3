// Package requestlist returns the caller's budget requests: filed ones
// for a client, received ones for a provider.
package requestlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/middlewarectx"
	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListMine(ctx context.Context, userUID string) ([]*models.BudgetRequest, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List my budget requests
// @Description Returns the caller's requests, newest first.
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "Requests"
// @Router /requests [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.requestlist"
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

	requests, err := h.service.ListMine(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list budget requests", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not list budget requests"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"requests": requests,
	}))
}
