// Package requestget returns one budget request to its client or its
// provider.
package requestget

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
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
	Get(ctx context.Context, userUID string, requestID int64) (*models.BudgetRequest, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Budget request detail
// @Description Returns one request; only its client and its provider may see it.
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request id"
// @Success 200 {object} response.Response "Request"
// @Failure 403 {object} response.ErrorResponse "Not a party to this request"
// @Failure 404 {object} response.ErrorResponse "Request not found"
// @Router /requests/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.requestget"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requestID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid request id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request id"))
		return
	}
	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	req, err := h.service.Get(r.Context(), userUID, requestID)
	if err != nil {
		log.Error("failed to load budget request", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not load budget request"))
		return
	}

	render.JSON(w, r, response.OKWithData(req))
}
