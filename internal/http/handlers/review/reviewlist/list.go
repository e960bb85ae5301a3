// Package reviewlist returns a service's reviews, newest first.
package reviewlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
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
	List(ctx context.Context, serviceID int64) ([]*models.Review, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List reviews of a service
// @Description Returns the service's reviews, newest first. Open to unauthenticated callers.
// @Tags Reviews
// @Produce json
// @Param id path int true "Service id"
// @Success 200 {object} response.Response{data=[]models.Review} "Reviews"
// @Failure 400 {object} response.ErrorResponse "Invalid service id"
// @Router /services/{id}/reviews [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.reviewlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	serviceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid service id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid service id"))
		return
	}

	reviews, err := h.service.List(r.Context(), serviceID)
	if err != nil {
		log.Error("failed to list reviews", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not list reviews"))
		return
	}

	render.JSON(w, r, response.OKWithData(reviews))
}
