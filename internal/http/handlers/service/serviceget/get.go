// Package serviceget implements the cached service detail view.
package serviceget

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
	"github.com/decorent/decorent/internal/services/catalog"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Get(ctx context.Context, serviceID int64) (*catalog.ServiceDetail, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Service detail
// @Description Returns one service with its images and the maps query for its address.
// @Tags Services
// @Produce json
// @Param id path int true "Service id"
// @Success 200 {object} response.Response "Service detail"
// @Failure 404 {object} response.ErrorResponse "Service not found"
// @Router /services/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.serviceget"
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

	detail, err := h.service.Get(r.Context(), serviceID)
	if err != nil {
		log.Error("failed to load service", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not load service"))
		return
	}

	render.JSON(w, r, response.OKWithData(detail))
}
