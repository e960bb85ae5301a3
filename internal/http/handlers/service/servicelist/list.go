// Package servicelist implements the public catalog listing with an
// optional category filter.
package servicelist

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
	List(ctx context.Context, category string) ([]*models.Service, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List services
// @Description Returns the catalog, optionally filtered by category.
// @Tags Services
// @Produce json
// @Param category query string false "Category filter"
// @Success 200 {object} response.Response "Services"
// @Router /services [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.servicelist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	category := r.URL.Query().Get("category")
	services, err := h.service.List(r.Context(), category)
	if err != nil {
		log.Error("failed to list services", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not list services"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"services": services,
	}))
}
