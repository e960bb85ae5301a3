// Package reviewcreate stores a star rating for a service and returns
// the recomputed average.
package reviewcreate

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/decorent/decorent/internal/http/middlewarectx"
	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Create(ctx context.Context, userUID string, serviceID int64, dto models.CreateReviewDTO) (float64, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Review a service
// @Description Stores a 1 to 5 star review. One review per user per service; a second answers 409.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Service id"
// @Param input body models.CreateReviewDTO true "Stars and optional comment"
// @Success 200 {object} map[string]any "New average rating"
// @Failure 404 {object} response.ErrorResponse "Service not found"
// @Failure 409 {object} response.ErrorResponse "Already reviewed"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Router /services/{id}/reviews [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.reviewcreate"
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

	var dto models.CreateReviewDTO
	if err := render.DecodeJSON(r.Body, &dto); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request body"))
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		log.Error("invalid review", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	average, err := h.service.Create(r.Context(), userUID, serviceID, dto)
	if err != nil {
		log.Error("failed to create review", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not create review"))
		return
	}

	log.Info("review created", slog.Int64("service_id", serviceID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"average_rating": average,
	}))
}
