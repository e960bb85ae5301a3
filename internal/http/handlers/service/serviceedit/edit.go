// Package serviceedit implements editing a published service. A non-empty
// image batch replaces the stored image set entirely.
package serviceedit

import (
	"context"
	"io"
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

const maxUploadBytes = 32 << 20

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Edit(ctx context.Context, userUID string, serviceID int64, dto models.ServiceUpsert, images []models.ImageUpload) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Edit a service
// @Description Updates a service the caller owns. Sending images replaces the whole image set.
// @Tags Services
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Service id"
// @Success 200 {object} response.Response "Service updated"
// @Failure 400 {object} response.ErrorResponse "Malformed form"
// @Failure 403 {object} response.ErrorResponse "Not the owner"
// @Failure 404 {object} response.ErrorResponse "Service not found"
// @Failure 422 {object} response.ErrorResponse "Validation or image check failed"
// @Router /services/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.serviceedit"
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
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	minPrice, _ := strconv.ParseFloat(r.FormValue("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(r.FormValue("max_price"), 64)
	dto := models.ServiceUpsert{
		Name:           r.FormValue("name"),
		Category:       r.FormValue("category"),
		Street:         r.FormValue("street"),
		ExteriorNumber: r.FormValue("exterior_number"),
		InteriorNumber: r.FormValue("interior_number"),
		Neighborhood:   r.FormValue("neighborhood"),
		PostalCode:     r.FormValue("postal_code"),
		City:           r.FormValue("city"),
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
		Description:    r.FormValue("description"),
	}
	if err := h.validate.Struct(dto); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	var images []models.ImageUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				log.Error("failed to read uploaded images", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error("could not read uploaded images"))
				return
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				log.Error("failed to read uploaded images", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error("could not read uploaded images"))
				return
			}
			images = append(images, models.ImageUpload{Filename: header.Filename, Data: data})
		}
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Edit(r.Context(), userUID, serviceID, dto, images); err != nil {
		log.Error("failed to edit service", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not edit service"))
		return
	}

	log.Info("service updated", slog.Int64("service_id", serviceID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"service_id": serviceID,
	}))
}
