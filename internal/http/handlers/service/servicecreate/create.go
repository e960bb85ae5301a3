// Package servicecreate implements publishing a new service with up to
// five images in one multipart request.
package servicecreate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

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
	Publish(ctx context.Context, userUID string, dto models.ServiceUpsert, images []models.ImageUpload) (int64, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// parseUpsertForm reads the multipart form fields and image files of a
// service payload.
func parseUpsertForm(r *http.Request) (models.ServiceUpsert, []models.ImageUpload, error) {
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

	var images []models.ImageUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				return dto, nil, err
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return dto, nil, err
			}
			images = append(images, models.ImageUpload{Filename: header.Filename, Data: data})
		}
	}
	return dto, images, nil
}

// ServeHTTP godoc
// @Summary Publish a service
// @Description Creates a service owned by the calling provider, with up to five validated images.
// @Tags Services
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Service created"
// @Failure 400 {object} response.ErrorResponse "Malformed form"
// @Failure 403 {object} response.ErrorResponse "Caller is not a provider"
// @Failure 422 {object} response.ErrorResponse "Validation or image check failed"
// @Router /services [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.servicecreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}
	dto, images, err := parseUpsertForm(r)
	if err != nil {
		log.Error("failed to read uploaded images", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not read uploaded images"))
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		log.Error("validation failed", sl.Err(err))
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

	id, err := h.service.Publish(r.Context(), userUID, dto, images)
	if err != nil {
		log.Error("failed to publish service", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not publish service"))
		return
	}

	log.Info("service published", slog.Int64("service_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"service_id": id,
	}))
}
