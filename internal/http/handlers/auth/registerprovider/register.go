// Package registerprovider implements the first half of provider sign-up:
// the form fields and the ID photo are parked under a verification token,
// and no account exists until the identity check passes.
package registerprovider

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	BeginProviderRegistration(ctx context.Context, req models.RegisterProviderRequest, idPhoto models.ImageUpload) (string, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Start provider registration
// @Description Takes the sign-up form plus an ID photo and returns a verification token. The account is created only after identity verification.
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param full_name formData string true "Full name"
// @Param email formData string true "Login email"
// @Param password formData string true "Password"
// @Param company_name formData string true "Company name"
// @Param bank_clabe formData string true "18-digit CLABE"
// @Param id_photo formData file true "Photo of the ID document"
// @Success 200 {object} map[string]any "Verification token issued"
// @Failure 400 {object} response.ErrorResponse "Malformed form or missing photo"
// @Failure 409 {object} response.ErrorResponse "Email already registered"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Router /auth/register/provider [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.registerprovider"
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

	req := models.RegisterProviderRequest{
		FullName:    r.FormValue("full_name"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		CompanyName: r.FormValue("company_name"),
		BankCLABE:   r.FormValue("bank_clabe"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	file, header, err := r.FormFile("id_photo")
	if err != nil {
		log.Error("id photo missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("id_photo file is required"))
		return
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read id photo", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not read id_photo"))
		return
	}

	token, err := h.service.BeginProviderRegistration(r.Context(), req,
		models.ImageUpload{Filename: header.Filename, Data: data})
	if err != nil {
		log.Error("failed to start provider registration", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not start registration"))
		return
	}

	log.Info("provider registration started", slog.String("email", req.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"verification_token": token,
	}))
}
