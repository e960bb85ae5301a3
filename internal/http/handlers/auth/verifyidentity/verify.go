// Package verifyidentity implements the second half of provider sign-up:
// the live capture is compared against the parked ID photo, and a match
// creates the account and logs it in.
package verifyidentity

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	VerifyIdentity(ctx context.Context, token string, livePhoto []byte) (*models.User, string, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Verify provider identity
// @Description Compares a live capture against the parked ID photo. A match creates the provider account and returns a session token; a mismatch or an expired token discards the registration.
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param token formData string true "Verification token from registration"
// @Param live_photo formData file true "Live camera capture"
// @Success 200 {object} map[string]any "Account created"
// @Failure 400 {object} response.ErrorResponse "Malformed form or missing photo"
// @Failure 422 {object} response.ErrorResponse "Verification failed or token expired"
// @Router /auth/verify-identity [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyidentity"
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

	token := r.FormValue("token")
	if token == "" {
		log.Error("verification token missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is required"))
		return
	}
	file, _, err := r.FormFile("live_photo")
	if err != nil {
		log.Error("live photo missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("live_photo file is required"))
		return
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read live photo", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not read live_photo"))
		return
	}

	user, sessionToken, err := h.service.VerifyIdentity(r.Context(), token, data)
	if err != nil {
		log.Error("identity verification failed", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("identity verification failed"))
		return
	}

	log.Info("provider verified and registered", slog.String("email", user.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":     sessionToken,
		"uid":       user.UID,
		"full_name": user.FullName,
	}))
}
