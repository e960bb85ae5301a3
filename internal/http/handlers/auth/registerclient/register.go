// Package registerclient implements the client sign-up endpoint. A client
// account is created directly, without the identity gate providers go
// through.
package registerclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

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
	RegisterClient(ctx context.Context, req models.RegisterClientRequest) (*models.User, string, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Register a client account
// @Description Creates a client account and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterClientRequest true "Client sign-up data"
// @Success 200 {object} map[string]any "Account created"
// @Failure 400 {object} response.ErrorResponse "Malformed JSON"
// @Failure 409 {object} response.ErrorResponse "Email already registered"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Router /auth/register/client [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.registerclient"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.RegisterClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, token, err := h.service.RegisterClient(r.Context(), req)
	if err != nil {
		log.Error("failed to register client", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not register client"))
		return
	}

	log.Info("client registered", slog.String("email", user.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":     token,
		"uid":       user.UID,
		"full_name": user.FullName,
	}))
}
