// Package notificationlist returns the calling user's notifications,
// unread first.
package notificationlist

import (
	"context"
	"log/slog"
	"net/http"

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
	List(ctx context.Context, userUID string) ([]*models.Notification, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List notifications
// @Description Returns the calling user's notifications, unread first, read ones included.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Notification} "Notifications"
// @Failure 401 {object} response.ErrorResponse "Missing or invalid token"
// @Router /notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.notificationlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	notifications, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list notifications", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not list notifications"))
		return
	}

	render.JSON(w, r, response.OKWithData(notifications))
}
