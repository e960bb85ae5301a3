// Package notificationread marks a single notification of the calling
// user as read.
package notificationread

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/middlewarectx"
	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	MarkRead(ctx context.Context, userUID string, notificationID int64) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Mark a notification as read
// @Description Marks the notification as read. Another user's notification answers 404.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification id"
// @Success 200 {object} response.Response "Marked as read"
// @Failure 404 {object} response.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.notificationread"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid notification id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid notification id"))
		return
	}
	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.MarkRead(r.Context(), userUID, notificationID); err != nil {
		log.Error("failed to mark notification read", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not mark notification read"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"read": true,
	}))
}
