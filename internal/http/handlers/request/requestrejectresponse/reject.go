// Package requestrejectresponse implements the client turning down an
// accepted quote. The request moves to rejected and the price is cleared.
package requestrejectresponse

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
	RejectResponse(ctx context.Context, userUID string, requestID int64) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Turn down a quote
// @Description Rejects the accepted quote on the calling client's request.
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request id"
// @Success 200 {object} response.Response "Quote rejected"
// @Failure 403 {object} response.ErrorResponse "Not this client's request"
// @Failure 404 {object} response.ErrorResponse "Request not found"
// @Failure 409 {object} response.ErrorResponse "No quote to reject"
// @Router /requests/{id}/reject-response [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.requestrejectresponse"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requestID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid request id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request id"))
		return
	}
	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.RejectResponse(r.Context(), userUID, requestID); err != nil {
		log.Error("failed to reject quote", sl.Err(err))
		w.WriteHeader(response.StatusFromError(err))
		render.JSON(w, r, response.Error("could not reject quote"))
		return
	}

	log.Info("quote rejected", slog.Int64("request_id", requestID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"request_id": requestID,
	}))
}
