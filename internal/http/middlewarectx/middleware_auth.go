// Package middlewarectx holds the HTTP middleware: JWT authentication,
// rate limiting and request metrics. The auth middleware verifies the
// bearer token in-process and puts the caller's identity into the request
// context for the handlers.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/decorent/decorent/internal/http/response"
	"github.com/decorent/decorent/internal/lib/jwt"
	"github.com/decorent/decorent/internal/lib/sl"
)

// Key is the context key type for request-scoped identity values.
type Key string

const (
	// UserUID is the stable user id from the token claims.
	UserUID Key = "user_uid"
	// Email is the login email from the token claims.
	Email Key = "email"
	// IsClient marks a caller with a client profile.
	IsClient Key = "is_client"
	// IsProvider marks a caller with a provider profile.
	IsProvider Key = "is_provider"
)

// JWTMiddleware verifies the Authorization bearer token and stores the
// caller's identity in the request context. Invalid or missing tokens end
// the request with 401.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Email, claims.Email)
			ctx = context.WithValue(ctx, IsClient, claims.IsClient)
			ctx = context.WithValue(ctx, IsProvider, claims.IsProvider)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
