package api

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is a private type to avoid context key collisions.
type contextKey string

const userContextKey = contextKey("user")

// AuthMiddleware validates the session JWT and loads the calling user into
// the request context. Share-link endpoints do not go through here: bearer
// tokens carry no identity and are resolved by the evaluator instead.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.respondWithError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			h.respondWithError(w, http.StatusUnauthorized, "malformed authorization header")
			return
		}
		tokenString := parts[1]

		token, err := h.tokenService.ValidateToken(tokenString)
		if err != nil {
			h.respondWithError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, err := h.tokenService.GetUserIDFromToken(token)
		if err != nil {
			h.respondWithError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		// The account behind the token must still exist.
		user, err := h.users.GetByID(r.Context(), userID)
		if err != nil {
			h.respondWithError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
