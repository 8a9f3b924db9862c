package handler

import (
	"context"
	"net/http"
	"strings"

	"pdf-extract-viewer/internal/domain"
)

// TokenValidator validates a bearer token and resolves the user behind it.
type TokenValidator interface {
	ValidateToken(token string) (*domain.SupabaseUser, error)
}

// AuthMiddleware validates Supabase JWT tokens
type AuthMiddleware struct {
	validator TokenValidator
	logger    domain.Logger
}

func NewAuthMiddleware(validator TokenValidator, logger domain.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Middleware authenticates the request and stashes user and token in the
// request context.
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		token := parts[1]
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Token required")
			return
		}

		user, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Error("Token validation failed", err)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
