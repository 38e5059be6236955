// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"inkpost/internal/identity"
	"inkpost/internal/models"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// UserKey is the context key for the authenticated user.
	UserKey contextKey = "user"

	// TokenKey is the context key for the bearer token the user came with.
	TokenKey contextKey = "token"
)

// Resolver turns a bearer token into the user it belongs to.
type Resolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// LoadIdentity resolves the bearer token, if any, and stores the user in
// the request context. Downstream handlers can access it via UserFromCtx().
// This middleware does NOT enforce authentication. A missing or rejected
// token leaves the request anonymous; only a resolver failure is an error.
func LoadIdentity(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), token)
			if errors.Is(err, identity.ErrUnauthenticated) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("resolve identity failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
// Must be applied after LoadIdentity in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromCtx extracts the authenticated user from the request context.
// Returns nil if the request is anonymous.
func UserFromCtx(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// TokenFromCtx returns the bearer token of an authenticated request.
func TokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
