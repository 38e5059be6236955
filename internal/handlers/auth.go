// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"inkpost/internal/identity"
	"inkpost/internal/middleware"
	"inkpost/internal/models"
	"inkpost/internal/validate"
)

// Identity is the sign-in service behind the auth endpoints.
type Identity interface {
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	identity Identity
}

// NewAuth creates a new Auth handler group.
func NewAuth(id Identity) *Auth {
	return &Auth{identity: id}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers an account and returns its first session.
func (a *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Credentials(in.Email, in.Password); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess, err := a.identity.SignUp(r.Context(), in.Email, in.Password)
	if errors.Is(err, identity.ErrEmailTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("sign up failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slog.Info("user registered", "user_id", sess.User.ID)
	writeJSON(w, http.StatusCreated, sess)
}

// Token signs in with email and password.
func (a *Auth) Token(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Login(in.Email, in.Password); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess, err := a.identity.SignIn(r.Context(), in.Email, in.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		slog.Error("sign in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Logout ends the session the request was made with.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.identity.SignOut(r.Context(), middleware.TokenFromCtx(r.Context())); err != nil {
		slog.Error("sign out failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// User returns the signed-in user.
func (a *Auth) User(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": middleware.UserFromCtx(r.Context())})
}
