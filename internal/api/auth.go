// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package api

import (
	"context"
	"net/http"

	"inkpost/internal/models"
)

// Auth calls the backend's sign-in endpoints.
type Auth struct {
	c *Client
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges email and password for a session.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var sess models.Session
	if err := a.c.do(ctx, http.MethodPost, "/auth/token", "", credentials{email, password}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignUp registers an account and returns its first session.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	var sess models.Session
	if err := a.c.do(ctx, http.MethodPost, "/auth/signup", "", credentials{email, password}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignOut ends the session behind token.
func (a *Auth) SignOut(ctx context.Context, token string) error {
	return a.c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// CurrentUser resolves token to its user. A rejected token matches
// session.ErrUnauthenticated.
func (a *Auth) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/auth/user", token, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &Error{Status: http.StatusUnauthorized, Message: "User not authenticated"}
	}
	return out.User, nil
}
