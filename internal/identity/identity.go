// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package identity is the backend's sign-in service. It issues signed
// access tokens whose session ID is backed by a record in Valkey, so a
// token stops working on sign-out or when the record expires.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"inkpost/internal/models"
	"inkpost/internal/store"
)

const (
	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 7 * 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

var (
	// ErrUnauthenticated is returned for a missing, malformed, expired or
	// signed-out token.
	ErrUnauthenticated = errors.New("Invalid or expired session")

	// ErrInvalidCredentials is returned when the email or password is wrong.
	ErrInvalidCredentials = errors.New("Invalid login credentials")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("User already registered")
)

// Users is the account storage the provider needs.
type Users interface {
	Create(ctx context.Context, email, password string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// Record is the session payload stored in Valkey.
type Record struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider manages accounts and sessions.
type Provider struct {
	users  Users
	client *redis.Client
	tokens *TokenManager
	ttl    time.Duration
}

// NewProvider creates a provider backed by the given user storage and
// Valkey client. Tokens are signed with secret and live for ttl.
func NewProvider(users Users, client *redis.Client, secret string, ttl time.Duration) *Provider {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Provider{
		users:  users,
		client: client,
		tokens: NewTokenManager(secret, ttl),
		ttl:    ttl,
	}
}

// SignUp registers a new account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := p.users.Create(ctx, email, password)
	if errors.Is(err, store.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return p.open(ctx, user)
}

// SignIn checks the credentials and opens a new session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if user == nil || !p.users.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	return p.open(ctx, user)
}

// SignOut removes the session behind the token. Signing out an unknown or
// expired token is not an error.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := p.client.Del(ctx, keyPrefix+claims.ID).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// CurrentUser resolves a token to its user. Returns ErrUnauthenticated when
// the token is invalid, its session is gone, or the user no longer exists.
func (p *Provider) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	payload, err := p.client.Get(ctx, keyPrefix+claims.ID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	userID, _ := claims.UserID()
	if rec.UserID != userID {
		return nil, ErrUnauthenticated
	}

	user, err := p.users.FindByID(ctx, rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("session user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// open stores a session record and issues its token.
func (p *Provider) open(ctx context.Context, user *models.User) (*models.Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}

	payload, err := json.Marshal(Record{UserID: user.ID, Email: user.Email, CreatedAt: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("session marshal: %w", err)
	}

	if err := p.client.Set(ctx, keyPrefix+id, payload, p.ttl).Err(); err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	token, expires, err := p.tokens.Issue(user.ID, user.Email, id)
	if err != nil {
		return nil, err
	}

	return &models.Session{Token: token, ExpiresAt: expires, User: *user}, nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
