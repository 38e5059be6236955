// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session holds the client's signed-in user. The token survives
// restarts through a Keeper, and every change is a Reduce transition
// broadcast to subscribers.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"inkpost/internal/models"
)

// ErrUnauthenticated is what a Provider returns for an unknown or
// expired token.
var ErrUnauthenticated = errors.New("User not authenticated")

// Provider is the remote identity service.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// Store is the session store. It is safe for concurrent use. Subscribers
// are called in transition order and must not call back into operations
// that change state.
type Store struct {
	provider Provider
	keeper   Keeper

	mu    sync.Mutex
	state State

	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int
}

// NewStore creates a signed-out store.
func NewStore(provider Provider, keeper Keeper) *Store {
	return &Store{
		provider: provider,
		keeper:   keeper,
		state:    State{Status: models.StatusIdle},
		subs:     map[int]func(State){},
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// User returns the signed-in user, or nil.
func (s *Store) User() *models.User {
	return s.State().User
}

// Token returns the bearer token of the signed-in user, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.token
}

// Subscribe registers fn to receive a snapshot after every transition.
// The returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) dispatch(a Action) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snap := s.state
	s.mu.Unlock()

	for _, fn := range s.subs {
		fn(snap.clone())
	}
}

// CheckSession restores the persisted session. A token the provider no
// longer accepts is discarded without error.
func (s *Store) CheckSession(ctx context.Context) error {
	s.dispatch(Pending{})

	token, err := s.keeper.Load()
	if err != nil {
		s.dispatch(Rejected{Message: err.Error()})
		return err
	}
	if token == "" {
		s.dispatch(Resolved{})
		return nil
	}

	user, err := s.provider.CurrentUser(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		if err := s.keeper.Clear(); err != nil {
			slog.Warn("discard stale token failed", "error", err)
		}
		s.dispatch(Resolved{})
		return nil
	}
	if err != nil {
		s.dispatch(Rejected{Message: err.Error()})
		return err
	}

	s.dispatch(Resolved{User: user, Token: token})
	return nil
}

// Login signs in with email and password.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.dispatch(Pending{})
	sess, err := s.provider.SignIn(ctx, email, password)
	return s.signedIn(sess, err)
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, email, password string) error {
	s.dispatch(Pending{})
	sess, err := s.provider.SignUp(ctx, email, password)
	return s.signedIn(sess, err)
}

func (s *Store) signedIn(sess *models.Session, err error) error {
	if err != nil {
		s.dispatch(Rejected{Message: err.Error()})
		return err
	}
	if err := s.keeper.Save(sess.Token); err != nil {
		slog.Warn("persist token failed, session lasts for this run only", "error", err)
	}
	user := sess.User
	s.dispatch(SignedIn{User: &user, Token: sess.Token})
	return nil
}

// Logout ends the session. Local state is cleared even when the remote
// sign-out fails; that failure is still returned and recorded.
func (s *Store) Logout(ctx context.Context) error {
	s.dispatch(Pending{})

	var remoteErr error
	if token := s.Token(); token != "" {
		remoteErr = s.provider.SignOut(ctx, token)
	}
	if err := s.keeper.Clear(); err != nil {
		slog.Warn("remove token file failed", "error", err)
	}

	if remoteErr != nil {
		s.dispatch(SignedOut{Message: remoteErr.Error()})
		return remoteErr
	}
	s.dispatch(SignedOut{})
	return nil
}

// ClearError drops the last error message.
func (s *Store) ClearError() {
	s.dispatch(ErrorCleared{})
}
