// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package collection is the client's single source of truth for the blog
// list and the post being viewed. Every remote call goes through a Store,
// which records the request phase and the outcome as Reduce transitions.
package collection

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"inkpost/internal/models"
)

// PageSize is the number of posts on one page.
const PageSize = 10

// ErrNotAuthenticated is returned by writes attempted without a session.
var ErrNotAuthenticated = errors.New("User not authenticated")

// TotalPages returns how many pages total posts fill. It is 0 for no posts.
func TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// Table is the remote blogs table.
type Table interface {
	ListActive(ctx context.Context, offset, limit int) ([]models.Post, int, error)
	FindActive(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Insert(ctx context.Context, np models.NewPost) (*models.Post, error)
	Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error)
}

// SessionReader reports who is signed in at the time of the call.
type SessionReader interface {
	User() *models.User
}

// Store is the collection store. It is safe for concurrent use: remote
// calls run outside the lock and the last one to resolve wins. Subscribers
// are called in transition order and must not call back into the store.
type Store struct {
	table   Table
	session SessionReader

	mu    sync.Mutex
	state State

	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int
}

// NewStore creates an empty store.
func NewStore(table Table, session SessionReader) *Store {
	return &Store{
		table:   table,
		session: session,
		state:   State{Items: []models.Post{}, Status: models.StatusIdle},
		subs:    map[int]func(State){},
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
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

func (s *Store) reject(op string, err error) error {
	slog.Debug("collection operation failed", "op", op, "error", err)
	s.dispatch(Rejected{Message: err.Error()})
	return err
}

// List loads page (1-based) of active posts, newest first. The page is not
// clamped; use TotalPages.
func (s *Store) List(ctx context.Context, page int) error {
	s.dispatch(Pending{})

	items, total, err := s.table.ListActive(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		return s.reject("list", err)
	}

	s.dispatch(ListFulfilled{Items: items, Total: total, Page: page})
	return nil
}

// Get loads one active post into Current.
func (s *Store) Get(ctx context.Context, id uuid.UUID) error {
	s.dispatch(Pending{})

	post, err := s.table.FindActive(ctx, id)
	if err != nil {
		return s.reject("get", err)
	}

	s.dispatch(GetFulfilled{Post: *post})
	return nil
}

// Create inserts a post authored by the signed-in user and prepends it to
// Items.
func (s *Store) Create(ctx context.Context, title, content string) error {
	s.dispatch(Pending{})

	user := s.session.User()
	if user == nil {
		return s.reject("create", ErrNotAuthenticated)
	}

	post, err := s.table.Insert(ctx, models.NewPost{
		Title:    title,
		Content:  content,
		AuthorID: user.ID,
	})
	if err != nil {
		return s.reject("create", err)
	}

	s.dispatch(CreateFulfilled{Post: *post})
	return nil
}

// Update replaces the title and content of a post.
func (s *Store) Update(ctx context.Context, id uuid.UUID, title, content string) error {
	s.dispatch(Pending{})

	post, err := s.table.Update(ctx, id, models.PostPatch{Title: &title, Content: &content})
	if err != nil {
		return s.reject("update", err)
	}

	s.dispatch(UpdateFulfilled{Post: *post})
	return nil
}

// Delete soft-deletes a post and removes it from Items.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.dispatch(Pending{})

	deleted := models.PostStatusDeleted
	if _, err := s.table.Update(ctx, id, models.PostPatch{Status: &deleted}); err != nil {
		return s.reject("delete", err)
	}

	s.dispatch(DeleteFulfilled{ID: id})
	return nil
}

// ClearError drops the last error message.
func (s *Store) ClearError() {
	s.dispatch(ErrorCleared{})
}

// ClearCurrent drops the post being viewed.
func (s *Store) ClearCurrent() {
	s.dispatch(CurrentCleared{})
}
