// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides in-memory fakes for the handler tests, so they
// run without PostgreSQL or Valkey.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkpost/internal/identity"
	"inkpost/internal/middleware"
	"inkpost/internal/models"
	"inkpost/internal/store"
)

// memPosts is an in-memory blogs table.
type memPosts struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*models.Post
	clock time.Time
	lists int

	// afterList, when set, runs once ListActive has read its rows and
	// before it returns them.
	afterList func()
}

func newMemPosts() *memPosts {
	return &memPosts{
		rows:  map[uuid.UUID]*models.Post{},
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memPosts) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memPosts) ListActive(_ context.Context, offset, limit int) ([]models.Post, int, error) {
	items, total := m.snapshot(offset, limit)
	m.mu.Lock()
	hook := m.afterList
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return items, total, nil
}

func (m *memPosts) snapshot(offset, limit int) ([]models.Post, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++

	var active []models.Post
	for _, p := range m.rows {
		if p.IsActive() {
			active = append(active, *p)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })

	items := []models.Post{}
	for i := offset; i < len(active) && i < offset+limit; i++ {
		items = append(items, active[i])
	}
	return items, len(active)
}

func (m *memPosts) FindActive(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (m *memPosts) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) Insert(_ context.Context, np models.NewPost) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	p := &models.Post{
		ID: uuid.New(), Title: np.Title, Content: np.Content, AuthorID: np.AuthorID,
		Status: models.PostStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	m.rows[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memPosts) Update(_ context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = m.tick()
	cp := *p
	return &cp, nil
}

// memListCache is an in-memory ListCache with generations. While down is
// set every call fails the way an unreachable Valkey would.
type memListCache struct {
	mu          sync.Mutex
	gen         int64
	pages       map[string]*models.PostPage
	invalidated int
	down        bool
}

var errCacheDown = errors.New("dial tcp: connection refused")

func newMemListCache() *memListCache {
	return &memListCache{pages: map[string]*models.PostPage{}}
}

func (c *memListCache) key(gen int64, offset, limit int) string {
	return fmt.Sprintf("%d:%d:%d", gen, offset, limit)
}

func (c *memListCache) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func (c *memListCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return 0, errCacheDown
	}
	return c.gen, nil
}

func (c *memListCache) Get(_ context.Context, gen int64, offset, limit int) (*models.PostPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, false
	}
	p, ok := c.pages[c.key(gen, offset, limit)]
	return p, ok
}

func (c *memListCache) Set(_ context.Context, gen int64, offset, limit int, page *models.PostPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	c.pages[c.key(gen, offset, limit)] = page
}

func (c *memListCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errCacheDown
	}
	c.gen++
	c.invalidated++
	return nil
}

// fakeIdentity keeps accounts and sessions in memory. Tokens are
// "token-<email>-<n>".
type fakeIdentity struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
	sessions  map[string]*models.User
	n         int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		sessions:  map[string]*models.User{},
	}
}

func (f *fakeIdentity) open(u *models.User) *models.Session {
	f.n++
	token := fmt.Sprintf("token-%s-%d", u.Email, f.n)
	f.sessions[token] = u
	return &models.Session{Token: token, ExpiresAt: time.Now().Add(time.Hour), User: *u}
}

func (f *fakeIdentity) SignUp(_ context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = store.NormalizeEmail(email)
	if _, ok := f.users[email]; ok {
		return nil, identity.ErrEmailTaken
	}
	u := &models.User{ID: uuid.New(), Email: email}
	f.users[email] = u
	f.passwords[email] = password
	return f.open(u), nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = store.NormalizeEmail(email)
	u, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return nil, identity.ErrInvalidCredentials
	}
	return f.open(u), nil
}

func (f *fakeIdentity) SignOut(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeIdentity) CurrentUser(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.sessions[token]
	if !ok {
		return nil, identity.ErrUnauthenticated
	}
	return u, nil
}

// testEnv wires the handlers behind the same middleware the router uses.
type testEnv struct {
	router http.Handler
	posts  *memPosts
	cache  *memListCache
	ids    *fakeIdentity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{posts: newMemPosts(), cache: newMemListCache(), ids: newFakeIdentity()}

	auth := NewAuth(env.ids)
	blogs := NewBlogs(env.posts, env.cache)

	r := chi.NewRouter()
	r.Use(middleware.LoadIdentity(env.ids))
	r.Post("/api/v1/auth/signup", auth.SignUp)
	r.Post("/api/v1/auth/token", auth.Token)
	r.Get("/api/v1/blogs", blogs.List)
	r.Get("/api/v1/blogs/{id}", blogs.Get)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/api/v1/auth/logout", auth.Logout)
		r.Get("/api/v1/auth/user", auth.User)
		r.Post("/api/v1/blogs", blogs.Create)
		r.Patch("/api/v1/blogs/{id}", blogs.Update)
	})
	env.router = r
	return env
}

// do sends a request through the router. body may be nil, a string, or a
// value to encode as JSON.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// signUp registers a user and returns the session.
func (e *testEnv) signUp(t *testing.T, email string) *models.Session {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": email, "password": "secret1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("sign up %s: status %d, body %s", email, rr.Code, rr.Body)
	}
	var sess models.Session
	decode(t, rr, &sess)
	return &sess
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rr, &body)
	return body["error"]
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, want, strings.TrimSpace(rr.Body.String()))
	}
}
