// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"

	"inkpost/internal/models"
)

// createPost creates a post through the API and returns it.
func (e *testEnv) createPost(t *testing.T, token, title, content string) *models.Post {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/v1/blogs", token, map[string]string{
		"title": title, "content": content,
	})
	expectStatus(t, rr, http.StatusCreated)
	var p models.Post
	decode(t, rr, &p)
	return &p
}

func (e *testEnv) list(t *testing.T, query string) models.PostPage {
	t.Helper()
	rr := e.do(t, http.MethodGet, "/api/v1/blogs"+query, "", nil)
	expectStatus(t, rr, http.StatusOK)
	var page models.PostPage
	decode(t, rr, &page)
	return page
}

func TestBlogsCreate(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")

	p := env.createPost(t, sess.Token, "First post", "Hello from the handler tests.")
	if p.AuthorID != sess.User.ID {
		t.Errorf("author: got %s, want %s", p.AuthorID, sess.User.ID)
	}
	if p.Status != models.PostStatusActive {
		t.Errorf("status: got %q", p.Status)
	}
}

func TestBlogsCreateRejects(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")

	tests := []struct {
		name   string
		token  string
		body   any
		status int
		msg    string
	}{
		{"anonymous", "", map[string]string{"title": "Valid", "content": "Valid content here"}, http.StatusUnauthorized, "User not authenticated"},
		{"short title", sess.Token, map[string]string{"title": "Hi", "content": "Valid content here"}, http.StatusUnprocessableEntity, "Title must be at least 3 characters long"},
		{"short content", sess.Token, map[string]string{"title": "Valid", "content": "short"}, http.StatusUnprocessableEntity, "Content must be at least 10 characters long"},
		{"foreign author", sess.Token, map[string]any{"title": "Valid", "content": "Valid content here", "author_id": uuid.New()}, http.StatusForbidden, "author_id must match the signed-in user"},
		{"status not accepted", sess.Token, map[string]any{"title": "Valid", "content": "Valid content here", "status": "deleted"}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/v1/blogs", tt.token, tt.body)
			expectStatus(t, rr, tt.status)
			if msg := errorMessage(t, rr); tt.msg != "" && msg != tt.msg {
				t.Errorf("error: got %q, want %q", msg, tt.msg)
			}
		})
	}
}

func TestBlogsCreateOwnAuthorID(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")

	rr := env.do(t, http.MethodPost, "/api/v1/blogs", sess.Token, map[string]any{
		"title": "Explicit author", "content": "author_id matches the session.", "author_id": sess.User.ID,
	})
	expectStatus(t, rr, http.StatusCreated)
}

func TestBlogsListPagination(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")

	for i := 1; i <= 25; i++ {
		env.createPost(t, sess.Token, fmt.Sprintf("Post number %d", i), "Content long enough to pass.")
	}

	page := env.list(t, "?offset=0&limit=10")
	if len(page.Items) != 10 || page.Total != 25 {
		t.Errorf("first page: got %d items, total %d", len(page.Items), page.Total)
	}
	if page.Items[0].Title != "Post number 25" {
		t.Errorf("expected newest first, got %q", page.Items[0].Title)
	}

	page = env.list(t, "?offset=20&limit=10")
	if len(page.Items) != 5 || page.Total != 25 {
		t.Errorf("third page: got %d items, total %d", len(page.Items), page.Total)
	}

	page = env.list(t, "")
	if len(page.Items) != DefaultLimit {
		t.Errorf("default limit: got %d items", len(page.Items))
	}
}

func TestBlogsListRejectsBadWindow(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"?offset=-10", "?offset=x", "?limit=0", "?limit=101", "?limit=ten"} {
		rr := env.do(t, http.MethodGet, "/api/v1/blogs"+q, "", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", q, rr.Code)
		}
	}
}

func TestBlogsListUsesCache(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")
	env.createPost(t, sess.Token, "Cached", "This post is listed twice.")

	env.list(t, "?offset=0&limit=10")
	env.list(t, "?offset=0&limit=10")
	if env.posts.lists != 1 {
		t.Errorf("expected the second list to be served from cache, table hit %d times", env.posts.lists)
	}

	env.createPost(t, sess.Token, "Another", "Writes drop the cache.")
	page := env.list(t, "?offset=0&limit=10")
	if page.Total != 2 || env.posts.lists != 2 {
		t.Errorf("after write: total %d, table hits %d", page.Total, env.posts.lists)
	}
}

func TestBlogsGet(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")
	p := env.createPost(t, sess.Token, "Readable", "Anyone may read this post.")

	rr := env.do(t, http.MethodGet, "/api/v1/blogs/"+p.ID.String(), "", nil)
	expectStatus(t, rr, http.StatusOK)
	var got models.Post
	decode(t, rr, &got)
	if got.ID != p.ID {
		t.Errorf("id: got %s, want %s", got.ID, p.ID)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/blogs/"+uuid.NewString(), "", nil)
	expectStatus(t, rr, http.StatusNotFound)
	if msg := errorMessage(t, rr); msg != "Blog not found" {
		t.Errorf("error: got %q", msg)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/blogs/not-a-uuid", "", nil)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestBlogsUpdate(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")
	p := env.createPost(t, sess.Token, "Before", "Original content of the post.")

	rr := env.do(t, http.MethodPatch, "/api/v1/blogs/"+p.ID.String(), sess.Token, map[string]string{
		"title": "After", "content": "Edited content of the post.",
	})
	expectStatus(t, rr, http.StatusOK)
	var got models.Post
	decode(t, rr, &got)
	if got.Title != "After" || got.Content != "Edited content of the post." {
		t.Errorf("unexpected post %+v", got)
	}
	if !got.UpdatedAt.After(p.UpdatedAt) {
		t.Error("updated_at must increase")
	}
	if got.AuthorID != p.AuthorID || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Error("author_id and created_at must not change")
	}
}

func TestBlogsUpdateRejects(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@inkpost.local")
	other := env.signUp(t, "other@inkpost.local")
	p := env.createPost(t, owner.Token, "Owned", "Only the owner may edit.")
	path := "/api/v1/blogs/" + p.ID.String()

	tests := []struct {
		name   string
		path   string
		token  string
		body   any
		status int
		msg    string
	}{
		{"anonymous", path, "", map[string]string{"title": "Hijack"}, http.StatusUnauthorized, ""},
		{"not owner", path, other.Token, map[string]string{"title": "Hijack"}, http.StatusForbidden, "You do not have permission to edit this blog."},
		{"missing", "/api/v1/blogs/" + uuid.NewString(), owner.Token, map[string]string{"title": "Ghost"}, http.StatusNotFound, "Blog not found"},
		{"empty patch", path, owner.Token, map[string]string{}, http.StatusBadRequest, "Nothing to update"},
		{"bad status", path, owner.Token, map[string]string{"status": "archived"}, http.StatusUnprocessableEntity, "Status must be active or deleted"},
		{"short title", path, owner.Token, map[string]string{"title": "No"}, http.StatusUnprocessableEntity, "Title must be at least 3 characters long"},
		{"author change", path, owner.Token, map[string]any{"author_id": other.User.ID}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPatch, tt.path, tt.token, tt.body)
			expectStatus(t, rr, tt.status)
			if msg := errorMessage(t, rr); tt.msg != "" && msg != tt.msg {
				t.Errorf("error: got %q, want %q", msg, tt.msg)
			}
		})
	}
}

func TestBlogsSoftDelete(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")
	keep := env.createPost(t, sess.Token, "Keeper", "This one stays listed.")
	gone := env.createPost(t, sess.Token, "Goner", "This one gets deleted.")

	// Warm the cache so the delete has to invalidate it.
	env.list(t, "")

	rr := env.do(t, http.MethodPatch, "/api/v1/blogs/"+gone.ID.String(), sess.Token, map[string]string{
		"status": "deleted",
	})
	expectStatus(t, rr, http.StatusOK)

	rr = env.do(t, http.MethodGet, "/api/v1/blogs/"+gone.ID.String(), "", nil)
	expectStatus(t, rr, http.StatusNotFound)

	page := env.list(t, "")
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != keep.ID {
		t.Errorf("deleted post still listed: %+v", page)
	}

	// The row survives with status deleted.
	raw, err := env.posts.FindByID(t.Context(), gone.ID)
	if err != nil || raw.Status != models.PostStatusDeleted {
		t.Errorf("expected soft-deleted row, got %+v (%v)", raw, err)
	}
}

func TestBlogsListInFlightDuringDelete(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")
	gone := env.createPost(t, sess.Token, "Goner", "Deleted while a list is running.")

	// Hold the first list open after it has read the table.
	reached, release := make(chan struct{}), make(chan struct{})
	var once sync.Once
	env.posts.afterList = func() {
		once.Do(func() {
			close(reached)
			<-release
		})
	}

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/blogs", nil))
		done <- rr
	}()
	<-reached

	rr := env.do(t, http.MethodPatch, "/api/v1/blogs/"+gone.ID.String(), sess.Token, map[string]string{
		"status": "deleted",
	})
	expectStatus(t, rr, http.StatusOK)

	close(release)
	expectStatus(t, <-done, http.StatusOK)

	page := env.list(t, "")
	for _, p := range page.Items {
		if p.ID == gone.ID {
			t.Fatalf("deleted post %s served after delete", gone.ID)
		}
	}
	if page.Total != 0 {
		t.Errorf("total: got %d, want 0", page.Total)
	}
}

func TestBlogsListCacheFailedInvalidation(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")
	gone := env.createPost(t, sess.Token, "Goner", "Deleted while the cache is down.")

	// Cache the window, then delete while invalidation cannot reach Valkey.
	env.list(t, "")
	env.cache.setDown(true)
	rr := env.do(t, http.MethodPatch, "/api/v1/blogs/"+gone.ID.String(), sess.Token, map[string]string{
		"status": "deleted",
	})
	expectStatus(t, rr, http.StatusOK)
	env.cache.setDown(false)

	page := env.list(t, "")
	if page.Total != 0 || len(page.Items) != 0 {
		t.Fatalf("stale window served after a failed invalidation: %+v", page)
	}

	// A successful invalidation turns caching back on.
	env.createPost(t, sess.Token, "Fresh", "Invalidation works again.")
	before := env.posts.lists
	env.list(t, "")
	env.list(t, "")
	if got := env.posts.lists - before; got != 1 {
		t.Errorf("expected caching to resume, table hit %d times", got)
	}
}

func TestBlogsListCacheUnreachable(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signUp(t, "author@inkpost.local")
	env.createPost(t, sess.Token, "Listed", "Served straight from the table.")
	env.cache.setDown(true)

	page := env.list(t, "")
	if page.Total != 1 {
		t.Errorf("total: got %d, want 1", page.Total)
	}
	if env.cache.invalidated != 1 {
		t.Errorf("expected one successful invalidation from the create, got %d", env.cache.invalidated)
	}
}
