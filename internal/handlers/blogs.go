// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkpost/internal/middleware"
	"inkpost/internal/models"
	"inkpost/internal/store"
	"inkpost/internal/validate"
)

// List window bounds.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Posts is the blogs table as the handlers see it.
type Posts interface {
	ListActive(ctx context.Context, offset, limit int) ([]models.Post, int, error)
	FindActive(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Insert(ctx context.Context, np models.NewPost) (*models.Post, error)
	Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error)
}

// ListCache caches list windows between writes. Entries are scoped to a
// generation that InvalidateAll advances.
type ListCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, offset, limit int) (*models.PostPage, bool)
	Set(ctx context.Context, gen int64, offset, limit int, page *models.PostPage)
	InvalidateAll(ctx context.Context) error
}

// Blogs groups the handlers for the blogs table.
type Blogs struct {
	posts Posts
	cache ListCache

	// cacheOff is set when an invalidation failed. Cached windows may then
	// be stale, so lists bypass the cache until an invalidation succeeds.
	cacheOff atomic.Bool
}

// NewBlogs creates a new Blogs handler group. cache may be nil.
func NewBlogs(posts Posts, cache ListCache) *Blogs {
	return &Blogs{posts: posts, cache: cache}
}

// List returns one window of active posts, newest first, with the total
// number of active posts.
func (b *Blogs) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	limit, err := queryInt(r, "limit", DefaultLimit)
	if err != nil || limit < 1 || limit > MaxLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	// The generation is read before the query so that a write landing in
	// between leaves this page under a key that is no longer read.
	gen, cacheable := b.generation(ctx)
	if cacheable {
		if page, ok := b.cache.Get(ctx, gen, offset, limit); ok {
			writeJSON(w, http.StatusOK, page)
			return
		}
	}

	items, total, err := b.posts.ListActive(ctx, offset, limit)
	if err != nil {
		slog.Error("list blogs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	page := &models.PostPage{Items: items, Total: total}
	if cacheable {
		b.cache.Set(ctx, gen, offset, limit, page)
	}
	writeJSON(w, http.StatusOK, page)
}

// Get returns a single active post.
func (b *Blogs) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := b.posts.FindActive(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}
	if err != nil {
		slog.Error("get blog failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

type createInput struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	AuthorID *uuid.UUID `json:"author_id,omitempty"`
}

// Create inserts a post authored by the signed-in user.
func (b *Blogs) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromCtx(ctx)

	var in createInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.AuthorID != nil && *in.AuthorID != user.ID {
		writeError(w, http.StatusForbidden, "author_id must match the signed-in user")
		return
	}
	if err := validate.Post(in.Title, in.Content); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	post, err := b.posts.Insert(ctx, models.NewPost{
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: user.ID,
	})
	if errors.Is(err, store.ErrConstraint) {
		writeError(w, http.StatusUnprocessableEntity, "Blog violates a table constraint")
		return
	}
	if err != nil {
		slog.Error("create blog failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	b.invalidate(ctx)
	slog.Info("blog created", "id", post.ID, "author_id", post.AuthorID)
	writeJSON(w, http.StatusCreated, post)
}

// Update patches a post owned by the signed-in user. A status patch of
// "deleted" is how posts are deleted.
func (b *Blogs) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromCtx(ctx)

	id, ok := postID(w, r)
	if !ok {
		return
	}

	var patch models.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if msg := checkPatch(patch); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	existing, err := b.posts.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}
	if err != nil {
		slog.Error("load blog failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if !existing.OwnedBy(user.ID) {
		writeError(w, http.StatusForbidden, "You do not have permission to edit this blog.")
		return
	}

	post, err := b.posts.Update(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}
	if errors.Is(err, store.ErrConstraint) {
		writeError(w, http.StatusUnprocessableEntity, "Blog violates a table constraint")
		return
	}
	if err != nil {
		slog.Error("update blog failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	b.invalidate(ctx)
	slog.Info("blog updated", "id", post.ID, "status", post.Status)
	writeJSON(w, http.StatusOK, post)
}

// checkPatch validates the fields present in a patch.
func checkPatch(patch models.PostPatch) string {
	if patch.Title != nil {
		if err := validate.Title(*patch.Title); err != nil {
			return err.Error()
		}
	}
	if patch.Content != nil {
		if err := validate.Content(*patch.Content); err != nil {
			return err.Error()
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return "Status must be active or deleted"
	}
	return ""
}

func (b *Blogs) generation(ctx context.Context) (int64, bool) {
	if b.cache == nil || b.cacheOff.Load() {
		return 0, false
	}
	gen, err := b.cache.Generation(ctx)
	if err != nil {
		slog.Warn("list cache bypassed", "error", err)
		return 0, false
	}
	return gen, true
}

func (b *Blogs) invalidate(ctx context.Context) {
	if b.cache == nil {
		return
	}
	if err := b.cache.InvalidateAll(ctx); err != nil {
		slog.Error("list cache invalidation failed, caching disabled", "error", err)
		b.cacheOff.Store(true)
		return
	}
	b.cacheOff.Store(false)
}

// postID parses the {id} URL parameter, writing a 400 when it is malformed.
func postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid blog id")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
