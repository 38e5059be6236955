// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"inkpost/internal/models"
)

// Blogs calls the backend's blogs table endpoints.
type Blogs struct {
	c      *Client
	tokens TokenSource
}

func (b *Blogs) token() string {
	if b.tokens == nil {
		return ""
	}
	return b.tokens.Token()
}

// ListActive fetches one window of active posts with the total count.
func (b *Blogs) ListActive(ctx context.Context, offset, limit int) ([]models.Post, int, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var page models.PostPage
	if err := b.c.do(ctx, http.MethodGet, "/blogs?"+q.Encode(), "", nil, &page); err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

// FindActive fetches one active post. A missing or deleted post matches
// ErrNotFound.
func (b *Blogs) FindActive(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var p models.Post
	if err := b.c.do(ctx, http.MethodGet, "/blogs/"+id.String(), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert creates a post and returns the stored row.
func (b *Blogs) Insert(ctx context.Context, np models.NewPost) (*models.Post, error) {
	var p models.Post
	if err := b.c.do(ctx, http.MethodPost, "/blogs", b.token(), np, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update patches a post and returns the stored row.
func (b *Blogs) Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error) {
	var p models.Post
	if err := b.c.do(ctx, http.MethodPatch, "/blogs/"+id.String(), b.token(), patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
