// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the visibility state of a blog post. Posts are never
// physically removed; deleting one moves it to PostStatusDeleted.
type PostStatus string

const (
	PostStatusActive  PostStatus = "active"
	PostStatusDeleted PostStatus = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	return s == PostStatusActive || s == PostStatusDeleted
}

// Post is a row of the blogs table.
type Post struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Status    PostStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsActive returns true if the post is visible through the public read paths.
func (p *Post) IsActive() bool {
	return p.Status == PostStatusActive
}

// OwnedBy returns true if the given user created the post.
func (p *Post) OwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.AuthorID == userID
}

// NewPost holds the fields a caller supplies when inserting a post. The ID,
// status and timestamps are assigned by the backend.
type NewPost struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	AuthorID uuid.UUID `json:"author_id"`
}

// PostPatch is a partial update applied by key. Nil fields are left as they
// are. AuthorID and CreatedAt can never be patched.
type PostPatch struct {
	Title   *string     `json:"title,omitempty"`
	Content *string     `json:"content,omitempty"`
	Status  *PostStatus `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Status == nil
}

// PostPage is one window of active posts together with the total number of
// active posts matching the filter, independent of the window.
type PostPage struct {
	Items []Post `json:"items"`
	Total int    `json:"total"`
}
