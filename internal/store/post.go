// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"inkpost/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var postColumns = []string{
	"id", "title", "content", "author_id", "status", "created_at", "updated_at",
}

// PostStore handles all operations on the blogs table.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// ListActive returns one window of active posts, newest first, together with
// the number of active posts in the whole table. The window and the count
// are read concurrently.
func (s *PostStore) ListActive(ctx context.Context, offset, limit int) ([]models.Post, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, ErrInvalidWindow
	}

	active := sq.Eq{"status": models.PostStatusActive}

	listQuery, listArgs, err := psql.Select(postColumns...).
		From("blogs").
		Where(active).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("blogs").Where(active).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var (
		items []models.Post
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, listQuery, listArgs...)
		if err != nil {
			return fmt.Errorf("list active posts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPost(rows)
			if err != nil {
				return err
			}
			items = append(items, *p)
		}
		return rows.Err()
	})
	g.Go(func() error {
		if err := s.db.QueryRowContext(gctx, countQuery, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("count active posts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if items == nil {
		items = []models.Post{}
	}
	return items, total, nil
}

// FindActive retrieves an active post by its UUID. Deleted posts are
// reported as ErrNotFound.
func (s *PostStore) FindActive(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.findOne(ctx, sq.Eq{"id": id, "status": models.PostStatusActive})
}

// FindByID retrieves a post by its UUID regardless of status.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.findOne(ctx, sq.Eq{"id": id})
}

func (s *PostStore) findOne(ctx context.Context, where sq.Eq) (*models.Post, error) {
	query, args, err := psql.Select(postColumns...).From("blogs").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

// Insert creates a new active post and returns the full row with the
// generated ID and timestamps.
func (s *PostStore) Insert(ctx context.Context, np models.NewPost) (*models.Post, error) {
	query, args, err := psql.Insert("blogs").
		Columns("title", "content", "author_id", "status").
		Values(np.Title, np.Content, np.AuthorID, models.PostStatusActive).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isCheckViolation(err) {
			return nil, fmt.Errorf("create post: %w", ErrConstraint)
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// Update applies a patch to the post with the given ID and returns the full
// updated row. updated_at always moves forward, even when two updates land
// within the same clock tick.
func (s *PostStore) Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error) {
	ub := psql.Update("blogs").
		Set("updated_at", sq.Expr("GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')")).
		Where(sq.Eq{"id": id})

	if patch.Title != nil {
		ub = ub.Set("title", *patch.Title)
	}
	if patch.Content != nil {
		ub = ub.Set("content", *patch.Content)
	}
	if patch.Status != nil {
		ub = ub.Set("status", *patch.Status)
	}

	query, args, err := ub.Suffix("RETURNING " + joinColumns()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isCheckViolation(err) {
			return nil, fmt.Errorf("update post: %w", ErrConstraint)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// SoftDelete marks a post as deleted. The row stays in the table.
func (s *PostStore) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	deleted := models.PostStatusDeleted
	return s.Update(ctx, id, models.PostPatch{Status: &deleted})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	if err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.AuthorID,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return p, nil
}

func joinColumns() string {
	return strings.Join(postColumns, ", ")
}
