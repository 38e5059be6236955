// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Demo account created by Seed in development.
const (
	SeedEmail    = "demo@inkpost.local"
	SeedPassword = "inkpost"
)

// Seed populates the database with initial development data: a demo user
// and a welcome post. It does nothing if any user already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, SeedEmail, string(hash)).Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO blogs (title, content, author_id)
		VALUES ($1, $2, $3)
	`, "Welcome to InkPost",
		"This post was created by the development seed. Sign in as the demo user to edit or delete it.",
		userID,
	)
	if err != nil {
		return fmt.Errorf("seed insert post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo user",
		"email", SeedEmail,
		"password", SeedPassword,
	)

	return nil
}
