// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Keeper persists the session token between runs.
type Keeper interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileKeeper stores the token in a single file readable only by its owner.
type FileKeeper struct {
	fs   afero.Fs
	path string
}

// NewFileKeeper creates a keeper for the token file at path on fsys.
func NewFileKeeper(fsys afero.Fs, path string) *FileKeeper {
	return &FileKeeper{fs: fsys, path: path}
}

// Load returns the stored token, or "" when there is none.
func (k *FileKeeper) Load() (string, error) {
	data, err := afero.ReadFile(k.fs, k.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, creating the parent directory if needed.
func (k *FileKeeper) Save(token string) error {
	if err := k.fs.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := afero.WriteFile(k.fs, k.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (k *FileKeeper) Clear() error {
	err := k.fs.Remove(k.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
