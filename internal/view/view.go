// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package view renders store state as terminal text for the inkpost CLI.
package view

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"inkpost/internal/collection"
	"inkpost/internal/models"
)

// ErrNotOwner is returned when someone other than the author tries to
// change a post.
var ErrNotOwner = errors.New("You do not have permission to edit this blog.")

// CanEdit reports whether me may edit or delete p.
func CanEdit(p *models.Post, me *models.User) error {
	if p == nil || me == nil || !p.OwnedBy(me.ID) {
		return ErrNotOwner
	}
	return nil
}

// Pager describes where a page sits among all pages.
type Pager struct {
	Page    int
	Pages   int
	HasPrev bool
	HasNext bool
}

// NewPager places page among the pages total posts fill.
func NewPager(page, total int) Pager {
	pages := collection.TotalPages(total)
	return Pager{
		Page:    page,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
}

// ClampPage moves page into [1, TotalPages(total)]. With no posts it is 1.
func ClampPage(page, total int) int {
	pages := collection.TotalPages(total)
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Printer writes views to Out. Now is used for relative times.
type Printer struct {
	Out io.Writer
	Now func() time.Time
}

// NewPrinter returns a Printer on out using the wall clock.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{Out: out, Now: time.Now}
}

func (p *Printer) ago(t time.Time) string {
	return humanize.RelTime(t, p.Now(), "ago", "from now")
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// List renders the current page of posts with a pager. Posts owned by me
// are marked.
func (p *Printer) List(st collection.State, me *models.User) {
	if len(st.Items) == 0 {
		p.line("No blogs yet.")
	}
	for _, post := range st.Items {
		mark := " "
		if me != nil && post.OwnedBy(me.ID) {
			mark = "*"
		}
		p.line("%s %s  %s  (%s)", mark, post.ID, post.Title, p.ago(post.CreatedAt))
	}

	pg := NewPager(st.Page, st.TotalCount)
	p.line("")
	p.line("%s. Page %d of %d", english.Plural(st.TotalCount, "blog", "blogs"), pg.Page, pg.Pages)

	var nav []string
	if pg.HasPrev {
		nav = append(nav, fmt.Sprintf("previous: --page %d", pg.Page-1))
	}
	if pg.HasNext {
		nav = append(nav, fmt.Sprintf("next: --page %d", pg.Page+1))
	}
	if len(nav) > 0 {
		p.line("%s", strings.Join(nav, "  "))
	}
}

// Detail renders one post. Edit and delete hints are shown to the owner
// only.
func (p *Printer) Detail(post *models.Post, me *models.User) {
	p.line("%s", post.Title)
	p.line("%s", strings.Repeat("=", len([]rune(post.Title))))
	meta := "posted " + p.ago(post.CreatedAt)
	if post.UpdatedAt.After(post.CreatedAt) {
		meta += ", edited " + p.ago(post.UpdatedAt)
	}
	p.line("%s", meta)
	p.line("")
	p.line("%s", post.Content)

	if CanEdit(post, me) == nil {
		p.line("")
		p.line("inkpost edit %s | inkpost delete %s", post.ID, post.ID)
	}
}

// Whoami renders the signed-in user, or a hint to sign in.
func (p *Printer) Whoami(me *models.User) {
	if me == nil {
		p.line("Not signed in. Run: inkpost login")
		return
	}
	p.line("%s (member since %s)", me.Email, p.ago(me.CreatedAt))
}

// Error renders a store's error message.
func (p *Printer) Error(msg string) {
	p.line("Error: %s", msg)
}
