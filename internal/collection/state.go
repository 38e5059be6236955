// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package collection

import (
	"github.com/google/uuid"

	"inkpost/internal/models"
)

// State is a snapshot of the collection store.
type State struct {
	Items        []models.Post
	Current      *models.Post
	TotalCount   int
	Page         int
	Status       models.LoadStatus
	ErrorMessage string
}

func (s State) clone() State {
	if s.Items != nil {
		s.Items = append([]models.Post(nil), s.Items...)
	}
	if s.Current != nil {
		p := *s.Current
		s.Current = &p
	}
	return s
}

// Action is a state transition understood by Reduce.
type Action interface {
	isAction()
}

type (
	// Pending marks the start of an operation.
	Pending struct{}

	// Rejected ends an operation with an error message.
	Rejected struct{ Message string }

	// ListFulfilled carries one page and the server's total.
	ListFulfilled struct {
		Items []models.Post
		Total int
		Page  int
	}

	// GetFulfilled carries the post to show.
	GetFulfilled struct{ Post models.Post }

	// CreateFulfilled carries the stored row of a new post.
	CreateFulfilled struct{ Post models.Post }

	// UpdateFulfilled carries the stored row of an edited post.
	UpdateFulfilled struct{ Post models.Post }

	// DeleteFulfilled names the post that was soft-deleted.
	DeleteFulfilled struct{ ID uuid.UUID }

	// ErrorCleared drops the error message.
	ErrorCleared struct{}

	// CurrentCleared drops the post being viewed.
	CurrentCleared struct{}
)

func (Pending) isAction()         {}
func (Rejected) isAction()        {}
func (ListFulfilled) isAction()   {}
func (GetFulfilled) isAction()    {}
func (CreateFulfilled) isAction() {}
func (UpdateFulfilled) isAction() {}
func (DeleteFulfilled) isAction() {}
func (ErrorCleared) isAction()    {}
func (CurrentCleared) isAction()  {}

// Reduce returns the state that follows s after a. It never writes to the
// backing arrays of s, so earlier snapshots stay valid.
//
// TotalCount only changes on ListFulfilled. After a create or delete it
// drifts from the real count until the next List.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Pending:
		s.Status = models.StatusLoading
		s.ErrorMessage = ""
	case Rejected:
		s.Status = models.StatusError
		s.ErrorMessage = a.Message
	case ListFulfilled:
		s.Status = models.StatusIdle
		s.Items = append([]models.Post{}, a.Items...)
		s.TotalCount = a.Total
		s.Page = a.Page
	case GetFulfilled:
		s.Status = models.StatusIdle
		p := a.Post
		s.Current = &p
	case CreateFulfilled:
		s.Status = models.StatusIdle
		items := make([]models.Post, 0, len(s.Items)+1)
		s.Items = append(append(items, a.Post), s.Items...)
	case UpdateFulfilled:
		s.Status = models.StatusIdle
		items := make([]models.Post, len(s.Items))
		for i, p := range s.Items {
			if p.ID == a.Post.ID {
				p = a.Post
			}
			items[i] = p
		}
		s.Items = items
		p := a.Post
		s.Current = &p
	case DeleteFulfilled:
		s.Status = models.StatusIdle
		items := make([]models.Post, 0, len(s.Items))
		for _, p := range s.Items {
			if p.ID != a.ID {
				items = append(items, p)
			}
		}
		s.Items = items
	case ErrorCleared:
		s.ErrorMessage = ""
		if s.Status == models.StatusError {
			s.Status = models.StatusIdle
		}
	case CurrentCleared:
		s.Current = nil
	}
	return s
}
