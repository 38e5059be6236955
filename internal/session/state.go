// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import "inkpost/internal/models"

// State is a snapshot of the session store.
type State struct {
	User         *models.User
	Status       models.LoadStatus
	ErrorMessage string

	token string
}

// SignedIn reports whether a user is present.
func (s State) SignedIn() bool {
	return s.User != nil
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
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

	// Resolved ends CheckSession. A nil User means nobody is signed in.
	Resolved struct {
		User  *models.User
		Token string
	}

	// SignedIn ends a successful Login or Register.
	SignedIn struct {
		User  *models.User
		Token string
	}

	// SignedOut ends Logout. The local session is gone either way; a
	// non-empty Message reports that the remote sign-out failed.
	SignedOut struct{ Message string }

	// ErrorCleared drops the error message.
	ErrorCleared struct{}
)

func (Pending) isAction()      {}
func (Rejected) isAction()     {}
func (Resolved) isAction()     {}
func (SignedIn) isAction()     {}
func (SignedOut) isAction()    {}
func (ErrorCleared) isAction() {}

// Reduce returns the state that follows s after a. It does not modify s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Pending:
		s.Status = models.StatusLoading
		s.ErrorMessage = ""
	case Rejected:
		s.Status = models.StatusError
		s.ErrorMessage = a.Message
	case Resolved:
		s.Status = models.StatusIdle
		s.User = a.User
		s.token = a.Token
	case SignedIn:
		s.Status = models.StatusIdle
		s.User = a.User
		s.token = a.Token
	case SignedOut:
		s.User = nil
		s.token = ""
		if a.Message != "" {
			s.Status = models.StatusError
			s.ErrorMessage = a.Message
		} else {
			s.Status = models.StatusIdle
		}
	case ErrorCleared:
		s.ErrorMessage = ""
		if s.Status == models.StatusError {
			s.Status = models.StatusIdle
		}
	}
	return s
}
