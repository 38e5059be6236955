// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package validate holds the input rules shared by the CLI and the backend.
// Each check returns the message of the first rule that fails, or nil.
package validate

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validation limits for posts and credentials.
const (
	MinTitleLen    = 3
	MaxTitleLen    = 300
	MinContentLen  = 10
	MaxContentLen  = 100_000
	MinPasswordLen = 6
	MaxPasswordLen = 72 // bcrypt ignores anything longer
)

// check pairs a value with the rules it must pass.
type check struct {
	value any
	rules []validation.Rule
}

// first runs the checks in order and returns the first failure.
func first(checks ...check) error {
	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			return err
		}
	}
	return nil
}

// Title checks a post title.
func Title(title string) error {
	return first(titleCheck(title))
}

// Content checks a post body.
func Content(content string) error {
	return first(contentCheck(content))
}

// Post checks the title and content of a new or edited post.
func Post(title, content string) error {
	return first(titleCheck(title), contentCheck(content))
}

func titleCheck(title string) check {
	return check{strings.TrimSpace(title), []validation.Rule{
		validation.Required.Error("Title is required"),
		validation.RuneLength(MinTitleLen, 0).Error("Title must be at least 3 characters long"),
		validation.RuneLength(0, MaxTitleLen).Error("Title is too long (max 300 characters)"),
	}}
}

func contentCheck(content string) check {
	return check{strings.TrimSpace(content), []validation.Rule{
		validation.Required.Error("Content is required"),
		validation.RuneLength(MinContentLen, 0).Error("Content must be at least 10 characters long"),
		validation.RuneLength(0, MaxContentLen).Error("Content is too long (max 100,000 characters)"),
	}}
}

// Login checks sign-in credentials.
func Login(email, password string) error {
	return first(
		check{email, []validation.Rule{validation.Required.Error("All fields are required")}},
		check{password, []validation.Rule{validation.Required.Error("All fields are required")}},
		emailCheck(email),
	)
}

// Register checks sign-up credentials and the repeated password.
func Register(email, password, confirm string) error {
	return first(
		check{email, []validation.Rule{validation.Required.Error("All fields are required")}},
		check{password, []validation.Rule{validation.Required.Error("All fields are required")}},
		check{confirm, []validation.Rule{validation.Required.Error("All fields are required")}},
		emailCheck(email),
		passwordCheck(password),
		check{confirm, []validation.Rule{validation.In(password).Error("Passwords do not match")}},
	)
}

// Credentials checks a sign-up request on the backend, where there is no
// confirmation field.
func Credentials(email, password string) error {
	return first(
		check{email, []validation.Rule{validation.Required.Error("All fields are required")}},
		check{password, []validation.Rule{validation.Required.Error("All fields are required")}},
		emailCheck(email),
		passwordCheck(password),
	)
}

func emailCheck(email string) check {
	return check{strings.TrimSpace(email), []validation.Rule{
		is.EmailFormat.Error("Please enter a valid email address"),
	}}
}

func passwordCheck(password string) check {
	return check{password, []validation.Rule{
		validation.Length(MinPasswordLen, 0).Error("Password must be at least 6 characters long"),
		validation.Length(0, MaxPasswordLen).Error("Password is too long (max 72 bytes)"),
	}}
}
