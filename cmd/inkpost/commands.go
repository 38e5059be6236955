// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"inkpost/internal/collection"
	"inkpost/internal/models"
	"inkpost/internal/validate"
	"inkpost/internal/view"
)

func commands(c *client) []*cli.Command {
	credentialFlags := []cli.Flag{
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
		&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", EnvVars: []string{"INKPOST_PASSWORD"}},
	}
	postFlags := []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Post title"},
		&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Post content"},
	}

	return []*cli.Command{
		{
			Name:  "register",
			Usage: "Create an account and sign in",
			Flags: append(append([]cli.Flag{}, credentialFlags...),
				&cli.StringFlag{Name: "confirm", Usage: "Repeat the password"}),
			Action: c.register,
		},
		{
			Name:   "login",
			Usage:  "Sign in",
			Flags:  credentialFlags,
			Action: c.login,
		},
		{
			Name:   "logout",
			Usage:  "Sign out",
			Action: c.logout,
		},
		{
			Name:   "whoami",
			Usage:  "Show the signed-in user",
			Action: c.whoami,
		},
		{
			Name:  "list",
			Usage: "List blogs, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "page", Aliases: []string{"n"}, Value: 1, Usage: "Page to show"},
			},
			Action: c.list,
		},
		{
			Name:      "show",
			Usage:     "Show one blog",
			ArgsUsage: "<id>",
			Action:    c.show,
		},
		{
			Name:   "create",
			Usage:  "Write a new blog",
			Flags:  postFlags,
			Action: c.create,
		},
		{
			Name:      "edit",
			Usage:     "Edit one of your blogs",
			ArgsUsage: "<id>",
			Flags:     postFlags,
			Action:    c.edit,
		},
		{
			Name:      "delete",
			Usage:     "Delete one of your blogs",
			ArgsUsage: "<id>",
			Action:    c.delete,
		},
	}
}

func (c *client) register(ctx *cli.Context) error {
	c.session.ClearError()
	email := strings.TrimSpace(ctx.String("email"))
	if err := validate.Register(email, ctx.String("password"), ctx.String("confirm")); err != nil {
		return err
	}
	if err := c.session.Register(ctx.Context, email, ctx.String("password")); err != nil {
		return errors.New(c.session.State().ErrorMessage)
	}
	fmt.Fprintf(ctx.App.Writer, "Welcome, %s.\n", c.session.User().Email)
	return nil
}

func (c *client) login(ctx *cli.Context) error {
	c.session.ClearError()
	email := strings.TrimSpace(ctx.String("email"))
	if err := validate.Login(email, ctx.String("password")); err != nil {
		return err
	}
	if err := c.session.Login(ctx.Context, email, ctx.String("password")); err != nil {
		return errors.New(c.session.State().ErrorMessage)
	}
	fmt.Fprintf(ctx.App.Writer, "Signed in as %s.\n", c.session.User().Email)
	return nil
}

func (c *client) logout(ctx *cli.Context) error {
	if !c.session.State().SignedIn() {
		fmt.Fprintln(ctx.App.Writer, "Not signed in.")
		return nil
	}
	if err := c.session.Logout(ctx.Context); err != nil {
		return fmt.Errorf("signed out locally, but the server said: %s", c.session.State().ErrorMessage)
	}
	fmt.Fprintln(ctx.App.Writer, "Signed out.")
	return nil
}

func (c *client) whoami(ctx *cli.Context) error {
	c.out.Whoami(c.session.User())
	return nil
}

func (c *client) list(ctx *cli.Context) error {
	page := max(ctx.Int("page"), 1)
	if err := c.blogs.List(ctx.Context, page); err != nil {
		return errors.New(c.blogs.State().ErrorMessage)
	}

	// Past the last page: show the last one instead.
	st := c.blogs.State()
	if clamped := view.ClampPage(page, st.TotalCount); clamped != page {
		if err := c.blogs.List(ctx.Context, clamped); err != nil {
			return errors.New(c.blogs.State().ErrorMessage)
		}
	}

	c.out.List(c.blogs.State(), c.session.User())
	return nil
}

func (c *client) show(ctx *cli.Context) error {
	post, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	defer c.blogs.ClearCurrent()

	c.out.Detail(post, c.session.User())
	return nil
}

func (c *client) create(ctx *cli.Context) error {
	if !c.session.State().SignedIn() {
		return collection.ErrNotAuthenticated
	}
	title := strings.TrimSpace(ctx.String("title"))
	content := strings.TrimSpace(ctx.String("content"))
	if err := validate.Post(title, content); err != nil {
		return err
	}

	if err := c.blogs.Create(ctx.Context, title, content); err != nil {
		return errors.New(c.blogs.State().ErrorMessage)
	}
	created := c.blogs.State().Items[0]
	fmt.Fprintf(ctx.App.Writer, "Created %s.\n", created.ID)
	return nil
}

func (c *client) edit(ctx *cli.Context) error {
	post, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	defer c.blogs.ClearCurrent()

	if err := view.CanEdit(post, c.session.User()); err != nil {
		return err
	}

	title, content := post.Title, post.Content
	if ctx.IsSet("title") {
		title = strings.TrimSpace(ctx.String("title"))
	}
	if ctx.IsSet("content") {
		content = strings.TrimSpace(ctx.String("content"))
	}
	if err := validate.Post(title, content); err != nil {
		return err
	}

	if err := c.blogs.Update(ctx.Context, post.ID, title, content); err != nil {
		return errors.New(c.blogs.State().ErrorMessage)
	}
	c.out.Detail(c.blogs.State().Current, c.session.User())
	return nil
}

func (c *client) delete(ctx *cli.Context) error {
	post, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.blogs.ClearCurrent()

	if err := view.CanEdit(post, c.session.User()); err != nil {
		return err
	}
	if err := c.blogs.Delete(ctx.Context, post.ID); err != nil {
		return errors.New(c.blogs.State().ErrorMessage)
	}
	fmt.Fprintf(ctx.App.Writer, "Deleted %q.\n", post.Title)
	return nil
}

// fetch loads the post named by the first argument into Current.
func (c *client) fetch(ctx *cli.Context) (*models.Post, error) {
	if ctx.NArg() != 1 {
		return nil, fmt.Errorf("expected one blog id, got %d arguments", ctx.NArg())
	}
	id, err := uuid.Parse(ctx.Args().First())
	if err != nil {
		return nil, fmt.Errorf("invalid blog id %q", ctx.Args().First())
	}
	if err := c.blogs.Get(ctx.Context, id); err != nil {
		return nil, errors.New(c.blogs.State().ErrorMessage)
	}
	return c.blogs.State().Current, nil
}
