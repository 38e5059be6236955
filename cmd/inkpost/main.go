// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the inkpost command line client. Every command restores
// the saved session, dispatches to the session and collection stores, and
// renders the resulting state.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"inkpost/internal/api"
	"inkpost/internal/collection"
	"inkpost/internal/config"
	"inkpost/internal/logging"
	"inkpost/internal/session"
	"inkpost/internal/view"
)

// client holds the stores shared by all commands of one run.
type client struct {
	session *session.Store
	blogs   *collection.Store
	out     *view.Printer
}

// tableFunc builds the blogs table. tokens supplies the bearer token for
// writes.
type tableFunc func(tokens *session.Store) collection.Table

func newClient(provider session.Provider, keeper session.Keeper, table tableFunc, out io.Writer) *client {
	sess := session.NewStore(provider, keeper)
	return &client{
		session: sess,
		blogs:   collection.NewStore(table(sess), sess),
		out:     view.NewPrinter(out),
	}
}

// restore brings back the saved session. A failure leaves the user signed
// out for this run.
func (c *client) restore(ctx context.Context) {
	if err := c.session.CheckSession(ctx); err != nil {
		slog.Warn("could not restore session", "error", err)
		c.session.ClearError()
	}
}

// newApp builds the command tree around c. before runs ahead of every
// command and must leave c ready to use.
func newApp(c *client, before cli.BeforeFunc) *cli.App {
	return &cli.App{
		Name:  "inkpost",
		Usage: "Read and write blogs on an inkpost server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the inkpost backend",
				EnvVars: []string{"INKPOST_API_URL"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Log requests to stderr",
				EnvVars: []string{"INKPOST_DEBUG"},
			},
		},
		Before:   before,
		Commands: commands(c),
	}
}

func main() {
	c := &client{}
	app := newApp(c, c.setup)

	if err := app.Run(os.Args); err != nil {
		view.NewPrinter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

// setup wires c to the configured backend and restores the saved session.
func (c *client) setup(ctx *cli.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if url := ctx.String("api-url"); url != "" {
		cfg.APIURL = url
	}

	logger, _ := logging.New(os.Stderr, logging.Options{Debug: cfg.Debug || ctx.Bool("debug")})
	slog.SetDefault(logger)

	remote := api.New(cfg.APIURL, cfg.Timeout)
	*c = *newClient(
		remote.Auth(),
		session.NewFileKeeper(afero.NewOsFs(), cfg.TokenFile),
		func(tokens *session.Store) collection.Table { return remote.Blogs(tokens) },
		ctx.App.Writer,
	)
	c.restore(ctx.Context)
	return nil
}
