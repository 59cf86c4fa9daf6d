// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"captionline/internal/api"
	"captionline/internal/auth"
	"captionline/internal/config"
	"captionline/internal/controller"
	"captionline/internal/generate"
	"captionline/internal/history"
	"captionline/internal/session"
	"captionline/internal/theme"
)

// prompter reads follow-up input for interactive commands.
type prompter interface {
	ReadLine(prompt string) (string, error)
	ReadSecret(prompt string) (string, error)
}

// app wires the client stack to the console.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	themes *theme.Manager

	session *session.Session
	client  *api.Client
	auth    *auth.Service
	gate    *auth.Gate
	history *history.Service
	sites   *controller.Sites

	canceler *operationCanceler
	prompt   prompter

	outMu sync.Mutex
	out   io.Writer

	mu           sync.Mutex
	tool         generate.Tool
	lang         generate.Lang
	listed       []history.Item
	onToolChange func(generate.Tool)

	wg sync.WaitGroup
}

func newApp(cfg *config.Config, logger zerolog.Logger, themes *theme.Manager, out io.Writer) (*app, error) {
	sess := session.New(cfg.Token)
	client, err := api.NewClient(cfg.APIURL, sess,
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return newAppWithSender(cfg, logger, themes, out, sess, client), nil
}

// newAppWithSender builds the app around any sender; client may be nil.
func newAppWithSender(cfg *config.Config, logger zerolog.Logger, themes *theme.Manager, out io.Writer, sess *session.Session, sender api.Sender) *app {
	authSvc := auth.NewService(sender, sess, logger)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		themes:   themes,
		session:  sess,
		auth:     authSvc,
		gate:     auth.NewGate(authSvc),
		history:  history.NewService(sender, logger),
		sites:    controller.NewSites(generate.NewInvoker(sender, logger), logger),
		canceler: &operationCanceler{},
		out:      out,
		tool:     cfg.DefaultTool(),
		lang:     cfg.DefaultLang(),
	}
	if client, ok := sender.(*api.Client); ok {
		a.client = client
	}
	return a
}

func (a *app) applyFlags(tool, lang string) error {
	if tool != "" {
		parsed, err := generate.ParseTool(tool)
		if err != nil {
			return err
		}
		a.setTool(parsed)
	}
	if lang != "" {
		parsed, err := generate.ParseLang(lang)
		if err != nil {
			return err
		}
		a.setLang(parsed)
	}
	return nil
}

func (a *app) colors() *theme.ColorScheme {
	return a.themes.ColorScheme()
}

func (a *app) current() (generate.Tool, generate.Lang) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tool, a.lang
}

func (a *app) setTool(tool generate.Tool) {
	a.mu.Lock()
	a.tool = tool
	hook := a.onToolChange
	a.mu.Unlock()
	if hook != nil {
		hook(tool)
	}
}

func (a *app) setLang(lang generate.Lang) {
	a.mu.Lock()
	a.lang = lang
	a.mu.Unlock()
}

func (a *app) setListed(items []history.Item) {
	a.mu.Lock()
	a.listed = items
	a.mu.Unlock()
}

func (a *app) listedItems() []history.Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listed
}

// printf writes to the console. Background generations print through it too.
func (a *app) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(s string) {
	a.printf("%s\n", s)
}

func (a *app) success(format string, args ...any) {
	a.println(a.colors().Success.Sprintf("✓ "+format, args...))
}

func (a *app) failure(format string, args ...any) {
	a.println(a.colors().Error.Sprintf("✗ "+format, args...))
}

func (a *app) muted(format string, args ...any) {
	a.println(a.colors().Muted.Sprintf(format, args...))
}

// interrupt cancels the running command and pending generations.
func (a *app) interrupt() bool {
	cancelled := a.canceler.Cancel()
	if a.sites.CancelAll() > 0 {
		cancelled = true
	}
	return cancelled
}

// runOperation runs fn with a context the interrupt handler can cancel.
func (a *app) runOperation(ctx context.Context, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.canceler.Set(cancel)
	defer a.canceler.Clear()
	return fn(opCtx)
}

// Close cancels pending generations and waits for them to finish.
func (a *app) Close() {
	a.sites.Close()
	a.wg.Wait()
	a.session.Clear()
}
