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
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"captionline/internal/api"
	"captionline/internal/auth"
	"captionline/internal/commands"
	"captionline/internal/generate"
	"captionline/internal/history"
)

func runInteractive(ctx context.Context, a *app) error {
	a.logger.Debug().Msg("Running in interactive mode")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := a.newRegistry()
	tool, _ := a.current()

	// Initialize readline with dynamic command completion
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              promptFor(tool),
		HistoryFile:         a.cfg.CommandHistoryFile,
		AutoComplete:        newCompleter(registry),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		FuncFilterInputRune: filterInterruptRune,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	a.setOutput(rl.Stdout())
	a.prompt = &readlinePrompter{rl: rl, restore: func() string {
		t, _ := a.current()
		return promptFor(t)
	}}
	a.mu.Lock()
	a.onToolChange = func(t generate.Tool) { rl.SetPrompt(promptFor(t)) }
	a.mu.Unlock()

	stop := watchInterrupts(ctx, a.interrupt)
	defer stop()

	a.printHeader(ctx)
	loop(ctx, a, registry, rl.Readline)
	a.logger.Info().Msg("Session ended")
	return nil
}

func (a *app) setOutput(w io.Writer) {
	a.outMu.Lock()
	a.out = w
	a.outMu.Unlock()
}

func (a *app) printHeader(ctx context.Context) {
	tool, lang := a.current()
	a.println(a.colors().Header.Sprint("Captionline"))
	a.muted("Connected to: %s", a.cfg.APIURL)
	a.muted("Generator: %s · language: %s · /help for commands", history.Title(tool), lang)

	_ = a.runOperation(ctx, func(ctx context.Context) error {
		if a.gate.Check(ctx) == auth.StatusAuthenticated {
			a.success("Signed in as %s", a.gate.User().Name)
		} else {
			a.muted("Not signed in, use /login or /register")
		}
		return nil
	})
	a.println("")
}

// loop reads lines until exit. Plain lines are generation requests for the
// current tool.
func loop(ctx context.Context, a *app, registry *commands.Registry, readLine func() (string, error)) {
	for {
		line, err := readLine()
		switch classifyReadlineError(line, err) {
		case readlineExit:
			return
		case readlineContinue:
			if err == readline.ErrInterrupt && a.interrupt() {
				a.muted("Cancelled")
			}
			continue
		case readlineUnhandled:
			if err != nil {
				a.logger.Debug().Err(err).Msg("Readline interrupted")
				return
			}
		}

		line = strings.TrimSpace(sanitizeInputLine(line))
		if line == "" {
			continue
		}

		if commands.IsCommand(line) {
			a.logger.Debug().Str("command", line).Msg("Executing command")
			err := registry.Execute(ctx, line)
			if errors.Is(err, commands.ErrQuit) {
				return
			}
			if err != nil {
				a.reportCommandError(err)
			}
			continue
		}

		if _, err := a.gate.Require(); err != nil {
			a.failure("Please /login first")
			continue
		}
		a.logger.Info().Str("user_input", line).Msg("User input received")
		a.startGeneration(ctx, line, false)
	}
}

func (a *app) reportCommandError(err error) {
	var (
		verr     *auth.ValidationError
		unlisted *unlistedEntryError
	)
	switch {
	case errors.Is(err, errNoProfile):
		a.failure("Signed in, but the server did not return a user")
	case errors.Is(err, errNothingToRegenerate):
		a.failure("Nothing to regenerate yet, type a topic first")
	case errors.Is(err, errNothingToSave):
		a.failure("Nothing to save yet, generate something first")
	case errors.As(err, &unlisted):
		a.failure("No listed entry %q, run /history or /saved first", unlisted.Ref)
	case errors.As(err, &verr):
		for _, f := range verr.Fields {
			a.failure("%s", f.Message)
		}
	case errors.Is(err, errPromptCancelled), api.IsCancelled(err):
		a.muted("Cancelled")
	case errors.Is(err, history.ErrMissingGenerationID):
		a.failure("This result has no generation id and cannot be saved")
	default:
		a.failure("%s", err.Error())
	}
}
