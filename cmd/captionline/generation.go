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
	"strings"
	"time"

	"captionline/internal/api"
	"captionline/internal/controller"
	apperrors "captionline/internal/errors"
	"captionline/internal/generate"
	"captionline/internal/history"
)

// startGeneration runs a generation for the current tool in the background.
// A newer generation for the same tool supersedes it; generations for other
// tools run side by side.
func (a *app) startGeneration(ctx context.Context, input string, regenerate bool) {
	tool, lang := a.current()
	site := a.sites.For(tool)

	label := history.Title(tool)
	if regenerate {
		label = "Regenerating " + label
	}
	a.println(a.colors().Progress.Sprintf("⏳ %s…", label))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		start := time.Now()
		var (
			outcome controller.Outcome
			err     error
		)
		if regenerate {
			outcome, err = site.Regenerate(ctx, input, lang)
		} else {
			outcome, err = site.Generate(ctx, input, lang)
		}
		a.logger.Debug().
			Str("tool", string(tool)).
			Dur("duration", time.Since(start)).
			Bool("cancelled", outcome.Cancelled).
			Str("code", string(apperrors.CodeOf(err))).
			Err(err).
			Msg("Generation finished")
		a.reportGeneration(site, outcome, err)
	}()
}

func (a *app) reportGeneration(site *controller.Controller, outcome controller.Outcome, err error) {
	switch {
	case err != nil && errors.Is(err, generate.ErrEmptyInput):
		a.failure("Type something to generate from")
	case err != nil && errors.Is(err, controller.ErrClosed):
		// shutting down
	case err != nil:
		msg := site.LastError()
		if msg == "" {
			msg = api.ErrorMessage(err, controller.DefaultErrorMessage)
		}
		a.failure("%s", msg)
	case outcome.Cancelled:
		// superseded or cancelled on request; nothing to report
	default:
		a.printResult(outcome.Result)
	}
}

func (a *app) printResult(res generate.Result) {
	colors := a.colors()
	var b strings.Builder
	b.WriteString(colors.Header.Sprint(history.Title(res.Tool)))
	b.WriteString(colors.Muted.Sprintf(" · %s · %s\n", res.Lang, res.Model))
	b.WriteString(colors.Output.Sprint(res.Output))
	b.WriteString("\n")
	switch {
	case !res.CanSave():
		b.WriteString(colors.Muted.Sprint("not stored by the server, cannot be saved"))
	case res.IsSaved:
		b.WriteString(colors.Muted.Sprintf("saved · id %s", res.GenerationID))
	default:
		b.WriteString(colors.Muted.Sprintf("id %s · /save to keep it, /regen for another take", res.GenerationID))
	}
	a.println(b.String())
}
