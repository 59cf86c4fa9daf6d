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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"captionline/internal/api"
	"captionline/internal/controller"
	apperrors "captionline/internal/errors"
)

var errInterrupted = errors.New("interrupted")

func runBatchMode(ctx context.Context, a *app, in io.Reader, out, errOut io.Writer) int {
	if err := runBatch(ctx, a, in, out); err != nil {
		a.logger.Error().Err(err).Msg("Batch mode failed")
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runBatch generates once per non-blank stdin line with the configured tool
// and language, printing each output on its own. It stops at the first failure.
func runBatch(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	a.logger.Debug().Msg("Running in batch mode")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := watchInterrupts(ctx, func() bool {
		a.canceler.Cancel()
		cancel()
		return true
	})
	defer stop()

	tool, lang := a.current()
	site := a.sites.For(tool)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if ctx.Err() != nil {
			return errInterrupted
		}
		a.logger.Info().Str("user_input", input).Msg("User input received")

		start := time.Now()
		var outcome controller.Outcome
		err := a.runOperation(ctx, func(ctx context.Context) error {
			var err error
			outcome, err = site.Generate(ctx, input, lang)
			return err
		})
		duration := time.Since(start)

		if err != nil {
			a.logger.Error().
				Err(err).
				Str("code", string(apperrors.CodeOf(err))).
				Dur("duration_ms", duration).
				Msg("Generation failed")
			return fmt.Errorf("generation failed: %s", api.ErrorMessage(err, controller.DefaultErrorMessage))
		}
		if outcome.Cancelled {
			return errInterrupted
		}

		a.logger.Info().
			Str("generation_id", outcome.Result.GenerationID).
			Dur("duration_ms", duration).
			Msg("Generation received")
		fmt.Fprintln(out, outcome.Result.Output)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}
