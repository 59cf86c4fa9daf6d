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

package controller

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"captionline/internal/api"
	apperrors "captionline/internal/errors"
	"captionline/internal/generate"
)

// DefaultErrorMessage is shown when a failed generation carries no message.
const DefaultErrorMessage = "Failed to generate output"

// ErrClosed is returned by a controller after Close.
var ErrClosed = apperrors.New(apperrors.CodeCancelled, "generation site closed")

// State is the lifecycle of the most recent generation at a site.
type State int

const (
	StateIdle State = iota
	StatePending
	StateResolved
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Generator produces results for requests. *generate.Invoker implements it.
type Generator interface {
	Invoke(ctx context.Context, req generate.Request) (generate.Result, error)
}

// Outcome describes how a Generate call ended when it did not fail.
// Cancelled outcomes carry no result and are not errors: they mean the call
// was superseded, cancelled by the user, or the site was closed.
type Outcome struct {
	Result    generate.Result
	Cancelled bool
}

// Controller owns the in-flight generation of one tool site.
//
// At most one generation is pending per controller. Starting another cancels
// the pending one, and a result that arrives for a superseded generation is
// dropped, so results are never applied out of order.
type Controller struct {
	tool   generate.Tool
	gen    Generator
	logger zerolog.Logger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	state   State
	last    *generate.Request
	current *generate.Result
	lastErr string
	closed  bool
}

// New creates a controller for tool.
func New(tool generate.Tool, gen Generator, logger zerolog.Logger) *Controller {
	return &Controller{
		tool:   tool,
		gen:    gen,
		logger: logger.With().Str("tool", string(tool)).Logger(),
	}
}

// Tool returns the tool this site generates for.
func (c *Controller) Tool() generate.Tool {
	return c.tool
}

// Generate starts a generation from the given form values.
func (c *Controller) Generate(ctx context.Context, input string, lang generate.Lang) (Outcome, error) {
	return c.run(ctx, generate.Request{Tool: c.tool, Input: input, Lang: lang})
}

// Regenerate replays the last successfully submitted request. Without one it
// behaves like Generate with the current form values.
func (c *Controller) Regenerate(ctx context.Context, formInput string, formLang generate.Lang) (Outcome, error) {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()

	if last == nil {
		return c.Generate(ctx, formInput, formLang)
	}
	c.logger.Debug().Msg("Regenerating last request")
	return c.run(ctx, *last)
}

func (c *Controller) run(ctx context.Context, req generate.Request) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	if req.Lang == "" {
		req.Lang = generate.DefaultLang
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
		c.logger.Debug().Uint64("generation", c.seq).Msg("Superseding pending generation")
	}
	c.seq++
	id := c.seq
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StatePending
	c.mu.Unlock()

	result, err := c.gen.Invoke(runCtx, req)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.seq || c.closed {
		// A newer generation owns the site, or the site is gone.
		return Outcome{Cancelled: true}, nil
	}
	c.cancel = nil

	switch {
	case err == nil:
		c.state = StateResolved
		c.current = &result
		c.last = &req
		c.lastErr = ""
		return Outcome{Result: result}, nil
	case api.IsCancelled(err):
		c.state = StateCancelled
		c.logger.Debug().Uint64("generation", id).Msg("Generation cancelled")
		return Outcome{Cancelled: true}, nil
	default:
		c.state = StateFailed
		c.lastErr = api.ErrorMessage(err, DefaultErrorMessage)
		c.logger.Warn().Err(err).Uint64("generation", id).Msg("Generation failed")
		return Outcome{}, err
	}
}

// Cancel aborts the pending generation, if any.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Close cancels pending work and rejects later calls.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateIdle
}

// State returns the state of the most recent generation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the result currently shown for this site.
func (c *Controller) Current() (generate.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return generate.Result{}, false
	}
	return *c.current, true
}

// LastRequest returns the last successfully submitted request.
func (c *Controller) LastRequest() (generate.Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return generate.Request{}, false
	}
	return *c.last, true
}

// LastError returns the user-facing message of the last failure, or "".
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// MarkSaved updates the saved flag of the current result after a toggle.
func (c *Controller) MarkSaved(generationID string, saved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.GenerationID == generationID {
		c.current.IsSaved = saved
	}
}
