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

package generate

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"captionline/internal/api"
)

// GenericEndpoint serves tools without a dedicated endpoint.
const GenericEndpoint = "/ai/completions"

var toolEndpoints = map[Tool]string{
	ToolCaption: "/ai/caption",
	ToolHook:    "/ai/hook",
	ToolIdea:    "/ai/ideas",
	ToolHashtag: "/ai/hashtags",
}

// Endpoint returns the path a tool is posted to.
func Endpoint(tool Tool) string {
	if path, ok := toolEndpoints[tool]; ok {
		return path
	}
	return GenericEndpoint
}

type toolBody struct {
	Tool  Tool   `json:"tool,omitempty"`
	Input string `json:"input"`
	Lang  Lang   `json:"lang"`
}

// Invoker turns generation requests into API calls.
type Invoker struct {
	sender api.Sender
	logger zerolog.Logger
}

// NewInvoker creates an invoker on top of an API sender.
func NewInvoker(sender api.Sender, logger zerolog.Logger) *Invoker {
	return &Invoker{sender: sender, logger: logger}
}

// Invoke validates req, posts it to the tool's endpoint and normalizes the
// response. Client errors (*api.NetworkError, *api.HTTPStatusError,
// *api.CancelledError) are returned unchanged.
func (i *Invoker) Invoke(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if req.Lang == "" {
		req.Lang = DefaultLang
	}

	path := Endpoint(req.Tool)
	body := toolBody{Input: req.Input, Lang: req.Lang}
	if path == GenericEndpoint {
		body.Tool = req.Tool
	}

	start := time.Now()
	env, err := i.sender.Send(ctx, http.MethodPost, path, body)
	if err != nil {
		i.logger.Debug().
			Err(err).
			Str("tool", string(req.Tool)).
			Str("endpoint", path).
			Dur("duration_ms", time.Since(start)).
			Msg("Generation failed")
		return Result{}, err
	}

	result := Normalize(env.Data)
	i.logger.Info().
		Str("tool", string(req.Tool)).
		Str("lang", string(req.Lang)).
		Str("endpoint", path).
		Str("model", result.Model).
		Str("generation_id", result.GenerationID).
		Dur("duration_ms", time.Since(start)).
		Msg("Generation completed")
	return result, nil
}

// Caption generates captions for input.
func (i *Invoker) Caption(ctx context.Context, input string, lang Lang) (Result, error) {
	return i.Invoke(ctx, Request{Tool: ToolCaption, Input: input, Lang: lang})
}

// Hook generates opening hooks for input.
func (i *Invoker) Hook(ctx context.Context, input string, lang Lang) (Result, error) {
	return i.Invoke(ctx, Request{Tool: ToolHook, Input: input, Lang: lang})
}

// Ideas generates content ideas for input.
func (i *Invoker) Ideas(ctx context.Context, input string, lang Lang) (Result, error) {
	return i.Invoke(ctx, Request{Tool: ToolIdea, Input: input, Lang: lang})
}

// Hashtags generates hashtags for input.
func (i *Invoker) Hashtags(ctx context.Context, input string, lang Lang) (Result, error) {
	return i.Invoke(ctx, Request{Tool: ToolHashtag, Input: input, Lang: lang})
}
