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

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"captionline/internal/api"
	apperrors "captionline/internal/errors"
	"captionline/internal/generate"
)

// DefaultLimit is the page size used when List is given no limit.
const DefaultLimit = 50

const (
	listFallback   = "Failed to fetch history"
	toggleFallback = "Failed to save"
	savedFallback  = "Failed to fetch saved items"
)

// ErrMissingGenerationID is returned by ToggleSave for a result the backend
// did not identify. No request is made.
var ErrMissingGenerationID = apperrors.New(apperrors.CodeMissingID, "generation id is missing")

// Item is one stored generation.
type Item struct {
	ID         string        `json:"id"`
	Tool       generate.Tool `json:"tool"`
	InputText  string        `json:"inputText"`
	OutputText string        `json:"outputText"`
	IsSaved    bool          `json:"isSaved"`
	CreatedAt  string        `json:"createdAt"`
}

// Created parses CreatedAt.
func (it Item) Created() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ToggleResult is the saved state after a toggle.
type ToggleResult struct {
	ID      string `json:"id"`
	IsSaved bool   `json:"isSaved"`
}

// Service reads generation history and toggles saved items.
type Service struct {
	sender api.Sender
	logger zerolog.Logger
}

// NewService creates a Service.
func NewService(sender api.Sender, logger zerolog.Logger) *Service {
	return &Service{sender: sender, logger: logger}
}

// List returns the most recent generations, newest first as the backend
// orders them. A limit <= 0 uses DefaultLimit.
func (s *Service) List(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	env, err := s.sender.Send(ctx, http.MethodGet, fmt.Sprintf("/history?limit=%d", limit), nil)
	if err != nil {
		return nil, api.WithMessage(err, listFallback)
	}
	items, err := decodeItems(env.Data)
	if err != nil {
		return nil, api.WithMessage(err, listFallback)
	}
	s.logger.Debug().Int("count", len(items)).Int("limit", limit).Msg("Fetched history")
	return items, nil
}

// ToggleSave flips the saved flag of a generation.
func (s *Service) ToggleSave(ctx context.Context, id string) (ToggleResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ToggleResult{}, ErrMissingGenerationID
	}
	env, err := s.sender.Send(ctx, http.MethodPatch, "/"+url.PathEscape(id)+"/toggle-save", nil)
	if err != nil {
		return ToggleResult{}, api.WithMessage(err, toggleFallback)
	}
	res := ToggleResult{ID: id}
	if err := env.DecodeData(&res); err != nil {
		return ToggleResult{}, api.WithMessage(err, toggleFallback)
	}
	if res.ID == "" {
		res.ID = id
	}
	s.logger.Info().Str("generation_id", res.ID).Bool("saved", res.IsSaved).Msg("Toggled saved state")
	return res, nil
}

// Saved returns the saved generations.
func (s *Service) Saved(ctx context.Context) ([]Item, error) {
	env, err := s.sender.Send(ctx, http.MethodGet, "/saved", nil)
	if err != nil {
		return nil, api.WithMessage(err, savedFallback)
	}
	items, err := decodeItems(env.Data)
	if err != nil {
		return nil, api.WithMessage(err, savedFallback)
	}
	return items, nil
}

// decodeItems accepts {"items": [...]} or a bare array.
func decodeItems(data json.RawMessage) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Item{}, nil
	}
	if trimmed[0] == '[' {
		var items []Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var page struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return []Item{}, nil
	}
	return page.Items, nil
}
