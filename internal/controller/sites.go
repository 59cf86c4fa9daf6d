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
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"captionline/internal/generate"
)

// Sites keeps one controller per tool.
type Sites struct {
	gen    Generator
	logger zerolog.Logger

	mu     sync.Mutex
	sites  map[generate.Tool]*Controller
	closed bool
}

// NewSites creates an empty registry backed by gen.
func NewSites(gen Generator, logger zerolog.Logger) *Sites {
	return &Sites{
		gen:    gen,
		logger: logger,
		sites:  make(map[generate.Tool]*Controller),
	}
}

// For returns the controller for tool, creating it on first use.
func (s *Sites) For(tool generate.Tool) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.sites[tool]; ok {
		return c
	}
	c := New(tool, s.gen, s.logger)
	if s.closed {
		c.Close()
	}
	s.sites[tool] = c
	return c
}

// CancelAll aborts pending generations on every site.
func (s *Sites) CancelAll() int {
	cancelled := 0
	for _, c := range s.snapshot() {
		if c.Cancel() {
			cancelled++
		}
	}
	return cancelled
}

// Tools returns the tools that have a site, sorted by name.
func (s *Sites) Tools() []generate.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tools := make([]generate.Tool, 0, len(s.sites))
	for tool := range s.sites {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i] < tools[j] })
	return tools
}

// Close tears down every site.
func (s *Sites) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	for _, c := range s.snapshot() {
		c.Close()
	}
}

func (s *Sites) snapshot() []*Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Controller, 0, len(s.sites))
	for _, c := range s.sites {
		out = append(out, c)
	}
	return out
}
