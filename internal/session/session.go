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

package session

import (
	"strings"
	"sync"

	"captionline/internal/securemem"
)

// Session holds the bearer token shared by every API request.
//
// The token is written by the login/logout flow and read by the HTTP client
// before each request. Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	token *securemem.String
}

// New returns a session, optionally seeded with a token (e.g. from env).
func New(token string) *Session {
	s := &Session{}
	s.SetToken(token)
	return s
}

// SetToken replaces the stored token. An empty token clears the session.
func (s *Session) SetToken(token string) {
	token = strings.TrimSpace(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != nil {
		s.token.Destroy()
		s.token = nil
	}
	if token != "" {
		s.token = securemem.NewString(token)
	}
}

// Clear wipes the stored token.
func (s *Session) Clear() {
	s.SetToken("")
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.token.IsEmpty()
}

// Authorization returns the Authorization header value, if any.
func (s *Session) Authorization() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token.IsEmpty() {
		return "", false
	}
	return "Bearer " + s.token.String(), true
}
