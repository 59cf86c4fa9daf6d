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

package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"captionline/internal/api"
	"captionline/internal/session"
)

const (
	registerFallback = "Registration failed"
	loginFallback    = "Login failed"
	logoutFallback   = "Logout failed"
	meFallback       = "Failed to load profile"
)

// User is the account returned by GET /auth/me.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Service calls the backend's auth endpoints.
type Service struct {
	sender  api.Sender
	session *session.Session
	logger  zerolog.Logger
}

// NewService creates a Service. Tokens returned by Login are stored in sess.
func NewService(sender api.Sender, sess *session.Session, logger zerolog.Logger) *Service {
	return &Service{sender: sender, session: sess, logger: logger}
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*api.Envelope, error) {
	in = in.Normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	env, err := s.sender.Send(ctx, http.MethodPost, "/auth/register", in)
	if err != nil {
		return nil, api.WithMessage(err, registerFallback)
	}
	s.logger.Info().Str("email", in.Email).Msg("Registered account")
	return env, nil
}

// Login authenticates and keeps the returned token, if any, in the session.
// Cookie-only backends leave the session token empty.
func (s *Service) Login(ctx context.Context, in LoginInput) (*api.Envelope, error) {
	in = in.Normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	env, err := s.sender.Send(ctx, http.MethodPost, "/auth/login", in)
	if err != nil {
		return nil, api.WithMessage(err, loginFallback)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := env.DecodeData(&data); err != nil {
		s.logger.Debug().Err(err).Msg("Login response carried no token object")
	}
	if data.Token != "" {
		s.session.SetToken(data.Token)
	}
	s.logger.Info().Str("email", in.Email).Bool("bearer", data.Token != "").Msg("Logged in")
	return env, nil
}

// Logout ends the session on the backend. The local token is cleared even
// when the call fails.
func (s *Service) Logout(ctx context.Context) error {
	defer s.session.Clear()
	if _, err := s.sender.Send(ctx, http.MethodPost, "/auth/logout", nil); err != nil {
		return api.WithMessage(err, logoutFallback)
	}
	s.logger.Info().Msg("Logged out")
	return nil
}

// Me returns the current user, or nil when the backend returned no user.
func (s *Service) Me(ctx context.Context) (*User, error) {
	env, err := s.sender.Send(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, api.WithMessage(err, meFallback)
	}
	return decodeUser(env.Data), nil
}

// decodeUser reads a user from data, either bare or under a "user" key.
func decodeUser(data json.RawMessage) *User {
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.User != nil && wrapped.User.valid() {
		return wrapped.User
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil || !u.valid() {
		return nil
	}
	return &u
}

func (u *User) valid() bool {
	return u.ID != "" || u.Email != ""
}
