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
	"sync"

	apperrors "captionline/internal/errors"
)

// ErrUnauthenticated is returned by Gate.Require when no user is signed in.
var ErrUnauthenticated = apperrors.New(apperrors.CodeUnauthenticated, "not authenticated")

// Status is the gate's view of the session.
type Status int

const (
	StatusChecking Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Profiler fetches the current user. *Service implements it.
type Profiler interface {
	Me(ctx context.Context) (*User, error)
}

// Gate guards commands that need a signed-in user.
type Gate struct {
	profiler Profiler

	mu     sync.RWMutex
	status Status
	user   *User
	epoch  uint64
}

// NewGate creates a gate in the checking state.
func NewGate(p Profiler) *Gate {
	return &Gate{profiler: p, status: StatusChecking}
}

// Check asks the backend who is signed in and settles the status. Any error
// counts as unauthenticated. A SetUser or Reset that happens while the check
// is in flight wins over the check's answer.
func (g *Gate) Check(ctx context.Context) Status {
	g.mu.Lock()
	g.status = StatusChecking
	epoch := g.epoch
	g.mu.Unlock()

	user, err := g.profiler.Me(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if epoch != g.epoch {
		return g.status
	}
	if err != nil || user == nil {
		g.status = StatusUnauthenticated
		g.user = nil
	} else {
		g.status = StatusAuthenticated
		g.user = user
	}
	return g.status
}

// SetUser marks the gate authenticated as u. A nil user resets it.
func (g *Gate) SetUser(u *User) {
	if u == nil {
		g.Reset()
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.epoch++
	g.user = u
	g.status = StatusAuthenticated
}

// Reset marks the gate unauthenticated.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.epoch++
	g.user = nil
	g.status = StatusUnauthenticated
}

// Status returns the current status.
func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// User returns the signed-in user, or nil.
func (g *Gate) User() *User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user
}

// Require returns the signed-in user or ErrUnauthenticated.
func (g *Gate) Require() (*User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.status != StatusAuthenticated || g.user == nil {
		return nil, ErrUnauthenticated
	}
	return g.user, nil
}
