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

package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "captionline/internal/errors"
)

// ErrQuit is returned by handlers that end the session.
var ErrQuit = errors.New("quit")

// Handler represents a command handler function
type Handler func(ctx context.Context, args []string) error

// Command represents a slash command
type Command struct {
	Name        string
	Usage       string
	Description string
	// Public commands run without a signed-in user.
	Public  bool
	Handler Handler
}

// UnknownCommandError is returned for names that are not registered.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("Unknown command: /%s (type /help for available commands)", e.Name)
}

// Registry holds all available commands
type Registry struct {
	commands  map[string]*Command
	order     []string
	authorize func() error
}

// NewRegistry creates a registry. authorize is consulted before every
// non-public command; a nil authorize lets everything through.
func NewRegistry(authorize func() error) *Registry {
	return &Registry{
		commands:  make(map[string]*Command),
		authorize: authorize,
	}
}

// Register adds a new command to the registry, replacing one with the same name.
func (r *Registry) Register(cmd Command) {
	cmd.Name = strings.ToLower(cmd.Name)
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	c := cmd
	r.commands[cmd.Name] = &c
}

// Parse splits a slash command line into its name and arguments.
func Parse(line string) (name string, args []string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// IsCommand reports whether line is a slash command.
func IsCommand(line string) bool {
	_, _, ok := Parse(line)
	return ok
}

// Execute runs the command named by line.
func (r *Registry) Execute(ctx context.Context, line string) error {
	name, args, ok := Parse(line)
	if !ok {
		return &UnknownCommandError{Name: strings.TrimPrefix(strings.TrimSpace(line), "/")}
	}
	cmd, exists := r.commands[name]
	if !exists {
		return &UnknownCommandError{Name: name}
	}
	if !cmd.Public && r.authorize != nil {
		if err := r.authorize(); err != nil {
			return apperrors.Wrap(apperrors.CodeUnauthenticated, "Please /login first", err)
		}
	}
	return cmd.Handler(ctx, args)
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns the commands in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// Names returns the sorted command names, for completion.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}
