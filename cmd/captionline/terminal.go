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
	"errors"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"captionline/internal/history"
)

var errPromptCancelled = errors.New("prompt cancelled")

// readlinePrompter asks follow-up questions on the REPL's terminal.
type readlinePrompter struct {
	rl      *readline.Instance
	restore func() string // REPL prompt to put back afterwards
}

func (p *readlinePrompter) ReadLine(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	defer p.rl.SetPrompt(p.restore())

	line, err := p.rl.Readline()
	if err != nil {
		return "", promptError(err)
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads without echo when stdin is a terminal. Piped input has no
// echo to suppress and is read as a plain line.
func (p *readlinePrompter) ReadSecret(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return p.ReadLine(prompt)
	}
	secret, err := p.rl.ReadPassword(prompt)
	if err != nil {
		return "", promptError(err)
	}
	return string(secret), nil
}

func promptError(err error) error {
	if err == readline.ErrInterrupt || errors.Is(err, errPromptCancelled) {
		return errPromptCancelled
	}
	return err
}

// tableChrome is the width the history table uses besides the input column.
const tableChrome = 60

// previewWidth sizes the input column of history tables to the terminal.
func previewWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	return previewWidthFor(width, err == nil)
}

func previewWidthFor(width int, isTerminal bool) int {
	if !isTerminal {
		return history.PreviewLength
	}
	w := width - tableChrome
	if w < 20 {
		w = 20
	}
	if w > history.PreviewLength {
		w = history.PreviewLength
	}
	return w
}
