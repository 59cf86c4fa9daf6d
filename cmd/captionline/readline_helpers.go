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
	"io"
	"strings"
	"unicode"

	"github.com/chzyer/readline"

	"captionline/internal/commands"
	"captionline/internal/generate"
)

type readlineAction int

const (
	readlineContinue readlineAction = iota
	readlineExit
	readlineUnhandled
)

func classifyReadlineError(line string, err error) readlineAction {
	switch {
	case err == nil:
		return readlineUnhandled
	case err == readline.ErrInterrupt:
		return readlineContinue
	case err == io.EOF:
		if strings.TrimSpace(line) == "" {
			return readlineExit
		}
		return readlineContinue
	default:
		return readlineUnhandled
	}
}

// sanitizeInputLine replaces control characters left by pasted text with spaces.
func sanitizeInputLine(line string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, line)
}

func promptFor(tool generate.Tool) string {
	return string(tool) + " ❯ "
}

// newCompleter completes command names, tool names and languages.
func newCompleter(r *commands.Registry) *readline.PrefixCompleter {
	names := r.Names()
	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		var children []readline.PrefixCompleterInterface
		switch name {
		case "tool":
			for _, tool := range generate.KnownTools() {
				children = append(children, readline.PcItem(string(tool)))
			}
		case "lang":
			children = append(children,
				readline.PcItem(string(generate.LangEnglish)),
				readline.PcItem(string(generate.LangIndonesian)))
		}
		items = append(items, readline.PcItem("/"+name, children...))
	}
	return readline.NewPrefixCompleter(items...)
}
