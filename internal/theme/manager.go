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

package theme

import (
	"fmt"
	"os"
	"sync"
)

// Manager owns the active theme and honours NO_COLOR and TERM=dumb.
type Manager struct {
	mu          sync.RWMutex
	path        string
	theme       *Theme
	colorScheme *ColorScheme
	noColor     bool
}

// NewManager loads the theme at path. An empty path or a missing file uses
// the default theme.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path, noColor: colorDisabled()}
	if err := m.load(path); err != nil {
		return nil, err
	}
	return m, nil
}

// NewManagerWithTheme creates a manager with a provided theme.
func NewManagerWithTheme(theme *Theme) *Manager {
	m := &Manager{noColor: colorDisabled()}
	m.apply(theme)
	return m
}

func colorDisabled() bool {
	return os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"
}

func (m *Manager) load(path string) error {
	theme := DefaultTheme()
	if path != "" {
		loaded, err := LoadTheme(path)
		if err != nil {
			return fmt.Errorf("failed to load theme: %w", err)
		}
		theme = loaded
	}
	if err := ValidateTheme(theme); err != nil {
		return fmt.Errorf("invalid theme: %w", err)
	}
	m.apply(theme)
	return nil
}

func (m *Manager) apply(theme *Theme) {
	scheme := theme.ToColorScheme()
	if m.noColor {
		scheme = DisabledColorScheme()
	}
	m.mu.Lock()
	m.theme = theme
	m.colorScheme = scheme
	m.mu.Unlock()
}

// ColorScheme returns the current color scheme.
func (m *Manager) ColorScheme() *ColorScheme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.colorScheme
}

// Theme returns the current theme.
func (m *Manager) Theme() *Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// IsColorDisabled reports whether output is uncolored.
func (m *Manager) IsColorDisabled() bool {
	return m.noColor
}

// Path returns the theme file the manager was loaded from.
func (m *Manager) Path() string {
	return m.path
}

// Reload re-reads the theme file. On error the current theme stays active.
func (m *Manager) Reload() error {
	return m.load(m.path)
}
