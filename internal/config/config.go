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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "captionline/internal/errors"
	"captionline/internal/generate"
	"captionline/internal/paths"
)

const (
	defaultLang                  = "en"
	defaultTool                  = "caption"
	defaultRequestTimeoutSeconds = 60
	defaultHistoryLimit          = 50
	defaultCommandHistoryFile    = ".captionline_history"
)

// Environment variables read by LoadConfig.
const (
	EnvAPIURL       = "CAPTIONLINE_API_URL"
	EnvLegacyAPIURL = "API_BASE_URL"
	EnvToken        = "CAPTIONLINE_TOKEN"
)

// Config represents the application configuration
type Config struct {
	APIURL                string `json:"api_url"`
	Lang                  string `json:"lang,omitempty"`
	Tool                  string `json:"tool,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
	HistoryLimit          int    `json:"history_limit,omitempty"`
	CommandHistoryFile    string `json:"command_history_file,omitempty"`
	ThemeFile             string `json:"theme_file,omitempty"`

	// Token is only read from the environment, never from the file.
	Token string `json:"-"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Lang:                  defaultLang,
		Tool:                  defaultTool,
		RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		HistoryLimit:          defaultHistoryLimit,
		CommandHistoryFile:    defaultCommandHistoryFile,
	}
}

// LoadConfig loads configuration from a JSON file, applies env overrides, and validates required fields.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	// If config file exists, load it
	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "failed to read "+filepath, err)
		}
		normalized, err := normalizeConfigJSON(data)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "invalid "+filepath, err)
		}
		if err := json.Unmarshal(normalized, config); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "invalid "+filepath, err)
		}
	}

	// Env overrides (apply regardless of whether config file exists)
	if val := os.Getenv(EnvAPIURL); val != "" {
		config.APIURL = val
	} else if val := os.Getenv(EnvLegacyAPIURL); val != "" {
		config.APIURL = val
	}
	config.Token = strings.TrimSpace(os.Getenv(EnvToken))

	// Set defaults for any missing values
	config.APIURL = strings.TrimSpace(config.APIURL)
	if config.Lang == "" {
		config.Lang = defaultLang
	}
	if config.Tool == "" {
		config.Tool = defaultTool
	}
	if config.CommandHistoryFile == "" {
		config.CommandHistoryFile = defaultCommandHistoryFile
	}

	// Validation
	if config.APIURL == "" {
		return nil, apperrors.New(apperrors.CodeConfig,
			fmt.Sprintf("API URL is required (set api_url in config.json or %s)", EnvAPIURL))
	}

	return config, nil
}

// RequestTimeout returns the per-request timeout, falling back to the default
// for non-positive values.
func (c *Config) RequestTimeout() time.Duration {
	seconds := c.RequestTimeoutSeconds
	if seconds <= 0 {
		seconds = defaultRequestTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// HistoryPageSize returns the history limit, falling back to the default for
// non-positive values.
func (c *Config) HistoryPageSize() int {
	if c.HistoryLimit <= 0 {
		return defaultHistoryLimit
	}
	return c.HistoryLimit
}

// DefaultTool returns the configured starting tool, or caption when the
// configured name is invalid.
func (c *Config) DefaultTool() generate.Tool {
	tool, err := generate.ParseTool(c.Tool)
	if err != nil {
		return generate.ToolCaption
	}
	return tool
}

// DefaultLang returns the configured starting language, or English when the
// configured value is unknown.
func (c *Config) DefaultLang() generate.Lang {
	lang, err := generate.ParseLang(c.Lang)
	if err != nil {
		return generate.DefaultLang
	}
	return lang
}

// ResolvePaths makes the command history and theme file paths relative to
// baseDir, normally the directory holding the config file.
func (c *Config) ResolvePaths(baseDir string) error {
	history, err := paths.Resolve(c.CommandHistoryFile, baseDir)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfig, "invalid command_history_file", err)
	}
	c.CommandHistoryFile = history

	if c.ThemeFile != "" {
		themeFile, err := paths.Resolve(c.ThemeFile, baseDir)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeConfig, "invalid theme_file", err)
		}
		c.ThemeFile = themeFile
	}
	return nil
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate() []ValidationWarning {
	var warnings []ValidationWarning

	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		warnings = append(warnings, ValidationWarning{
			Field:   "api_url",
			Message: fmt.Sprintf("api_url %q should start with http:// or https://", c.APIURL),
		})
	}

	if _, err := generate.ParseLang(c.Lang); err != nil {
		warnings = append(warnings, ValidationWarning{
			Field:   "lang",
			Message: fmt.Sprintf("lang %q is not supported, using %s", c.Lang, generate.DefaultLang),
		})
	}

	if tool, err := generate.ParseTool(c.Tool); err != nil {
		warnings = append(warnings, ValidationWarning{
			Field:   "tool",
			Message: fmt.Sprintf("tool %q is not a valid tool name, using %s", c.Tool, generate.ToolCaption),
		})
	} else if !tool.Known() {
		warnings = append(warnings, ValidationWarning{
			Field:   "tool",
			Message: fmt.Sprintf("tool %q has no dedicated endpoint, the generic one will be used", c.Tool),
		})
	}

	if c.RequestTimeoutSeconds <= 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "request_timeout_seconds",
			Message: fmt.Sprintf("request_timeout_seconds %d should be positive, using default", c.RequestTimeoutSeconds),
		})
	}

	if c.HistoryLimit <= 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "history_limit",
			Message: fmt.Sprintf("history_limit %d should be positive, using default", c.HistoryLimit),
		})
	}

	return warnings
}
