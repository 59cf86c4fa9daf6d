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

package generate

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "captionline/internal/errors"
)

// ErrEmptyInput is returned before any network call when the input is blank.
var ErrEmptyInput = apperrors.New(apperrors.CodeEmptyInput, "input must not be empty")

// Tool is a generation category. Tools outside the known set are still valid
// and are routed to the generic completions endpoint.
type Tool string

const (
	ToolCaption Tool = "caption"
	ToolHook    Tool = "hook"
	ToolIdea    Tool = "idea"
	ToolHashtag Tool = "hashtag"
)

// DefaultTool is used when a backend payload names no tool.
const DefaultTool = ToolIdea

// KnownTools returns the tools with a dedicated endpoint, in display order.
func KnownTools() []Tool {
	return []Tool{ToolCaption, ToolHook, ToolIdea, ToolHashtag}
}

// Known reports whether t has a dedicated endpoint.
func (t Tool) Known() bool {
	switch t {
	case ToolCaption, ToolHook, ToolIdea, ToolHashtag:
		return true
	}
	return false
}

var toolAliases = map[string]Tool{
	"captions": ToolCaption,
	"hooks":    ToolHook,
	"ideas":    ToolIdea,
	"hashtags": ToolHashtag,
}

var toolNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ParseTool normalizes a tool name typed by the user.
func ParseTool(name string) (Tool, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := toolAliases[normalized]; ok {
		return alias, nil
	}
	if !toolNamePattern.MatchString(normalized) {
		return "", apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid tool name %q", name))
	}
	return Tool(normalized), nil
}

// Lang is an output locale accepted by the backend.
type Lang string

const (
	LangEnglish    Lang = "en"
	LangIndonesian Lang = "id"
)

// DefaultLang is used when a request or payload omits the language.
const DefaultLang = LangEnglish

var langAliases = map[string]Lang{
	"en":               LangEnglish,
	"english":          LangEnglish,
	"id":               LangIndonesian,
	"indonesian":       LangIndonesian,
	"bahasa":           LangIndonesian,
	"bahasa indonesia": LangIndonesian,
}

// ParseLang accepts a locale code or language name.
func ParseLang(name string) (Lang, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if lang, ok := langAliases[normalized]; ok {
		return lang, nil
	}
	return "", apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unsupported language %q (use en or id)", name))
}

// Request is one generation call.
type Request struct {
	Tool  Tool
	Input string
	Lang  Lang
}

// Validate checks the request before dispatch.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Input) == "" {
		return ErrEmptyInput
	}
	return nil
}

// Result is the canonical, fully defaulted generation result.
type Result struct {
	Tool         Tool   `json:"tool"`
	Lang         Lang   `json:"lang"`
	Output       string `json:"output"`
	Model        string `json:"model"`
	GenerationID string `json:"generationId"`
	IsSaved      bool   `json:"isSaved"`
}

// DefaultModel is reported when the backend does not name its model.
const DefaultModel = "unknown"

// DefaultResult returns the all-default result.
func DefaultResult() Result {
	return Result{
		Tool:  DefaultTool,
		Lang:  DefaultLang,
		Model: DefaultModel,
	}
}

// CanSave reports whether the result can be toggled in the saved list.
func (r Result) CanSave() bool {
	return strings.TrimSpace(r.GenerationID) != ""
}
