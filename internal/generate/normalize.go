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
	"bytes"
	"encoding/json"
	"strings"
)

// shape is one of the payload variants the backend is known to send.
// classify always returns exactly one of them, and every variant knows how to
// turn itself into a Result, so Normalize cannot fail.
type shape interface {
	result() Result
}

// nestedShape is {"result": {...}}.
type nestedShape struct {
	fields map[string]json.RawMessage
}

// encodedShape is {"result": "<json or plain text>"}.
type encodedShape struct {
	text string
}

// flatShape is a result object sent without the "result" wrapper.
type flatShape struct {
	fields map[string]json.RawMessage
}

// unknownShape is anything else.
type unknownShape struct{}

// Normalize maps a raw generation payload (the envelope's data) onto a Result.
// Missing or malformed fields degrade to defaults.
func Normalize(raw json.RawMessage) Result {
	return classify(raw).result()
}

func classify(raw json.RawMessage) shape {
	obj, ok := asObject(raw)
	if !ok {
		return unknownShape{}
	}

	if inner, ok := obj["result"]; ok {
		if fields, ok := asObject(inner); ok {
			return nestedShape{fields: fields}
		}
		if text, ok := asString(inner); ok {
			return encodedShape{text: text}
		}
	}

	_, hasTool := obj["tool"]
	_, hasOutput := obj["output"]
	if hasTool && hasOutput {
		return flatShape{fields: obj}
	}
	return unknownShape{}
}

func (s nestedShape) result() Result {
	return fromFields(s.fields, "")
}

func (s flatShape) result() Result {
	return fromFields(s.fields, "")
}

func (s encodedShape) result() Result {
	if fields, ok := asObject(json.RawMessage(s.text)); ok {
		return fromFields(fields, s.text)
	}
	r := DefaultResult()
	r.Output = s.text
	return r
}

func (unknownShape) result() Result {
	return DefaultResult()
}

// fromFields builds a Result from a decoded object. outputFallback is used when
// the object carries no usable output.
func fromFields(fields map[string]json.RawMessage, outputFallback string) Result {
	r := DefaultResult()
	if tool := stringField(fields, "tool"); tool != "" {
		r.Tool = Tool(tool)
	}
	if lang := stringField(fields, "lang"); lang != "" {
		r.Lang = Lang(lang)
	}
	if output, ok := outputField(fields["output"]); ok {
		r.Output = output
	} else {
		r.Output = outputFallback
	}
	if model := stringField(fields, "model"); model != "" {
		r.Model = model
	}
	r.GenerationID = stringField(fields, "generationId")
	r.IsSaved = truthy(fields["isSaved"])
	return r
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func asString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// outputField accepts a string or a list of strings (joined by newlines).
func outputField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "\n"), true
	}
	return "", false
}

// truthy follows JavaScript truthiness rules.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case nil:
		return false
	default:
		return true
	}
}
