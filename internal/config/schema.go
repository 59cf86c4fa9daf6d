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
	"sort"
)

// SchemaJSON returns the JSON schema for config.json.
func SchemaJSON() string {
	return configSchemaJSON
}

// ExampleConfigJSON returns a minimal example config derived from the schema.
func ExampleConfigJSON() string {
	return exampleConfigJSON
}

func normalizeConfigJSON(data []byte) ([]byte, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	migrateLegacyConfig(raw)
	if err := validateConfigMap(raw, ""); err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// migrateLegacyConfig renames keys written by older releases.
func migrateLegacyConfig(raw map[string]interface{}) {
	legacy := []struct{ old, current string }{
		{"base_url", "api_url"},
		{"api_base_url", "api_url"},
		{"language", "lang"},
		{"timeout_seconds", "request_timeout_seconds"},
	}
	for _, key := range legacy {
		old, current := key.old, key.current
		value, ok := raw[old]
		if !ok {
			continue
		}
		if _, exists := raw[current]; !exists {
			raw[current] = value
		}
		delete(raw, old)
	}
}

func validateConfigMap(raw map[string]interface{}, prefix string) error {
	allowed := map[string]func(interface{}) error{
		"api_url": func(v interface{}) error { return validateString(v, prefix+"api_url") },
		"lang":    func(v interface{}) error { return validateString(v, prefix+"lang") },
		"tool":    func(v interface{}) error { return validateString(v, prefix+"tool") },
		"request_timeout_seconds": func(v interface{}) error {
			return validateInteger(v, prefix+"request_timeout_seconds")
		},
		"history_limit": func(v interface{}) error {
			return validateInteger(v, prefix+"history_limit")
		},
		"command_history_file": func(v interface{}) error {
			return validateString(v, prefix+"command_history_file")
		},
		"theme_file": func(v interface{}) error {
			return validateString(v, prefix+"theme_file")
		},
	}
	return validateSection(raw, allowed, prefix)
}

func validateSection(section map[string]interface{}, allowed map[string]func(interface{}) error, prefix string) error {
	keys := make([]string, 0, len(section))
	for key := range section {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		validator, ok := allowed[key]
		if !ok {
			return fmt.Errorf("unknown configuration field %q", prefix+key)
		}
		if err := validator(section[key]); err != nil {
			return err
		}
	}
	return nil
}

func validateString(value interface{}, name string) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("%s must be a string", name)
	}
	return nil
}

func validateInteger(value interface{}, name string) error {
	n, ok := value.(float64)
	if !ok {
		return fmt.Errorf("%s must be a number", name)
	}
	if n != float64(int64(n)) {
		return fmt.Errorf("%s must be a whole number", name)
	}
	return nil
}

const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Captionline Config",
  "type": "object",
  "required": ["api_url"],
  "additionalProperties": false,
  "properties": {
    "api_url": { "type": "string", "description": "Backend base URL, overridden by CAPTIONLINE_API_URL" },
    "lang": { "type": "string", "enum": ["en", "id"], "default": "en" },
    "tool": { "type": "string", "default": "caption" },
    "request_timeout_seconds": { "type": "integer", "default": 60 },
    "history_limit": { "type": "integer", "default": 50 },
    "command_history_file": { "type": "string", "default": ".captionline_history" },
    "theme_file": { "type": "string" }
  }
}`

const exampleConfigJSON = `{
  "api_url": "http://localhost:4000/api",
  "lang": "en",
  "tool": "caption",
  "request_timeout_seconds": 60,
  "history_limit": 50
}`
