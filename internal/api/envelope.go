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

package api

import (
	"bytes"
	"encoding/json"
)

// Status values used by the backend envelope.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the backend's uniform wrapper around every response payload.
type Envelope struct {
	Code    int             `json:"code,omitempty"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// DecodeData unmarshals the envelope's data into out. Empty data is not an error.
func (e *Envelope) DecodeData(out any) error {
	if e == nil || len(e.Data) == 0 || bytes.Equal(bytes.TrimSpace(e.Data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

var envelopeKeys = []string{"status", "message", "error", "data"}

// decodeEnvelope reads a response body. Bodies that are not shaped like an
// envelope are kept whole in Data so callers still see the payload.
func decodeEnvelope(body []byte) *Envelope {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Envelope{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return &Envelope{Data: json.RawMessage(trimmed)}
	}

	isEnvelope := false
	for _, key := range envelopeKeys {
		if _, ok := fields[key]; ok {
			isEnvelope = true
			break
		}
	}
	if !isEnvelope {
		return &Envelope{Data: json.RawMessage(trimmed)}
	}

	env := &Envelope{Data: fields["data"]}
	_ = json.Unmarshal(fields["status"], &env.Status)
	_ = json.Unmarshal(fields["code"], &env.Code)
	if err := json.Unmarshal(fields["message"], &env.Message); err != nil || env.Message == "" {
		// some error responses only carry an "error" field
		_ = json.Unmarshal(fields["error"], &env.Message)
	}
	return env
}
