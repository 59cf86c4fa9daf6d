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
	"context"
	"errors"
	"fmt"

	apperrors "captionline/internal/errors"
)

// NetworkError is returned when the request never produced an HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) ErrorCode() apperrors.Code {
	return apperrors.CodeNetwork
}

// HTTPStatusError is returned for any non-2xx response. Message carries the
// envelope's message (or error) field when the body could be decoded.
type HTTPStatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.StatusCode)
}

func (e *HTTPStatusError) ErrorCode() apperrors.Code {
	return apperrors.CodeHTTPStatus
}

// CancelledError is returned when the caller's context fired before the
// response could be applied.
type CancelledError struct {
	Method string
	Path   string
	Err    error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("request %s %s cancelled: %v", e.Method, e.Path, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

func (e *CancelledError) ErrorCode() apperrors.Code {
	return apperrors.CodeCancelled
}

// IsCancelled reports whether err represents an intentionally cancelled request.
func IsCancelled(err error) bool {
	var cancelled *CancelledError
	if errors.As(err, &cancelled) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// ErrorMessage derives the user-facing text for err. Cancelled requests have
// no message.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if IsCancelled(err) {
		return ""
	}
	var status *HTTPStatusError
	if errors.As(err, &status) {
		if status.Message != "" {
			return status.Message
		}
		return fallback
	}
	var network *NetworkError
	if errors.As(err, &network) {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// MessageError presents a failed call by its user-facing message while
// keeping the underlying error reachable through errors.As.
type MessageError struct {
	Message string
	Err     error
}

func (e *MessageError) Error() string {
	return e.Message
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// WithMessage wraps err so its text is the message ErrorMessage would show.
// Cancelled errors are returned unchanged.
func WithMessage(err error, fallback string) error {
	if err == nil {
		return nil
	}
	msg := ErrorMessage(err, fallback)
	if msg == "" {
		return err
	}
	return &MessageError{Message: msg, Err: err}
}
