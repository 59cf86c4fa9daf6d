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

package auth

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "captionline/internal/errors"
)

// ErrInvalidInput matches every ValidationError.
var ErrInvalidInput = apperrors.New(apperrors.CodeValidation, "invalid input")

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Name     string `json:"name" validate:"min=3,max=100"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8,max=100"`
}

// Normalize trims the name and trims and lower-cases the email.
func (in RegisterInput) Normalize() RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// Validate normalizes the input and checks it.
func (in RegisterInput) Validate() error {
	return validateStruct(in.Normalize())
}

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8"`
}

// Normalize trims and lower-cases the email.
func (in LoginInput) Normalize() LoginInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// Validate normalizes the input and checks it.
func (in LoginInput) Validate() error {
	return validateStruct(in.Normalize())
}

// FieldError is one rejected field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rejected field of an input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Message returns the message for field, or "".
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// fieldMessages is keyed by struct namespace and validation tag.
var fieldMessages = map[string]string{
	"RegisterInput.Name.min":     "Name must be at least 3 characters",
	"RegisterInput.Name.max":     "Name must be at most 100 characters",
	"RegisterInput.Email.email":  "Invalid email format",
	"RegisterInput.Password.min": "Password must be at least 8 characters",
	"RegisterInput.Password.max": "Password must be at most 100 characters",
	"LoginInput.Email.email":     "Invalid email or format",
	"LoginInput.Password.min":    "Password is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(apperrors.CodeValidation, "invalid input", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.StructNamespace()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
