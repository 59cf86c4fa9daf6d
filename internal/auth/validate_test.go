package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestRegisterInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      RegisterInput
		field   string
		message string
	}{
		{
			name:    "short name",
			in:      RegisterInput{Name: "  al ", Email: "a@b.io", Password: "password1"},
			field:   "name",
			message: "Name must be at least 3 characters",
		},
		{
			name:    "long name",
			in:      RegisterInput{Name: strings.Repeat("n", 101), Email: "a@b.io", Password: "password1"},
			field:   "name",
			message: "Name must be at most 100 characters",
		},
		{
			name:    "bad email",
			in:      RegisterInput{Name: "Alice", Email: "not-an-email", Password: "password1"},
			field:   "email",
			message: "Invalid email format",
		},
		{
			name:    "short password",
			in:      RegisterInput{Name: "Alice", Email: "a@b.io", Password: "short"},
			field:   "password",
			message: "Password must be at least 8 characters",
		},
		{
			name:    "long password",
			in:      RegisterInput{Name: "Alice", Email: "a@b.io", Password: strings.Repeat("p", 101)},
			field:   "password",
			message: "Password must be at most 100 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if got := verr.Message(tt.field); got != tt.message {
				t.Fatalf("expected %q for %s, got %q", tt.message, tt.field, got)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatal("expected error to match ErrInvalidInput")
			}
		})
	}
}

func TestRegisterInputNormalize(t *testing.T) {
	in := RegisterInput{Name: "  Alice  ", Email: "  Alice@Example.COM ", Password: " secret pw "}.Normalize()
	if in.Name != "Alice" || in.Email != "alice@example.com" {
		t.Fatalf("unexpected normalized input %+v", in)
	}
	if in.Password != " secret pw " {
		t.Fatal("password must not be trimmed")
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestLoginInputValidate(t *testing.T) {
	err := LoginInput{Email: "nope", Password: ""}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message("email") != "Invalid email or format" {
		t.Fatalf("unexpected email message %q", verr.Message("email"))
	}
	if verr.Message("password") != "Password is required" {
		t.Fatalf("unexpected password message %q", verr.Message("password"))
	}
	if err.Error() != "Invalid email or format; Password is required" {
		t.Fatalf("unexpected joined message %q", err.Error())
	}

	if err := (LoginInput{Email: " USER@example.com", Password: "password1"}).Validate(); err != nil {
		t.Fatalf("expected valid login, got %v", err)
	}
}
