package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessageFormatting(t *testing.T) {
	base := stderrors.New("connection reset")
	err := Wrap(CodeNetwork, "request failed", base)

	if err.Error() != "request failed: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !stderrors.Is(err, base) {
		t.Error("errors.Is should unwrap to base error")
	}

	bare := &Error{Code: CodeCancelled}
	if bare.Error() != "cancelled" {
		t.Errorf("expected code as message, got %q", bare.Error())
	}
}

func TestSentinelMatchesThroughWrapping(t *testing.T) {
	sentinel := New(CodeEmptyInput, "input must not be empty")
	wrapped := fmt.Errorf("generate: %w", sentinel)

	if !stderrors.Is(wrapped, sentinel) {
		t.Fatal("expected wrapped sentinel to match")
	}
	if stderrors.Is(wrapped, New(CodeEmptyInput, "other text")) {
		t.Fatal("expected different message not to match")
	}
	if CodeOf(wrapped) != CodeEmptyInput {
		t.Fatalf("expected code %s, got %s", CodeEmptyInput, CodeOf(wrapped))
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Fatal("expected empty code for plain errors")
	}
}

type transportError struct{}

func (transportError) Error() string   { return "connection refused" }
func (transportError) ErrorCode() Code { return CodeNetwork }

func TestCodeOfFindsCoders(t *testing.T) {
	err := fmt.Errorf("list history: %w", transportError{})
	if CodeOf(err) != CodeNetwork {
		t.Fatalf("expected %s, got %s", CodeNetwork, CodeOf(err))
	}

	outer := Wrap(CodeConfig, "bad config", transportError{})
	if CodeOf(outer) != CodeConfig {
		t.Fatalf("expected outermost code %s, got %s", CodeConfig, CodeOf(outer))
	}
}
