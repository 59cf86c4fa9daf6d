// Package securemem keeps short-lived secrets such as bearer tokens in
// memguard-locked buffers instead of ordinary heap strings.
package securemem

import (
	"github.com/awnumar/memguard"
)

// String is a secret stored in a locked buffer.
type String struct {
	buf     *memguard.LockedBuffer
	invalid bool
}

// NewString moves plaintext into locked memory.
func NewString(plaintext string) *String {
	if plaintext == "" {
		return &String{}
	}
	return &String{
		buf: memguard.NewBufferFromBytes([]byte(plaintext)),
	}
}

// String returns a plaintext copy. The copy lives in regular memory.
func (s *String) String() string {
	if s == nil || s.invalid || s.buf == nil {
		return ""
	}
	return string(s.buf.Bytes())
}

// IsEmpty returns true if the string is empty or destroyed.
func (s *String) IsEmpty() bool {
	if s == nil || s.invalid || s.buf == nil {
		return true
	}
	return s.buf.Size() == 0
}

// Destroy wipes the buffer. The String must not be used afterwards.
func (s *String) Destroy() {
	if s == nil || s.invalid {
		return
	}
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	s.invalid = true
}

// Purge destroys every locked buffer in the process. Call it right before exit.
func Purge() {
	memguard.Purge()
}
