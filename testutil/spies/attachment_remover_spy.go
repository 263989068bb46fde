package spies

import (
	"context"
	"sync"
)

// AttachmentRemoverSpy records removal requests and can be told to fail.
type AttachmentRemoverSpy struct {
	removed  []string
	failWith error
	mu       sync.Mutex
}

// NewAttachmentRemoverSpy creates an AttachmentRemoverSpy. A non-nil failWith is returned by every call.
func NewAttachmentRemoverSpy(failWith error) *AttachmentRemoverSpy {
	return &AttachmentRemoverSpy{failWith: failWith}
}

// Remove implements attachments.Remover.
func (s *AttachmentRemoverSpy) Remove(_ context.Context, refs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}

	s.removed = append(s.removed, refs...)

	return nil
}

// Removed returns the references removed so far.
func (s *AttachmentRemoverSpy) Removed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.removed...)
}
