package trigger

import (
	"context"
	"sync"
)

// Slot names
const (
	SlotWorkflows  = "workflows"
	SlotStatus     = "status"
	SlotCIMaterial = "ci-material"
	SlotCDMaterial = "cd-material"
)

// Slot serializes the requests of one logical fetch. Beginning a request
// cancels the previous one, and only the response of the latest request is applied.
type Slot struct {
	name   string
	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
}

// NewSlot returns an idle slot.
func NewSlot(name string) *Slot {
	return &Slot{name: name}
}

// Name returns the slot name.
func (s *Slot) Name() string {
	return s.name
}

// Begin cancels the pending request and returns the context and the token of a new one.
func (s *Slot) Begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.token++
	return ctx, s.token
}

// IsLatest returns true if no request began after the one holding token.
func (s *Slot) IsLatest(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token == s.token
}

// Apply runs fn if token is still the latest. The slot is not locked while fn runs:
// callers needing atomicity check IsLatest under their own lock.
func (s *Slot) Apply(token uint64, fn func()) bool {
	if !s.IsLatest(token) {
		return false
	}
	fn()
	return true
}

// End releases the context of the request holding token, if still the latest.
func (s *Slot) End(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == s.token && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Abort cancels the pending request. Its response will not be applied.
func (s *Slot) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
}
