package service

import (
	"sync"
	"time"
)

// promptSet tracks users whose next text message answers a prompt instead of
// being relayed. It lives in memory only; a restart drops pending prompts.
type promptSet struct {
	mu      sync.RWMutex
	pending map[int64]time.Time
}

func newPromptSet() *promptSet {
	return &promptSet{pending: make(map[int64]time.Time)}
}

func (s *promptSet) Mark(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = time.Now()
}

func (s *promptSet) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
}

func (s *promptSet) Pending(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[userID]
	return ok
}

// Len is used by the admin stats.
func (s *promptSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}
