// Package ratelimit implements a per-client sliding window limiter. The
// window is kept in process memory: admission decisions must not depend
// on an external cache being reachable.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow admits up to limit requests per client within a rolling
// window. Stale entries are pruned lazily on each admission check.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	mu     sync.Mutex
	stamps []time.Time
}

// NewSlidingWindow creates a limiter. A non-positive limit or window
// falls back to 100 requests per 60 seconds.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	return &SlidingWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
	}
}

// Allow records and admits the request if the client is under its limit.
// A rejected request is not recorded and does not extend the window.
func (s *SlidingWindow) Allow(clientID string) bool {
	cw := s.clientFor(clientID)

	now := s.now()
	cutoff := now.Add(-s.window)

	cw.mu.Lock()
	defer cw.mu.Unlock()

	// prune expired stamps; they are ordered oldest first
	i := 0
	for i < len(cw.stamps) && !cw.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		cw.stamps = append(cw.stamps[:0], cw.stamps[i:]...)
	}

	if len(cw.stamps) >= s.limit {
		return false
	}
	cw.stamps = append(cw.stamps, now)
	return true
}

// Remaining reports how many requests the client may still make.
func (s *SlidingWindow) Remaining(clientID string) int {
	cw := s.clientFor(clientID)

	cutoff := s.now().Add(-s.window)

	cw.mu.Lock()
	defer cw.mu.Unlock()

	active := 0
	for _, stamp := range cw.stamps {
		if stamp.After(cutoff) {
			active++
		}
	}
	if active >= s.limit {
		return 0
	}
	return s.limit - active
}

// Reset drops the client's window, restoring its full budget.
func (s *SlidingWindow) Reset(clientID string) {
	s.mu.Lock()
	delete(s.clients, clientID)
	s.mu.Unlock()
}

func (s *SlidingWindow) clientFor(clientID string) *clientWindow {
	s.mu.RLock()
	cw, ok := s.clients[clientID]
	s.mu.RUnlock()
	if ok {
		return cw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cw, ok = s.clients[clientID]; ok {
		return cw
	}
	cw = &clientWindow{}
	s.clients[clientID] = cw
	return cw
}
