package scheduler

import (
	"sync"
	"time"
)

// State records when each feed was last run. A feed that never ran is
// always due. Safe for concurrent use.
type State struct {
	mu      sync.Mutex
	lastRun map[string]time.Time
}

// NewState creates an empty State.
func NewState() *State {
	return &State{lastRun: make(map[string]time.Time)}
}

// Claim reports whether the feed at url is due at now given its interval,
// and if so records now as its last run.
func (s *State) Claim(url string, interval time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastRun[url]; ok && now.Sub(last) < interval {
		return false
	}
	s.lastRun[url] = now
	return true
}

// LastRun returns the last run time of url and whether it ever ran.
func (s *State) LastRun(url string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastRun[url]
	return t, ok
}
