// Package authority implements the activation authority: the networked
// process holding the canonical activation decision for all running
// application instances.
package authority

import (
	"sync"
	"time"
)

// Default messages mirrored by the admin convenience endpoints.
const (
	initialMessage    = "Application is active and licensed"
	activateMessage   = "Application activated by admin"
	deactivateMessage = "Application deactivated by admin"
	updatedMessage    = "Status updated by admin"
)

// Snapshot is an immutable copy of the activation state.
type Snapshot struct {
	Active      bool      `json:"active"`
	Message     string    `json:"message"`
	LastUpdated time.Time `json:"last_updated"`
}

// State is the singleton activation decision. It is owned by the server
// instance that created it; all mutations go through Set, which updates the
// active flag, message, and timestamp as one atomic group.
type State struct {
	mu          sync.Mutex
	active      bool
	message     string
	lastUpdated time.Time
}

// NewState returns a State that starts out active.
func NewState() *State {
	return &State{
		active:      true,
		message:     initialMessage,
		lastUpdated: time.Now().UTC(),
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Active: s.active, Message: s.message, LastUpdated: s.lastUpdated}
}

// Set overwrites the state. The new timestamp is never earlier than the
// previous one, so repeated mutations observe monotonic last_updated values.
func (s *State) Set(active bool, message string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(s.lastUpdated) {
		now = s.lastUpdated
	}
	s.active = active
	s.message = message
	s.lastUpdated = now

	return Snapshot{Active: s.active, Message: s.message, LastUpdated: s.lastUpdated}
}

// Restore replaces the state without advancing the timestamp guard. Used on
// startup to recover the last persisted decision.
func (s *State) Restore(active bool, message string, lastUpdated time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	s.message = message
	if !lastUpdated.IsZero() {
		s.lastUpdated = lastUpdated
	}
}
