package realtime

import (
	"sync"
	"time"

	"labfry/internal/domain/entity"

	"github.com/google/uuid"
)

// Entry is the identity behind one authenticated connection.
type Entry struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Role      entity.Role
	JoinedAt  time.Time
}

// Tracker owns the connection-to-identity mapping. All access goes through
// its methods; the map itself is never shared. Presence is process-local:
// nothing here survives a restart or spans multiple instances.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewTracker is the constructor for Tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]Entry)}
}

// Add records the identity behind a connection.
func (t *Tracker) Add(connID string, entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[connID] = entry
}

// Remove drops a connection. Removing an unknown connection is a no-op.
func (t *Tracker) Remove(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, connID)
}

// Get returns the identity behind a connection, if authenticated.
func (t *Tracker) Get(connID string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[connID]

	return entry, ok
}

// List returns a snapshot of every authenticated connection's identity.
func (t *Tracker) List() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		entries = append(entries, entry)
	}

	return entries
}

// ConnIDsForUser returns the connections currently held by a user. A user
// with several tabs open appears once per connection.
func (t *Tracker) ConnIDsForUser(userID uuid.UUID) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []string
	for connID, entry := range t.entries {
		if entry.UserID == userID {
			ids = append(ids, connID)
		}
	}

	return ids
}

// IsOnline reports whether a user has at least one authenticated connection.
func (t *Tracker) IsOnline(userID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, entry := range t.entries {
		if entry.UserID == userID {
			return true
		}
	}

	return false
}

// Count returns the number of authenticated connections.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}
