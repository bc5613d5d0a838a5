// Package session owns all transient conversational state: add-workflow
// sessions keyed by user and pagination sessions keyed by rendered message.
// The two keyspaces are separate typed maps, so workflow and pagination keys
// cannot collide. Nothing here survives a restart.
package session

import (
	"sync"
	"time"

	"github.com/m3rciful/scriptsbot/internal/domain"
)

// AddState names a stage of the add workflow.
type AddState string

const (
	// StateName waits for the script name.
	StateName AddState = "awaiting_name"
	// StateDescription waits for the script description.
	StateDescription AddState = "awaiting_description"
	// StateLink waits for the destination link.
	StateLink AddState = "awaiting_link"
	// StateConfirm waits for the confirm/cancel button press.
	StateConfirm AddState = "awaiting_confirmation"
)

// AddSession tracks one admin's progress through the add workflow.
type AddSession struct {
	State   AddState
	Draft   domain.Draft
	ChatID  int64
	Touched time.Time
}

// PageKey identifies the pagination session of a single rendered listing.
type PageKey struct {
	ChatID    int64
	MessageID int
}

// PageSession snapshots a result set for paged browsing of one listing.
type PageSession struct {
	Scripts  []domain.Script
	Page     int
	PageSize int
	Created  time.Time
}

// Store is the in-memory session store. Handlers run on separate goroutines,
// so access is mutex guarded; there is deliberately no check-and-set, the
// last write wins.
type Store struct {
	mu    sync.RWMutex
	adds  map[int64]AddSession
	pages map[PageKey]PageSession
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		adds:  make(map[int64]AddSession),
		pages: make(map[PageKey]PageSession),
		now:   time.Now,
	}
}

// GetAdd returns the add session for a user, if any.
func (s *Store) GetAdd(userID int64) (AddSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.adds[userID]
	return sess, ok
}

// SetAdd stores the add session for a user and refreshes its touch time.
func (s *Store) SetAdd(userID int64, sess AddSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Touched = s.now()
	s.adds[userID] = sess
}

// DeleteAdd removes a user's add session and reports whether one existed.
func (s *Store) DeleteAdd(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.adds[userID]
	delete(s.adds, userID)
	return ok
}

// GetPage returns the pagination session bound to a rendered listing.
func (s *Store) GetPage(key PageKey) (PageSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.pages[key]
	return sess, ok
}

// SetPage stores the pagination session for a rendered listing.
func (s *Store) SetPage(key PageKey, sess PageSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.Created.IsZero() {
		sess.Created = s.now()
	}
	s.pages[key] = sess
}

// DeletePage removes a pagination session.
func (s *Store) DeletePage(key PageKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, key)
}

// SweepAdds deletes add sessions untouched for longer than maxAge and
// returns how many were removed. Pagination sessions are never swept; they
// are bounded only by process lifetime (known leak, documented trade-off).
func (s *Store) SweepAdds(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for userID, sess := range s.adds {
		if now.Sub(sess.Touched) > maxAge {
			delete(s.adds, userID)
			removed++
		}
	}
	return removed
}

// Counts reports the number of live add and pagination sessions.
func (s *Store) Counts() (adds, pages int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.adds), len(s.pages)
}
