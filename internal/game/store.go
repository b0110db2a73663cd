package game

import (
	"sort"
	"sync"
	"time"
)

// entry is the unit of mutual exclusion: one per session code.
type entry struct {
	mu       sync.Mutex
	session  *GameSession
	ledger   *Ledger
	removed  bool
	revealed map[int]bool
	timers   sessionTimers
}

func newEntry(session *GameSession) *entry {
	return &entry{
		session:  session,
		ledger:   newLedger(),
		revealed: make(map[int]bool),
		timers:   newSessionTimers(),
	}
}

// Store is the in-process registry of live sessions and the only authority on
// whether a session exists. The registry lock guards map membership only; each
// session is serialized by its own entry lock so sessions never block each other.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

// insert registers a new session. onInsert runs under the new session's lock,
// before any other operation on the code can observe it.
func (s *Store) insert(session *GameSession, onInsert func(e *entry)) error {
	e := newEntry(session)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	if _, exists := s.entries[session.Code]; exists {
		s.mu.Unlock()
		return errCodeTaken
	}
	s.entries[session.Code] = e
	s.mu.Unlock()

	if onInsert != nil {
		onInsert(e)
	}
	return nil
}

func (s *Store) lookup(code string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[code]
	return e, ok
}

// update runs fn with exclusive access to one session.
func (s *Store) update(code string, fn func(e *entry) error) error {
	e, ok := s.lookup(code)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return ErrNotFound
	}
	return fn(e)
}

func (s *Store) Exists(code string) bool {
	_, ok := s.lookup(code)
	return ok
}

// Get returns a copy of the session.
func (s *Store) Get(code string) (GameSession, bool) {
	var out GameSession
	err := s.update(code, func(e *entry) error {
		out = e.session.Clone()
		return nil
	})
	return out, err == nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) snapshotEntries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
	}
	return list
}

// ListPublicWaiting returns public sessions still accepting players, oldest first.
func (s *Store) ListPublicWaiting() []GameSession {
	list := make([]GameSession, 0)
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		if !e.removed && e.session.IsPublic && e.session.Status == StatusWaiting {
			list = append(list, e.session.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Code < list[j].Code
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Remove drops a session regardless of status and stops its timers.
func (s *Store) Remove(code string) bool {
	s.mu.Lock()
	e, ok := s.entries[code]
	if ok {
		delete(s.entries, code)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.removed = true
	e.timers.stopAll()
	e.mu.Unlock()
	return true
}

// Sweep removes finished sessions whose retention window has elapsed and
// returns their codes.
func (s *Store) Sweep(now time.Time, retention time.Duration) []string {
	expired := make([]string, 0)
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		finished := e.session.FinishedAt
		if !e.removed && e.session.Status == StatusFinished && finished != nil && now.Sub(*finished) >= retention {
			expired = append(expired, e.session.Code)
		}
		e.mu.Unlock()
	}
	// Finished sessions are immutable, so the check above cannot go stale.
	removed := expired[:0]
	for _, code := range expired {
		if s.Remove(code) {
			removed = append(removed, code)
		}
	}
	sort.Strings(removed)
	return removed
}

func (s *Store) countByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		if !e.removed {
			counts[e.session.Status]++
		}
		e.mu.Unlock()
	}
	return counts
}
