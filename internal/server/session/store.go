package session

import (
	"context"
	"sync"
	"time"

	"github.com/p1nk23/TgBot/internal/logging"
)

// Key identifies a conversation: the owner plus a transport-chosen
// conversation id, so two devices of the same owner keep separate state.
type Key struct {
	OwnerID      int64
	Conversation string
}

type entry struct {
	mu       sync.Mutex
	state    State
	lastSeen time.Time
	refs     int
}

// Store holds State values keyed by conversation. Calls for the same key are
// serialised; different keys proceed in parallel. Entries untouched for
// longer than the idle timeout are evicted by Run.
type Store struct {
	mu       sync.Mutex
	sessions map[Key]*entry
	idle     time.Duration
	now      func() time.Time
	log      logging.Logger
}

// NewStore creates an empty store. idle <= 0 disables eviction.
func NewStore(idle time.Duration, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop{}
	}
	return &Store{
		sessions: make(map[Key]*entry),
		idle:     idle,
		now:      time.Now,
		log:      log.With("module", "session"),
	}
}

// Do runs fn with exclusive access to the state of key, creating the state
// on first contact. fn may modify the state in place; its changes are kept
// regardless of the returned error.
func (s *Store) Do(key Key, fn func(*State) error) error {
	s.mu.Lock()
	e, ok := s.sessions[key]
	if !ok {
		e = &entry{state: State{Pending: None{}}}
		s.sessions[key] = e
	}
	e.refs++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		e.refs--
		e.lastSeen = s.now()
		s.mu.Unlock()
	}()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.state)
}

// Snapshot returns a copy of the state of key, if it exists.
func (s *Store) Snapshot(key Key) (State, bool) {
	s.mu.Lock()
	e, ok := s.sessions[key]
	s.mu.Unlock()
	if !ok {
		return State{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state
	if st.CurrentFolderID != nil {
		id := *st.CurrentFolderID
		st.CurrentFolderID = &id
	}
	return st, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict drops every idle session last touched before now-idle and returns
// how many were dropped. Sessions with a call in flight are kept.
func (s *Store) Evict() int {
	if s.idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.sessions {
		if e.refs == 0 && e.lastSeen.Before(cutoff) {
			delete(s.sessions, k)
			n++
		}
	}
	return n
}

// Run evicts idle sessions periodically until ctx is cancelled.
func (s *Store) Run(ctx context.Context) error {
	if s.idle <= 0 {
		<-ctx.Done()
		return nil
	}

	interval := s.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.log.Debug(ctx, "evicted idle sessions", "count", n)
			}
		}
	}
}
