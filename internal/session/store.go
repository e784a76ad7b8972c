// Package session keeps per-upload state in process memory: the normalized
// sources, the joined rows the analysis operations re-run against, and the
// session's reference cache. Nothing is persisted; a restart or expiry means
// re-uploading.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/datanorm"
	"github.com/ignite/casedeck/internal/reference"
)

// ErrNotFound covers both unknown and expired session ids; callers cannot
// tell the difference and should not try.
var ErrNotFound = errors.New("session not found")

// Session is one upload's working state. Rows are the joined rows both
// sources produced; analysis operations filter fresh slices off them, so a
// Session is safe to share across handler goroutines after creation.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	Video *datanorm.ParseResult
	Live  *datanorm.ParseResult
	Rows  []datanorm.Row

	// Reference is this session's table cache: fetched at most once per
	// session, dropped with it. A new upload gets a new cache.
	Reference *reference.Cache
}

// Store is a capacity-bounded in-memory session map with TTL expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl  time.Duration
	max  int
	done chan struct{}
}

// NewStore builds a Store from configuration. Zero values select 30 minutes
// and 64 sessions.
func NewStore(cfg config.SessionConfig) *Store {
	ttl := cfg.TTL()
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	max := cfg.MaxSessions
	if max <= 0 {
		max = 64
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      max,
		done:     make(chan struct{}),
	}
}

// Create registers a new session around the given upload state and returns
// it with a fresh id. When the store is full the oldest session is evicted
// first.
func (s *Store) Create(video, live *datanorm.ParseResult, rows []datanorm.Row, ref *reference.Cache) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Video:     video,
		Live:      live,
		Rows:      rows,
		Reference: ref,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.sessions) >= s.max {
		s.evictOldestLocked()
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a live session. Expired sessions are removed on access rather
// than waiting for the sweeper.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session if present.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of stored sessions, expired ones included until
// they are swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSweeper launches the background eviction loop. Close stops it.
func (s *Store) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.sweep(); n > 0 {
					log.Printf("[session] swept %d expired sessions", n)
				}
			case <-s.done:
				return
			}
		}
	}()
}

// Close stops the sweeper goroutine. The store remains usable.
func (s *Store) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Store) sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// evictOldestLocked drops the session with the earliest creation time.
// Callers hold s.mu.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.CreatedAt.Before(oldest) {
			oldestID = id
			oldest = sess.CreatedAt
		}
	}
	if oldestID != "" {
		log.Printf("[session] store full, evicting oldest session %s", oldestID)
		delete(s.sessions, oldestID)
	}
}
