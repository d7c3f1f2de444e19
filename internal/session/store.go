// Package session tracks per-visitor editor controllers and expires the
// ones that go quiet.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"editlab/internal/editor"
	"editlab/internal/infra"
)

const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Session pairs a visitor with the controller running their edits.
type Session struct {
	ID         string
	Controller *editor.Controller
	CreatedAt  time.Time
	LastSeen   time.Time
}

// Options wires a store. Factory is required and is invoked once per new
// session.
type Options struct {
	Factory func() *editor.Controller
	TTL     time.Duration
	Logger  *infra.Logger
}

// Store keeps sessions in memory. Nothing is persisted; a restart simply
// starts everyone fresh.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	factory func() *editor.Controller
	ttl     time.Duration
	logger  *infra.Logger
	now     func() time.Time
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Store{
		sessions: make(map[string]*Session),
		factory:  opts.Factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// GetOrCreate returns the session for id, creating it when unknown. An
// empty id allocates a fresh one. Looking a session up counts as activity.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			sess.LastSeen = s.now()
			return sess
		}
	} else {
		id = uuid.NewString()
	}

	sess := &Session{
		ID:         id,
		Controller: s.factory(),
		CreatedAt:  s.now(),
		LastSeen:   s.now(),
	}
	s.sessions[id] = sess

	s.logger.Debug().Str("session_id", id).Msg("session: created")
	return sess
}

// Get returns the session for id without creating one.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		sess.LastSeen = s.now()
	}
	return sess, ok
}

// Len reports how many sessions are currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle past the TTL and returns how many were
// removed. Sessions with an edit still in flight are left alone no matter
// how old they are.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.After(cutoff) {
			continue
		}
		if sess.Controller.InFlight() {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Run sweeps on a ticker until ctx is canceled. It always returns nil so a
// clean shutdown does not read as a failure.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("session: swept idle sessions")
			}
		}
	}
}
