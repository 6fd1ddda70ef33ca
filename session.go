package gettext

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sabiwara/gettext/po"
)

// Session brackets one extraction run. It owns the Accumulator for the
// lifetime of a build: Setup starts collecting, extraction points call
// Record from any number of goroutines, Snapshot hands the collected
// catalogs to the merge, and Teardown clears everything. A Session is
// passed explicitly to every extraction point; there is no ambient
// process-global state.
type Session struct {
	mu     sync.Mutex
	acc    *Accumulator
	id     uuid.UUID
	active bool
}

// NewSession returns an idle session with an empty accumulator.
func NewSession() *Session {
	return &Session{acc: NewAccumulator()}
}

// Setup transitions the session from idle to active and resets the
// accumulator. Returns ErrSessionActive when the session is already
// active; callers treat that as a fatal programmer error.
func (s *Session) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrSessionActive
	}
	s.active = true
	s.id = uuid.New()
	s.acc.Reset()
	return nil
}

// Active reports whether the session is currently collecting entries.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ID returns the identifier assigned by the most recent Setup. Useful
// for correlating log lines from concurrent extraction points.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Record inserts entry into the catalog being accumulated for path.
// Safe for concurrent use; this is the only session operation expected
// to race. Returns ErrSessionIdle outside of Setup/Teardown.
func (s *Session) Record(path string, entry *po.Entry) error {
	if !s.Active() {
		return ErrSessionIdle
	}
	s.acc.Record(path, entry)
	return nil
}

// Snapshot returns a deep copy of everything recorded so far, keyed by
// destination path. Returns ErrSessionIdle outside of Setup/Teardown.
func (s *Session) Snapshot() (map[string]*po.Catalog, error) {
	if !s.Active() {
		return nil, ErrSessionIdle
	}
	return s.acc.Snapshot(), nil
}

// Teardown transitions the session back to idle and clears the
// accumulator. Returns ErrSessionIdle when the session is not active.
func (s *Session) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrSessionIdle
	}
	s.active = false
	s.acc.Reset()
	return nil
}
