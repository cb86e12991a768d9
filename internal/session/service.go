package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/park285/cheese-session/internal/clocksync"
	"github.com/park285/cheese-session/internal/msgcat"
	"github.com/park285/cheese-session/internal/premove"
)

// Service owns one player's session state. All mutations go through its methods;
// readers receive copies.
type Service struct {
	id      string
	hook    Hook
	catalog *msgcat.Catalog
	clock   clockwork.Clock

	// writeMu serializes mutations including subscriber delivery.
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   State

	subMu   sync.RWMutex
	subs    []subscriber
	nextSub uint64
}

type subscriber struct {
	id uint64
	fn func(State)
}

// Option configures a Service.
type Option func(*Service)

// WithHook installs an observability hook.
func WithHook(h Hook) Option {
	return func(s *Service) { s.hook = h }
}

// WithCatalog sets the catalog used for game-end messages.
func WithCatalog(c *msgcat.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithID sets the session id reported in events.
func WithID(id string) Option {
	return func(s *Service) { s.id = id }
}

// New creates a session in the idle state.
func New(opts ...Option) *Service {
	s := &Service{
		state: initialState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.catalog == nil {
		s.catalog = msgcat.Default()
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s
}

// ID returns the session id.
func (s *Service) ID() string { return s.id }

// Clock returns the clock the session reads time from.
func (s *Service) Clock() clockwork.Clock { return s.clock }

// Snapshot returns a copy of the whole state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Service) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Phase
}

// Game returns the current game, or nil.
func (s *Service) Game() *GameSnapshot {
	return s.Snapshot().Game
}

// Result returns the terminal result, or nil.
func (s *Service) Result() *GameEndResult {
	return s.Snapshot().Result
}

// TimerSnapshot returns the latest authoritative clock reading.
func (s *Service) TimerSnapshot() (clocksync.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Timer == nil {
		return clocksync.Snapshot{}, false
	}
	return *s.state.Timer, true
}

func (s *Service) Premove() (premove.Move, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Premove.Peek()
}

func (s *Service) Matchmaking() MatchmakingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Matchmaking
}

// Remaining projects both clocks at the session clock's current time.
func (s *Service) Remaining() (clocksync.Display, bool) {
	return s.Snapshot().Remaining(s.clock.Now())
}

// Subscribe registers fn for every applied mutation. fn runs before the mutating call
// returns and must not mutate the session.
func (s *Service) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
			s.subMu.Unlock()
		})
	}
}

// mutate runs fn against the live state under the write lock. fn reports whether it
// changed anything and, if not, which guard stopped it.
func (s *Service) mutate(op string, fn func(st *State, now time.Time) (bool, string)) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	applied, reason := fn(&s.state, s.clock.Now())
	if applied {
		s.state.Revision++
	}
	snap := s.state.clone()
	s.mu.Unlock()

	s.emit(op, snap, applied, reason)
	if applied {
		s.notify(snap)
	}
	return applied
}

func (s *Service) emit(op string, st State, applied bool, reason string) {
	if s.hook == nil {
		return
	}
	ev := Event{
		SessionID: s.id,
		Op:        op,
		Phase:     st.Phase,
		Applied:   applied,
		Reason:    reason,
		Revision:  st.Revision,
	}
	if st.Game != nil {
		ev.GameID = st.Game.GameID
	}
	s.hook(ev)
}

func (s *Service) notify(st State) {
	s.subMu.RLock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.RUnlock()
	for _, sub := range subs {
		sub.fn(st.clone())
	}
}
