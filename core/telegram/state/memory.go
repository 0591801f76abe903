package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/metrics"
)

// Options configure a MemoryManager.
type Options struct {
	// TTL evicts sessions idle for longer than this; zero or negative keeps them forever.
	TTL time.Duration
	// SweepInterval is how often Run looks for idle sessions.
	SweepInterval time.Duration
	// Now replaces time.Now in tests.
	Now func() time.Time
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryManager keeps sessions in process memory. Sessions are lost on restart.
type MemoryManager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

var _ Manager = (*MemoryManager)(nil)

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager(opts Options) *MemoryManager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Minute
	}
	return &MemoryManager{
		opts:     opts,
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*userLock),
	}
}

// session returns the live session for userID, creating it. Callers hold m.mu.
func (m *MemoryManager) session(userID int64) *Session {
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{
			UserID: userID,
			State:  StateIdle,
			Temp:   map[string]string{},
			Attrs:  map[string]string{},
		}
		m.sessions[userID] = s
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
	s.UpdatedAt = m.opts.Now()
	return s
}

func (m *MemoryManager) update(userID int64, fn func(s *Session)) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID)
	fn(s)
	return s.clone()
}

// Get returns a copy of the session, creating an idle one on first access.
func (m *MemoryManager) Get(userID int64) Session {
	return m.update(userID, func(*Session) {})
}

// Set stores collected fields.
func (m *MemoryManager) Set(userID int64, fields map[string]string) {
	m.Apply(userID, Patch{Set: fields})
}

// Clear removes the named collected fields.
func (m *MemoryManager) Clear(userID int64, keys ...string) {
	m.Apply(userID, Patch{Unset: keys})
}

// StartConversation discards collected fields and enters initial.
// A conversation already in progress is replaced.
func (m *MemoryManager) StartConversation(userID int64, kind Conversation, initial State) State {
	return m.Apply(userID, Patch{Begin: kind, Next: initial}).State
}

// EndConversation returns the session to idle, keeping identity attributes.
func (m *MemoryManager) EndConversation(userID int64) {
	m.Apply(userID, Patch{End: true})
}

// Apply applies p to the session and returns the result.
func (m *MemoryManager) Apply(userID int64, p Patch) Session {
	var from State
	res := m.update(userID, func(s *Session) {
		from = s.State
		apply(s, p)
	})
	if from != res.State {
		logger.Flow.Debug("session transition",
			slog.String("event", "session.transition"),
			slog.Int64("user_id", userID),
			slog.String("conversation", string(res.Conversation)),
			slog.String("from_state", string(from)),
			slog.String("to_state", string(res.State)),
		)
	}
	return res
}

func apply(s *Session, p Patch) {
	if p.Begin != NoConversation {
		s.Conversation = p.Begin
		s.State = StateIdle
		clear(s.Temp)
	}
	for k, v := range p.Set {
		s.Temp[k] = v
	}
	for _, k := range p.Unset {
		delete(s.Temp, k)
	}
	if p.Next != "" && s.Conversation != NoConversation {
		s.State = p.Next
	}
	for k, v := range p.Attrs {
		if v == "" {
			delete(s.Attrs, k)
			continue
		}
		s.Attrs[k] = v
	}
	if p.Authenticated != nil {
		s.Authenticated = *p.Authenticated
	}
	if p.End {
		s.Conversation = NoConversation
		s.State = StateIdle
		clear(s.Temp)
	}
}

// Reset drops the session entirely.
func (m *MemoryManager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
}

// GetState returns the current step, or StateIdle for unknown users.
func (m *MemoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s.State
	}
	return StateIdle
}

// InProgress reports whether the user has an active conversation.
func (m *MemoryManager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return ok && s.Active()
}

// Len returns the number of sessions held.
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Lock blocks until the user's lock is free. Locks for different users are independent.
func (m *MemoryManager) Lock(userID int64) func() {
	m.locksMu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.locksMu.Lock()
			if l.refs--; l.refs == 0 {
				delete(m.locks, userID)
			}
			m.locksMu.Unlock()
		})
	}
}

func (m *MemoryManager) busy(userID int64) bool {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	_, ok := m.locks[userID]
	return ok
}

// Sweep evicts sessions idle since before now-TTL and returns how many were removed.
// Sessions of users with an update in flight are kept.
func (m *MemoryManager) Sweep(now time.Time) int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.TTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) && !m.busy(id) {
			delete(m.sessions, id)
			n++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	metrics.SessionsEvicted.Add(float64(n))
	return n
}

// Run sweeps idle sessions every SweepInterval until ctx is done.
func (m *MemoryManager) Run(ctx context.Context) {
	if m.opts.TTL <= 0 {
		return
	}
	t := time.NewTicker(m.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(m.opts.Now()); n > 0 {
				logger.Flow.Info("sessions evicted",
					slog.String("event", "session.sweep"),
					slog.String("status", "ok"),
					slog.Int("count", n),
					slog.Duration("ttl", m.opts.TTL),
				)
			}
		}
	}
}
