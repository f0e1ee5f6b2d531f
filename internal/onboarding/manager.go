package onboarding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/service/profile"
)

// Notifier is told when a user finishes onboarding.
type Notifier interface {
	OnboardingCompleted(ctx context.Context, userID string, at time.Time) error
}

// Options configures a Manager.
type Options struct {
	Store    *DraftStore
	Profiles profile.Service
	Notifier Notifier
	Rules    Rules
	// IdleTTL is how long an untouched session stays cached. Zero disables
	// sweeping.
	IdleTTL time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// Manager owns the sessions of all devices.
//
// Lock order is session then manager. Sweep only tries session locks while
// holding the manager lock.
type Manager struct {
	store    *DraftStore
	profiles profile.Service
	syncer   *Syncer
	notifier Notifier
	rules    Rules
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:    opts.Store,
		profiles: opts.Profiles,
		syncer:   NewSyncer(opts.Profiles),
		notifier: opts.Notifier,
		rules:    opts.Rules,
		idleTTL:  opts.IdleTTL,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Rules returns the draft bounds the manager enforces.
func (m *Manager) Rules() Rules { return m.rules }

// Open returns the session of device for the caller identified by userID
// (empty when anonymous).
//
// A session is bound to one identity. An anonymous session is adopted by the
// first identity that opens it. A session bound to another identity, or a
// signed-in session opened anonymously, is released and replaced by a fresh
// session cold-started for the new caller; holders of the old session get
// ErrSessionClosed.
func (m *Manager) Open(ctx context.Context, device, userID string) (*Session, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.mu.Lock()
		s, ok := m.sessions[device]
		if !ok {
			s = &Session{m: m, device: device}
			m.sessions[device] = s
		}
		m.mu.Unlock()

		s.mu.Lock()
		if s.released {
			s.mu.Unlock()
			continue
		}
		switch {
		case !s.loaded:
			s.coldStart(ctx, userID)
		case s.userID == userID:
		case s.userID == "":
			s.attach(ctx, userID)
		default:
			applog.LogInfo(ctx, "identity changed, discarding onboarding session",
				zap.Bool("signedIn", userID != ""))
			s.released = true
			m.forget(s)
			s.mu.Unlock()
			continue
		}
		s.lastUsed = m.now()
		s.mu.Unlock()
		return s, nil
	}
}

// SignOut drops the cached session of device. The persisted draft is kept.
func (m *Manager) SignOut(device string) {
	m.mu.Lock()
	s, ok := m.sessions[device]
	m.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	m.forget(s)
}

// forget removes s from the session map if it is still the current session
// for its device.
func (m *Manager) forget(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.device] == s {
		delete(m.sessions, s.device)
	}
}

// Len returns the number of cached sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep releases sessions idle for longer than the idle TTL and returns how
// many were dropped. Busy sessions are skipped.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for device, s := range m.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.loaded && s.lastUsed.Before(cutoff) {
			s.released = true
			delete(m.sessions, device)
			dropped++
		}
		s.mu.Unlock()
	}
	return dropped
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				applog.LogInfo(ctx, "swept idle onboarding sessions", zap.Int("count", n))
			}
		}
	}
}
