package access

import (
	"crypto/subtle"
	"sync"
	"time"

	"wraptrack/internal/config"
)

// State is the session's position in the lock lifecycle.
type State string

const (
	StateLocked    State = "locked"
	StatePinPrompt State = "pin_prompt"
	StateUnlocked  State = "unlocked"
)

// Warning grades how close an unlocked session is to expiring.
type Warning int

const (
	WarnNone Warning = iota
	WarnApproaching
	WarnCritical
)

// Session tracks a single elevated-access window. Expiry is evaluated
// lazily against the clock on every read, so a session relocks the moment
// its deadline passes even without a background timer.
type Session struct {
	mu       sync.Mutex
	clock    Clock
	pin      string
	ttl      time.Duration
	warn     time.Duration
	critical time.Duration

	state    State
	deadline time.Time

	countdownStop chan struct{}
	onLock        func()
	lockOnce      *sync.Once
}

// NewSession builds a locked session from access configuration. A nil clock
// falls back to wall time.
func NewSession(cfg config.Access, clock Clock) *Session {
	if clock == nil {
		clock = realClock{}
	}
	return &Session{
		clock:    clock,
		pin:      cfg.PIN,
		ttl:      time.Duration(cfg.UnlockSeconds) * time.Second,
		warn:     time.Duration(cfg.WarnSeconds) * time.Second,
		critical: time.Duration(cfg.CriticalSeconds) * time.Second,
		state:    StateLocked,
	}
}

// BeginPrompt opens the PIN entry prompt from the locked state.
func (s *Session) BeginPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	if s.state == StateLocked {
		s.state = StatePinPrompt
	}
}

// CancelPrompt dismisses the PIN prompt without unlocking.
func (s *Session) CancelPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePinPrompt {
		s.state = StateLocked
	}
}

// SubmitPIN validates the entered PIN. A correct PIN unlocks the session for
// the full window; a wrong PIN keeps the prompt open with no lockout or
// backoff. Submitting while already unlocked restarts the window.
func (s *Session) SubmitPIN(entered string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	if subtle.ConstantTimeCompare([]byte(entered), []byte(s.pin)) != 1 {
		if s.state == StateLocked {
			s.state = StatePinPrompt
		}
		return false
	}
	s.state = StateUnlocked
	s.deadline = s.clock.Now().Add(s.ttl)
	return true
}

// Lock relocks the session immediately and cancels any running countdown.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
}

// State returns the current lifecycle state, applying expiry first.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	return s.state
}

// Unlocked reports whether elevated edits are currently permitted.
func (s *Session) Unlocked() bool {
	return s.State() == StateUnlocked
}

// Remaining returns the time left in the unlock window, zero when locked.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	if s.state != StateUnlocked {
		return 0
	}
	return s.deadline.Sub(s.clock.Now())
}

// WarningLevel grades the remaining window against the configured warn and
// critical thresholds. Locked sessions report WarnNone.
func (s *Session) WarningLevel() Warning {
	remaining := s.Remaining()
	switch {
	case remaining <= 0:
		return WarnNone
	case remaining <= s.critical:
		return WarnCritical
	case remaining <= s.warn:
		return WarnApproaching
	default:
		return WarnNone
	}
}

// StartCountdown launches the two scheduled tasks backing an unlocked
// window: a one-second display tick and a hard-expiry task. onTick receives
// the remaining time and warning level each tick; onLock fires exactly once
// when the session relocks, whether by expiry or manual Lock. Both tasks are
// canceled on any relock path. No-op when the session is not unlocked.
func (s *Session) StartCountdown(onTick func(remaining time.Duration, level Warning), onLock func()) {
	s.mu.Lock()
	s.expireLocked()
	if s.state != StateUnlocked || s.countdownStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.countdownStop = stop
	s.onLock = onLock
	s.lockOnce = new(sync.Once)
	remaining := s.deadline.Sub(s.clock.Now())
	s.mu.Unlock()

	ticker := s.clock.NewTicker(time.Second)
	timer := s.clock.NewTimer(remaining)

	go func() {
		defer ticker.Stop()
		defer timer.Stop()
		for {
			select {
			case <-ticker.C():
				if onTick != nil && s.Unlocked() {
					onTick(s.Remaining(), s.WarningLevel())
				}
			case <-timer.C():
				// The window may have been restarted by a PIN re-submit
				// while this timer was armed; if so, re-arm for the new
				// deadline instead of locking.
				if s.Unlocked() {
					timer.Stop()
					timer = s.clock.NewTimer(s.Remaining())
					continue
				}
				s.Lock()
				return
			case <-stop:
				return
			}
		}
	}()
}

// expireLocked relocks an unlocked session whose deadline has passed.
// Callers must hold mu.
func (s *Session) expireLocked() {
	if s.state == StateUnlocked && !s.clock.Now().Before(s.deadline) {
		s.lockLocked()
	}
}

// lockLocked moves the session to Locked, cancels countdown tasks, and
// schedules the one-shot onLock callback. Callers must hold mu; the callback
// runs on its own goroutine so it can safely re-enter the session.
func (s *Session) lockLocked() {
	s.state = StateLocked
	s.deadline = time.Time{}
	if s.countdownStop != nil {
		close(s.countdownStop)
		s.countdownStop = nil
	}
	if s.lockOnce != nil && s.onLock != nil {
		once, cb := s.lockOnce, s.onLock
		s.lockOnce, s.onLock = nil, nil
		go once.Do(cb)
	}
}

