package access_test

import (
	"sync/atomic"
	"testing"
	"time"

	"wraptrack/internal/access"
	"wraptrack/internal/config"
	"wraptrack/internal/testsupport"
)

func testAccessConfig() config.Access {
	return config.Access{
		PIN:             "1099",
		UnlockSeconds:   120,
		WarnSeconds:     30,
		CriticalSeconds: 10,
	}
}

func newFixture() (*access.Session, *testsupport.FakeClock) {
	clock := testsupport.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return access.NewSession(testAccessConfig(), clock), clock
}

func TestSessionUnlocksOnCorrectPIN(t *testing.T) {
	session, _ := newFixture()

	session.BeginPrompt()
	if session.State() != access.StatePinPrompt {
		t.Fatalf("expected pin_prompt, got %s", session.State())
	}
	if !session.SubmitPIN("1099") {
		t.Fatal("correct PIN should unlock")
	}
	if session.State() != access.StateUnlocked {
		t.Fatalf("expected unlocked, got %s", session.State())
	}
	if got := session.Remaining(); got != 120*time.Second {
		t.Fatalf("expected full 120s window, got %s", got)
	}
}

func TestSessionStaysLockedOnWrongPIN(t *testing.T) {
	session, _ := newFixture()

	session.BeginPrompt()
	for i := 0; i < 5; i++ {
		if session.SubmitPIN("0000") {
			t.Fatal("wrong PIN must not unlock")
		}
	}
	if session.State() != access.StatePinPrompt {
		t.Fatalf("wrong PIN keeps the prompt open, got %s", session.State())
	}
	// No lockout: the correct PIN still works immediately after failures.
	if !session.SubmitPIN("1099") {
		t.Fatal("correct PIN should unlock after failed attempts")
	}
}

func TestSessionExpiresAfterWindow(t *testing.T) {
	session, clock := newFixture()
	session.SubmitPIN("1099")

	clock.Advance(119 * time.Second)
	if !session.Unlocked() {
		t.Fatal("session should still be unlocked inside the window")
	}

	clock.Advance(2 * time.Second)
	if session.Unlocked() {
		t.Fatal("session should relock once the window passes")
	}
	if session.State() != access.StateLocked {
		t.Fatalf("expected locked, got %s", session.State())
	}
	if session.Remaining() != 0 {
		t.Fatalf("expected zero remaining, got %s", session.Remaining())
	}
}

func TestSessionWarningLevels(t *testing.T) {
	session, clock := newFixture()
	session.SubmitPIN("1099")

	// Advances are cumulative: 120s, then 35s, 25s, and 8s remaining.
	cases := []struct {
		advance time.Duration
		want    access.Warning
	}{
		{0, access.WarnNone},
		{85 * time.Second, access.WarnNone},
		{10 * time.Second, access.WarnApproaching},
		{17 * time.Second, access.WarnCritical},
	}
	for _, tc := range cases {
		clock.Advance(tc.advance)
		if got := session.WarningLevel(); got != tc.want {
			t.Errorf("at %s remaining: expected warning %d, got %d", session.Remaining(), tc.want, got)
		}
	}

	session.Lock()
	if session.WarningLevel() != access.WarnNone {
		t.Error("locked session reports no warning")
	}
}

func TestSessionResubmitRestartsWindow(t *testing.T) {
	session, clock := newFixture()
	session.SubmitPIN("1099")

	clock.Advance(100 * time.Second)
	if !session.SubmitPIN("1099") {
		t.Fatal("re-submit should succeed")
	}
	if got := session.Remaining(); got != 120*time.Second {
		t.Fatalf("re-submit should restart the window, got %s", got)
	}
}

func TestManualLock(t *testing.T) {
	session, _ := newFixture()
	session.SubmitPIN("1099")
	session.Lock()

	if session.Unlocked() {
		t.Fatal("manual lock should relock immediately")
	}
}

func waitForLock(t *testing.T, lockCh <-chan struct{}) {
	t.Helper()
	select {
	case <-lockCh:
	case <-time.After(2 * time.Second):
		t.Fatal("onLock callback never fired")
	}
}

func TestCountdownTicksAndExpires(t *testing.T) {
	session, clock := newFixture()
	session.SubmitPIN("1099")

	var ticks atomic.Int64
	lockCh := make(chan struct{})
	session.StartCountdown(func(remaining time.Duration, level access.Warning) {
		ticks.Add(1)
	}, func() {
		close(lockCh)
	})

	clock.Advance(90 * time.Second)
	if got := session.Remaining(); got > 30*time.Second {
		t.Fatalf("expected at most 30s remaining after 90s elapsed, got %s", got)
	}
	if session.WarningLevel() != access.WarnApproaching {
		t.Fatalf("expected approaching warning, got %d", session.WarningLevel())
	}

	clock.Advance(30 * time.Second)
	waitForLock(t, lockCh)
	if session.Unlocked() {
		t.Fatal("session should be locked at exactly the window end")
	}
}

func TestCountdownCanceledByManualLock(t *testing.T) {
	session, clock := newFixture()
	session.SubmitPIN("1099")

	lockCh := make(chan struct{})
	session.StartCountdown(nil, func() {
		close(lockCh)
	})

	session.Lock()
	waitForLock(t, lockCh)

	// Advancing past the original deadline must not panic or double-fire.
	clock.Advance(5 * time.Minute)
	if session.Unlocked() {
		t.Fatal("session should stay locked")
	}
}

func TestCountdownNoOpWhileLocked(t *testing.T) {
	session, _ := newFixture()
	session.StartCountdown(nil, func() {
		t.Error("onLock must not fire for a session that was never unlocked")
	})
	if session.State() != access.StateLocked {
		t.Fatalf("expected locked, got %s", session.State())
	}
}
