package crispsession

import (
	"context"
	"testing"
	"time"
)

// Scenario from the product defaults: timeout 10 minutes, warning lead 2
// minutes. The warning must appear at exactly 8 minutes of inactivity with a
// 120 second countdown, and the hard logout must land at 10 minutes.
func TestWarningAppearsAtLeadTime(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	env.clock.Advance(8*time.Minute - time.Second)
	if env.warningCount() != 0 {
		t.Fatalf("warning fired early: %d", env.warningCount())
	}

	env.clock.Advance(time.Second)
	if env.warningCount() != 1 {
		t.Fatalf("expected exactly one warning at 8 minutes, got %d", env.warningCount())
	}

	env.mu.Lock()
	w := env.warnings[0]
	env.mu.Unlock()
	if w.Seconds != 120 {
		t.Errorf("countdown should start at 120 seconds, got %d", w.Seconds)
	}
	if w.Display != "2:00" {
		t.Errorf("display = %q, want 2:00", w.Display)
	}
	if w.Critical {
		t.Error("120 seconds should not be critical")
	}
}

func TestHardLogoutAtTimeout(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	env.clock.Advance(10 * time.Minute)

	if env.expiredCount() != 1 {
		t.Fatalf("expected exactly one expiry, got %d", env.expiredCount())
	}
	if env.engine.Authenticated() {
		t.Error("session should be gone after expiry")
	}
	if env.store.Len() != 0 {
		t.Errorf("token store should be empty after expiry, %d keys left", env.store.Len())
	}

	// Expiry is an expected event: silent redirect to the landing page.
	paths := env.nav.visited()
	if len(paths) != 2 || paths[0] != RouteDashboard || paths[1] != RouteLanding {
		t.Errorf("navigation = %v, want [/dashboard /]", paths)
	}
}

func TestCountdownTicksAndCriticalFlag(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	env.clock.Advance(8 * time.Minute)
	env.clock.Advance(90 * time.Second)

	env.mu.Lock()
	ticks := len(env.ticks)
	last := env.ticks[ticks-1]
	env.mu.Unlock()

	if ticks != 90 {
		t.Fatalf("expected 90 ticks after 90 seconds, got %d", ticks)
	}
	if last.Seconds != 30 {
		t.Errorf("remaining = %d, want 30", last.Seconds)
	}
	if last.Display != "0:30" {
		t.Errorf("display = %q, want 0:30", last.Display)
	}
	if !last.Critical {
		t.Error("30 seconds should be flagged critical")
	}
	if env.expiredCount() != 0 {
		t.Error("countdown still running, no expiry expected yet")
	}
}

// Activity at the 7 minute mark moves the warning to 15 minutes absolute,
// not the original 8.
func TestActivityResetsWarningSchedule(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	env.clock.Advance(7 * time.Minute)
	env.engine.RecordActivity(ActivityClick)

	env.clock.Advance(8*time.Minute - time.Second)
	if env.warningCount() != 0 {
		t.Fatalf("warning should wait for 8 minutes after the reset, got %d", env.warningCount())
	}
	env.clock.Advance(time.Second)
	if env.warningCount() != 1 {
		t.Fatalf("expected warning at 15 minutes absolute, got %d", env.warningCount())
	}
}

// P3: any number of activity resets followed by a full timeout of silence
// produces exactly one logout.
func TestTimerExclusivityAcrossResets(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	for i := 0; i < 50; i++ {
		env.clock.Advance(90 * time.Second)
		env.engine.RecordActivity(ActivityPointerMove)
	}

	env.clock.Advance(10 * time.Minute)

	if env.expiredCount() != 1 {
		t.Fatalf("expected exactly one expiry after %d resets, got %d", 50, env.expiredCount())
	}

	// Exactly one warning preceded it, during the final silence.
	if env.warningCount() != 1 {
		t.Fatalf("expected one warning before expiry, got %d", env.warningCount())
	}

	// Nothing left armed: more time must not trigger anything further.
	env.clock.Advance(30 * time.Minute)
	if env.expiredCount() != 1 {
		t.Fatalf("stale timers fired after logout: %d expiries", env.expiredCount())
	}
}

func TestStayLoggedInRearmsFromWarning(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	env.clock.Advance(8 * time.Minute)
	if env.warningCount() != 1 {
		t.Fatalf("expected warning, got %d", env.warningCount())
	}

	env.engine.StayLoggedIn()

	env.mu.Lock()
	hidden := env.hidden
	ticksBefore := len(env.ticks)
	env.mu.Unlock()
	if hidden != 1 {
		t.Fatalf("warning should be hidden on stay-logged-in, hidden=%d", hidden)
	}

	// The cancelled countdown must not keep ticking.
	env.clock.Advance(5 * time.Second)
	env.mu.Lock()
	ticksAfter := len(env.ticks)
	env.mu.Unlock()
	if ticksAfter != ticksBefore {
		t.Fatalf("stale countdown ticked %d times after re-arm", ticksAfter-ticksBefore)
	}

	// Full schedule runs again from the reset.
	env.clock.Advance(8*time.Minute - 5*time.Second)
	if env.warningCount() != 2 {
		t.Fatalf("expected second warning 8 minutes after stay-logged-in, got %d", env.warningCount())
	}
	if env.engine.Authenticated() != true {
		t.Fatal("still authenticated until the second schedule expires")
	}
}

func TestActivityDuringWarningHidesIt(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	env.clock.Advance(8*time.Minute + 30*time.Second)
	env.engine.RecordActivity(ActivityKeyDown)

	env.mu.Lock()
	hidden := env.hidden
	env.mu.Unlock()
	if hidden != 1 {
		t.Fatalf("activity during warning should hide it, hidden=%d", hidden)
	}
	if env.expiredCount() != 0 {
		t.Fatal("no expiry expected after re-arm")
	}

	state, _ := env.engine.timeout.snapshot()
	if state != timeoutArmed {
		t.Fatalf("state = %v, want armed", state)
	}
}

func TestManualLogoutDuringWarning(t *testing.T) {
	env := newTestEnv(t, nil)
	mustLogin(t, env)

	env.clock.Advance(9 * time.Minute)
	if err := env.engine.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	env.mu.Lock()
	hidden := env.hidden
	env.mu.Unlock()
	if hidden != 1 {
		t.Fatalf("logout should hide the warning, hidden=%d", hidden)
	}

	env.clock.Advance(time.Hour)
	if env.expiredCount() != 0 {
		t.Fatalf("timers survived logout: %d expiries", env.expiredCount())
	}
}

func TestTimersIdleWhileUnauthenticated(t *testing.T) {
	env := newTestEnv(t, nil)

	env.clock.Advance(time.Hour)
	if env.warningCount() != 0 || env.expiredCount() != 0 {
		t.Fatal("no timers may run before login")
	}

	state, _ := env.engine.timeout.snapshot()
	if state != timeoutIdle {
		t.Fatalf("state = %v, want idle", state)
	}
}

func TestRemainingFormatting(t *testing.T) {
	cases := []struct {
		seconds  int
		display  string
		critical bool
	}{
		{120, "2:00", false},
		{119, "1:59", false},
		{61, "1:01", false},
		{31, "0:31", false},
		{30, "0:30", true},
		{7, "0:07", true},
		{0, "0:00", true},
		{-3, "0:00", true},
	}
	for _, tc := range cases {
		r := newRemaining(tc.seconds)
		if r.Display != tc.display {
			t.Errorf("newRemaining(%d).Display = %q, want %q", tc.seconds, r.Display, tc.display)
		}
		if r.Critical != tc.critical {
			t.Errorf("newRemaining(%d).Critical = %v, want %v", tc.seconds, r.Critical, tc.critical)
		}
	}
}
