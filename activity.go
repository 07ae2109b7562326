package crispsession

import (
	"sync"
	"time"

	"github.com/COS301-SE-2025/CRISP-sub004/timeutil"
)

// activityMonitor owns the activity clock: the single timestamp of the most
// recent qualifying user interaction. The clock only moves while a session is
// authenticated and advances at most once per debounce window, so continuous
// input (mouse movement) cannot thrash the inactivity timers.
type activityMonitor struct {
	clock    timeutil.Clock
	debounce time.Duration

	mu      sync.Mutex
	enabled bool
	last    time.Time
	updates uint64
}

func newActivityMonitor(clock timeutil.Clock, debounce time.Duration) *activityMonitor {
	return &activityMonitor{clock: clock, debounce: debounce}
}

// enable starts observing with a fresh baseline. Called when the session
// becomes authenticated.
func (m *activityMonitor) enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
	m.last = m.clock.Now()
}

// disable freezes the clock. Called on logout; observations while disabled
// are dropped.
func (m *activityMonitor) disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// observe records one interaction. It reports true when the clock advanced,
// i.e. the event landed outside the debounce window and the inactivity
// timers should reset.
func (m *activityMonitor) observe() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return false
	}
	now := m.clock.Now()
	if !m.last.IsZero() && now.Sub(m.last) <= m.debounce {
		return false
	}
	m.last = now
	m.updates++
	return true
}

// touch unconditionally advances the clock, bypassing the debounce. Used by
// the explicit stay-logged-in action.
func (m *activityMonitor) touch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return false
	}
	m.last = m.clock.Now()
	m.updates++
	return true
}

// lastActivity returns the clock value. Test hook.
func (m *activityMonitor) lastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// updateCount returns how many times the clock advanced. Test hook.
func (m *activityMonitor) updateCount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}
