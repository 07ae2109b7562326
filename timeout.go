package crispsession

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/COS301-SE-2025/CRISP-sub004/timeutil"
)

// criticalThresholdSeconds flags the countdown display as critical. Cosmetic
// only; no transition depends on it.
const criticalThresholdSeconds = 30

// Remaining is a snapshot of the warning countdown handed to timeout hooks.
type Remaining struct {
	// Seconds left until hard logout.
	Seconds int
	// Display is Seconds rendered as minutes:seconds with the seconds
	// zero-padded to two digits, e.g. "2:00", "0:07".
	Display string
	// Critical is set once Seconds drops to 30 or fewer.
	Critical bool
}

func newRemaining(seconds int) Remaining {
	if seconds < 0 {
		seconds = 0
	}
	return Remaining{
		Seconds:  seconds,
		Display:  fmt.Sprintf("%d:%02d", seconds/60, seconds%60),
		Critical: seconds <= criticalThresholdSeconds,
	}
}

// TimeoutHooks are the presentation callbacks of the inactivity state
// machine. All hooks are optional and are invoked without any engine lock
// held; they must not block.
type TimeoutHooks struct {
	// Warning fires on Armed -> Warning with the initial countdown value.
	Warning func(Remaining)
	// Tick fires once per second while the warning is visible.
	Tick func(Remaining)
	// Hidden fires when the warning is dismissed by re-arming or logout.
	Hidden func()
	// Expired fires after the hard logout triggered by timer expiry.
	Expired func()
}

type timeoutState uint8

const (
	timeoutIdle timeoutState = iota
	timeoutArmed
	timeoutWarning
)

func (s timeoutState) String() string {
	switch s {
	case timeoutIdle:
		return "idle"
	case timeoutArmed:
		return "armed"
	case timeoutWarning:
		return "warning"
	}
	return "unknown"
}

// timerBundle owns the three schedulable handles of the state machine. It is
// cancelled and replaced as a unit on every transition so no stale handle can
// survive a re-arm.
type timerBundle struct {
	warning   timeutil.Timer
	logout    timeutil.Timer
	countdown timeutil.Timer
}

func (b *timerBundle) cancel() {
	if b.warning != nil {
		b.warning.Stop()
		b.warning = nil
	}
	if b.logout != nil {
		b.logout.Stop()
		b.logout = nil
	}
	if b.countdown != nil {
		b.countdown.Stop()
		b.countdown = nil
	}
}

// timeoutController is the Idle/Armed/Warning state machine. Every
// transition increments gen after cancelling the previous bundle; a timer
// callback that raced past its Stop sees a stale gen and returns without
// effect. That makes cancel-then-create the only ordering the machine can
// express.
type timeoutController struct {
	clock       timeutil.Clock
	log         *zap.Logger
	timeout     time.Duration
	warningLead time.Duration
	hooks       TimeoutHooks
	onExpire    func()

	mu        sync.Mutex
	state     timeoutState
	gen       uint64
	bundle    timerBundle
	remaining int
}

func newTimeoutController(cfg TimeoutConfig, clock timeutil.Clock, log *zap.Logger, hooks TimeoutHooks, onExpire func()) *timeoutController {
	return &timeoutController{
		clock:       clock,
		log:         log,
		timeout:     cfg.InactivityTimeout,
		warningLead: cfg.WarningLead,
		hooks:       hooks,
		onExpire:    onExpire,
	}
}

// arm enters Armed from any state: cancel the whole bundle, then schedule a
// fresh warning timer and logout timer measured from now.
func (c *timeoutController) arm() {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.bundle.cancel()
	wasWarning := c.state == timeoutWarning
	c.state = timeoutArmed
	c.remaining = 0
	c.bundle.warning = c.clock.AfterFunc(c.timeout-c.warningLead, func() { c.warningFired(gen) })
	c.bundle.logout = c.clock.AfterFunc(c.timeout, func() { c.logoutFired(gen) })
	c.mu.Unlock()

	c.log.Debug("inactivity timers armed",
		zap.Duration("timeout", c.timeout),
		zap.Duration("warning_lead", c.warningLead))
	if wasWarning && c.hooks.Hidden != nil {
		c.hooks.Hidden()
	}
}

// disarm enters Idle: cancel everything, hide the warning if visible.
func (c *timeoutController) disarm() {
	c.mu.Lock()
	c.gen++
	c.bundle.cancel()
	wasWarning := c.state == timeoutWarning
	c.state = timeoutIdle
	c.remaining = 0
	c.mu.Unlock()

	if wasWarning && c.hooks.Hidden != nil {
		c.hooks.Hidden()
	}
}

func (c *timeoutController) warningFired(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != timeoutArmed {
		c.mu.Unlock()
		return
	}
	c.state = timeoutWarning
	c.remaining = int(c.warningLead / time.Second)
	c.bundle.countdown = c.clock.AfterFunc(time.Second, func() { c.countdownTick(gen) })
	snapshot := newRemaining(c.remaining)
	c.mu.Unlock()

	c.log.Info("inactivity warning shown", zap.Int("remaining_seconds", snapshot.Seconds))
	if c.hooks.Warning != nil {
		c.hooks.Warning(snapshot)
	}
}

func (c *timeoutController) countdownTick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != timeoutWarning {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if remaining > 0 {
		c.bundle.countdown = c.clock.AfterFunc(time.Second, func() { c.countdownTick(gen) })
	}
	snapshot := newRemaining(remaining)
	c.mu.Unlock()

	if remaining <= 0 {
		// The logout timer is due at this same instant; firing the expiry
		// path from here too is harmless because logout is idempotent.
		c.expire()
		return
	}
	if c.hooks.Tick != nil {
		c.hooks.Tick(snapshot)
	}
}

func (c *timeoutController) logoutFired(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.expire()
}

func (c *timeoutController) expire() {
	c.log.Info("inactivity timeout expired")
	if c.onExpire != nil {
		c.onExpire()
	}
	if c.hooks.Expired != nil {
		c.hooks.Expired()
	}
}

// snapshot returns the current state and countdown value. Test hook.
func (c *timeoutController) snapshot() (timeoutState, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.remaining
}
