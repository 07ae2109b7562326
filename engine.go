package crispsession

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/COS301-SE-2025/CRISP-sub004/storage"
	"github.com/COS301-SE-2025/CRISP-sub004/timeutil"
)

// Engine orchestrates the client session lifecycle: rehydration, login and
// registration, activity-driven inactivity timeout, logout, route guarding,
// and notification polling. Construct one through [Builder.Build]; methods
// are safe for concurrent use afterwards.
//
// The engine owns the token store. Nothing else writes to it.
type Engine struct {
	cfg        Config
	keys       storageKeys
	store      storage.Store
	api        AuthAPI
	nav        Navigator
	clock      timeutil.Clock
	log        *zap.Logger
	instanceID string

	mu      sync.Mutex
	session Session

	activity *activityMonitor
	timeout  *timeoutController
	watcher  *notificationWatcher
}

// Session returns a copy of the current session state.
func (e *Engine) Session() Session {
	if e == nil {
		return Session{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Authenticated reports whether a session is active.
func (e *Engine) Authenticated() bool {
	return e.Session().Authenticated
}

// IsAdmin reports the derived admin flag of the current user. Always false
// while unauthenticated.
func (e *Engine) IsAdmin() bool {
	s := e.Session()
	return s.Authenticated && s.User.IsAdmin()
}

// ResolveRoute applies the route guard to path against the current session.
func (e *Engine) ResolveRoute(path string) RouteDecision {
	return ResolveRoute(path, e.Session())
}

// RecordActivity feeds one user interaction into the activity monitor. The
// inactivity timers re-arm only when the event lands outside the debounce
// window; while unauthenticated this is a no-op.
func (e *Engine) RecordActivity(kind ActivityKind) {
	if e == nil {
		return
	}
	if !e.activity.observe() {
		return
	}
	e.log.Debug("activity recorded", zap.String("kind", kind.String()))
	e.timeout.arm()
}

// StayLoggedIn handles the warning prompt's keep-session action. It is a
// fresh activity reset: the debounce does not apply and the timers re-arm
// from the current moment.
func (e *Engine) StayLoggedIn() {
	if e == nil {
		return
	}
	if !e.activity.touch() {
		return
	}
	e.log.Debug("session extended by user")
	e.timeout.arm()
}

// Close stops the notification watcher and cancels all pending timers. The
// session itself is left as-is; Close is for process shutdown, not logout.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.watcher.Close()
	e.timeout.disarm()
	e.activity.disable()
}

// expireSession is the hard-logout path invoked by the timeout controller.
// Expiry is an expected event: the redirect to the landing page is silent.
func (e *Engine) expireSession() {
	e.logout(context.Background(), "inactivity timeout")
}
