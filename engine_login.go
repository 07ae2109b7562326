package crispsession

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Login exchanges credentials through the Auth API and, on success, commits
// the session: token store first, in-memory state second, navigation last.
// On failure the session is left untouched and the collaborator's error is
// returned for display; no retry is attempted.
func (e *Engine) Login(ctx context.Context, creds Credentials) (Session, error) {
	if e == nil || e.api == nil {
		return Session{}, ErrEngineNotReady
	}

	result, err := e.api.Login(ctx, creds)
	if err != nil {
		e.log.Warn("login rejected", zap.String("username", creds.Username), zap.Error(err))
		return Session{}, err
	}
	return e.commitAuthResult(ctx, result, "login")
}

// Register creates an account through the Auth API. The contract is
// identical to Login: success commits a full session, failure changes
// nothing.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (Session, error) {
	if e == nil || e.api == nil {
		return Session{}, ErrEngineNotReady
	}

	result, err := e.api.Register(ctx, input)
	if err != nil {
		e.log.Warn("registration rejected", zap.String("username", input.Username), zap.Error(err))
		return Session{}, err
	}
	return e.commitAuthResult(ctx, result, "registration")
}

// Logout ends the session: clear the token store, reset in-memory state,
// cancel all timers, return to the landing page. Idempotent — calling it
// while unauthenticated is a no-op, not an error.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	e.logout(ctx, "user logout")
	return nil
}

func (e *Engine) commitAuthResult(ctx context.Context, result *AuthResult, flow string) (Session, error) {
	if result == nil || result.AccessToken == "" {
		return Session{}, fmt.Errorf("%w: empty auth result", ErrSessionCommitFailed)
	}

	userJSON, err := json.Marshal(result.User)
	if err != nil {
		return Session{}, fmt.Errorf("%w: encode user: %v", ErrSessionCommitFailed, err)
	}

	e.mu.Lock()
	// Storage commits before the authenticated flag flips: anything reading
	// the store the instant the flag changes must observe consistent data.
	if err := e.writeSessionLocked(ctx, result, string(userJSON)); err != nil {
		e.mu.Unlock()
		return Session{}, err
	}
	e.session = Session{
		AccessToken:   result.AccessToken,
		RefreshToken:  result.RefreshToken,
		User:          result.User,
		Authenticated: true,
	}
	committed := e.session
	e.mu.Unlock()

	e.activity.enable()
	e.timeout.arm()

	e.log.Info(flow+" succeeded",
		zap.String("username", result.User.Username),
		zap.String("role", result.User.Role),
		zap.Bool("is_admin", result.User.IsAdmin()))

	if e.nav != nil {
		e.nav.Navigate(RouteDashboard, true)
	}
	return committed, nil
}

// writeSessionLocked stages the token store writes as an all-or-nothing
// commit: the first failed write rolls back everything already written.
func (e *Engine) writeSessionLocked(ctx context.Context, result *AuthResult, userJSON string) error {
	writes := []struct {
		key   string
		value string
	}{
		{e.keys.access, result.AccessToken},
		{e.keys.refresh, result.RefreshToken},
		{e.keys.user, userJSON},
	}
	if e.cfg.Storage.LegacyTokenKey {
		writes = append(writes, struct {
			key   string
			value string
		}{e.keys.legacy, result.AccessToken})
	}

	for i, w := range writes {
		if err := e.store.Set(ctx, w.key, w.value); err != nil {
			for j := 0; j < i; j++ {
				if rerr := e.store.Remove(ctx, writes[j].key); rerr != nil {
					e.log.Warn("session commit rollback failed",
						zap.String("key", writes[j].key), zap.Error(rerr))
				}
			}
			return fmt.Errorf("%w: %v", ErrSessionCommitFailed, err)
		}
	}
	return nil
}

func (e *Engine) logout(ctx context.Context, reason string) {
	e.mu.Lock()
	wasAuthenticated := e.session.Authenticated
	// Clear storage before (atomically with, under the lock) the flag flip
	// so a guard evaluation right after logout never sees "authenticated but
	// storage empty".
	e.clearStorageLocked(ctx)
	e.session = Session{}
	e.mu.Unlock()

	e.activity.disable()
	e.timeout.disarm()

	if !wasAuthenticated {
		return
	}

	e.log.Info("session ended", zap.String("reason", reason))
	if e.nav != nil {
		e.nav.Navigate(RouteLanding, true)
	}
}

func (e *Engine) clearStorageLocked(ctx context.Context) {
	for _, key := range e.keys.all(e.cfg.Storage.LegacyTokenKey) {
		if err := e.store.Remove(ctx, key); err != nil {
			e.log.Warn("token store clear failed", zap.String("key", key), zap.Error(err))
		}
	}
}
