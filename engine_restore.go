package crispsession

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Restore rehydrates the session from the token store at startup. A stored
// token/user pair is trusted without a network round-trip; validity is
// discovered lazily when API calls start failing.
//
// Missing or corrupt entries degrade to "not authenticated": the offending
// keys are cleared defensively and Restore reports false. It never fails.
func (e *Engine) Restore(ctx context.Context) bool {
	if e == nil {
		return false
	}

	token, terr := e.store.Get(ctx, e.keys.access)
	userRaw, uerr := e.store.Get(ctx, e.keys.user)
	if terr != nil || uerr != nil || token == "" || userRaw == "" {
		e.mu.Lock()
		e.clearStorageLocked(ctx)
		e.mu.Unlock()
		return false
	}

	var user UserRecord
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		e.log.Warn("stored user record corrupt, clearing session", zap.Error(err))
		e.mu.Lock()
		e.clearStorageLocked(ctx)
		e.mu.Unlock()
		return false
	}

	// Refresh token absence is tolerated: older clients never stored one.
	refresh, _ := e.store.Get(ctx, e.keys.refresh)

	e.mu.Lock()
	e.session = Session{
		AccessToken:   token,
		RefreshToken:  refresh,
		User:          user,
		Authenticated: true,
	}
	e.mu.Unlock()

	e.activity.enable()
	e.timeout.arm()

	fields := []zap.Field{
		zap.String("username", user.Username),
		zap.Bool("is_admin", user.IsAdmin()),
	}
	if exp, ok := TokenExpiry(token); ok {
		fields = append(fields, zap.Time("token_exp", exp))
	}
	e.log.Info("session restored from storage", fields...)
	return true
}
