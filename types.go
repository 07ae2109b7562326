package crispsession

import (
	"context"
	"strings"
)

// UserRecord is the denormalized profile snapshot persisted alongside the
// tokens and replaced wholesale on every successful login or registration.
type UserRecord struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Admin    bool   `json:"is_admin"`
	Staff    bool   `json:"is_staff"`
}

// adminRoles is the exact-match allow-list for the admin derivation.
// Matching is case-insensitive.
var adminRoles = map[string]struct{}{
	"admin":           {},
	"administrator":   {},
	"bluevisionadmin": {},
	"superuser":       {},
	"super_user":      {},
}

// IsAdmin derives the admin flag from the record. It is recomputed on every
// call, never cached: a replaced UserRecord must never see a stale result.
//
// A role matches when it equals an allow-listed name or merely contains the
// substring "admin" (legacy fallback, deliberately over-broad; see DESIGN.md).
func (u UserRecord) IsAdmin() bool {
	if u.Admin || u.Staff {
		return true
	}
	role := strings.ToLower(strings.TrimSpace(u.Role))
	if role == "" {
		return false
	}
	if _, ok := adminRoles[role]; ok {
		return true
	}
	return strings.Contains(role, "admin")
}

// IsPublisher reports whether the record may reach publisher-scoped routes.
func (u UserRecord) IsPublisher() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), "publisher") || u.IsAdmin()
}

// Session is the authenticated state of the running client.
//
// Authenticated is true iff AccessToken and User are both present and have
// not been cleared; the engine maintains that invariant and always clears the
// pair together.
type Session struct {
	AccessToken   string
	RefreshToken  string
	User          UserRecord
	Authenticated bool
}

// Credentials is the input to [Engine.Login].
type Credentials struct {
	Username string
	Password string
}

// RegisterInput is the input to [Engine.Register].
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Organization    string
}

// AuthResult is the successful payload of the Auth API collaborator: the
// profile snapshot plus the freshly minted token pair.
type AuthResult struct {
	User         UserRecord
	AccessToken  string
	RefreshToken string
}

// AuthAPI is the REST collaborator that performs credential exchange. The
// httpapi sub-package provides the production implementation; tests inject
// stubs.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
}

// NotificationSource supplies the unread-notification count polled by the
// watcher while a session is authenticated.
type NotificationSource interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Navigator receives the engine's navigation side effects (post-login
// redirect, logout return to landing). Implementations must not call back
// into the engine.
type Navigator interface {
	Navigate(path string, replace bool)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string, replace bool)

// Navigate calls f.
func (f NavigatorFunc) Navigate(path string, replace bool) { f(path, replace) }

// ActivityKind identifies the user-interaction categories observed by the
// activity monitor. The set mirrors the DOM events the dashboard listens for.
type ActivityKind uint8

const (
	// ActivityPointerDown is a pointer press.
	ActivityPointerDown ActivityKind = iota
	// ActivityPointerMove is pointer movement.
	ActivityPointerMove
	// ActivityKeyDown is a key press.
	ActivityKeyDown
	// ActivityScroll is a scroll gesture.
	ActivityScroll
	// ActivityTouchStart is a touch-surface contact.
	ActivityTouchStart
	// ActivityClick is a generic click.
	ActivityClick
	// ActivityFocus is an element gaining focus.
	ActivityFocus
)

func (k ActivityKind) String() string {
	switch k {
	case ActivityPointerDown:
		return "pointer_down"
	case ActivityPointerMove:
		return "pointer_move"
	case ActivityKeyDown:
		return "key_down"
	case ActivityScroll:
		return "scroll"
	case ActivityTouchStart:
		return "touch_start"
	case ActivityClick:
		return "click"
	case ActivityFocus:
		return "focus"
	}
	return "unknown"
}
