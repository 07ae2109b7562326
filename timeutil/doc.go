// Package timeutil abstracts wall-clock timers behind a Clock interface so
// the session engine's inactivity machinery can run against virtual time in
// tests and simulations. Real() is the production clock; Fake advances
// manually and fires due timers synchronously.
package timeutil
