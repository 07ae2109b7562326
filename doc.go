// Package crispsession implements the client-side session lifecycle for CRISP
// (threat-intelligence-sharing platform) front ends: token persistence, startup
// rehydration, login/registration/logout orchestration, activity-driven
// inactivity timeout with a warning countdown, route guarding, and a polling
// notification watcher.
//
// The package is built around [Engine], constructed through [Builder.Build].
// Engine methods are safe to call from multiple goroutines after construction;
// timer callbacks and caller invocations are serialized on the engine's
// internal lock.
//
// # Architecture boundaries
//
// crispsession is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Session, UserRecord, Remaining, RouteDecision). Storage
// backends live in the storage sub-package; the REST collaborator client lives
// in httpapi; both are injected at build time and never reached around.
//
// # What this package must NOT do
//
//   - Verify tokens against the backend on rehydration. A locally stored
//     token/user pair is trusted until an API call proves otherwise.
//   - Write to storage from anywhere but the auth paths (login, register,
//     logout, defensive clear on corrupt rehydration).
//   - Render anything. Warning prompts, countdowns, and redirects are
//     reported through callbacks and the injected Navigator; presentation is
//     the host's problem.
package crispsession
