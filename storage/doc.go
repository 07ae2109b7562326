// Package storage provides the persistent key/value stores the session
// engine keeps its tokens and profile snapshot in. Memory is the in-process
// implementation used by tests and demos; Redis is the production
// implementation for shared-terminal deployments. Both honor last-write-wins
// semantics; no atomicity beyond a single key is promised.
package storage
