package crispsession

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/COS301-SE-2025/CRISP-sub004/storage"
	"github.com/COS301-SE-2025/CRISP-sub004/timeutil"
)

var testEpoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type stubAuthAPI struct {
	mu            sync.Mutex
	result        *AuthResult
	err           error
	loginCalls    int
	registerCalls int
}

func (s *stubAuthAPI) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubAuthAPI) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string, replace bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.paths))
	copy(out, n.paths)
	return out
}

// failingStore wraps Memory and fails Set on one designated key, for
// exercising the all-or-nothing commit.
type failingStore struct {
	*storage.Memory
	failKey string
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return fmt.Errorf("injected set failure for %s", key)
	}
	return f.Memory.Set(ctx, key, value)
}

func testAuthResult() *AuthResult {
	return &AuthResult{
		User: UserRecord{
			Username: "alice",
			Email:    "alice@example.org",
			Role:     "analyst",
		},
		AccessToken:  "access-token-1",
		RefreshToken: "refresh-token-1",
	}
}

type testEnv struct {
	engine *Engine
	clock  *timeutil.Fake
	store  *storage.Memory
	api    *stubAuthAPI
	nav    *recordingNavigator

	mu       sync.Mutex
	warnings []Remaining
	ticks    []Remaining
	hidden   int
	expired  int
}

func (env *testEnv) hooks() TimeoutHooks {
	return TimeoutHooks{
		Warning: func(r Remaining) {
			env.mu.Lock()
			env.warnings = append(env.warnings, r)
			env.mu.Unlock()
		},
		Tick: func(r Remaining) {
			env.mu.Lock()
			env.ticks = append(env.ticks, r)
			env.mu.Unlock()
		},
		Hidden: func() {
			env.mu.Lock()
			env.hidden++
			env.mu.Unlock()
		},
		Expired: func() {
			env.mu.Lock()
			env.expired++
			env.mu.Unlock()
		},
	}
}

func (env *testEnv) warningCount() int {
	env.mu.Lock()
	defer env.mu.Unlock()
	return len(env.warnings)
}

func (env *testEnv) expiredCount() int {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.expired
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	env := &testEnv{
		clock: timeutil.NewFake(testEpoch),
		store: storage.NewMemory(),
		api:   &stubAuthAPI{result: testAuthResult()},
		nav:   &recordingNavigator{},
	}

	cfg := DefaultConfig()
	cfg.Watcher.Enabled = false
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithStore(env.store).
		WithAuthAPI(env.api).
		WithNavigator(env.nav).
		WithClock(env.clock).
		WithTimeoutHooks(env.hooks()).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	env.engine = engine
	return env
}

func mustLogin(t *testing.T, env *testEnv) Session {
	t.Helper()
	sess, err := env.engine.Login(context.Background(), Credentials{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return sess
}
