// Command session-sim replays an activity trace against the session engine
// on a virtual clock and prints every state transition. It exists to answer
// "when exactly does the warning fire for this activity pattern" without
// waiting out real minutes.
//
// Usage:
//
//	session-sim --trace trace.yaml
//	session-sim --timeout 10m --warning 2m
//
// A trace file lists timed events:
//
//	events:
//	  - at: 7m
//	    action: activity
//	  - at: 15m30s
//	    action: stay
//	  - at: 20m
//	    action: logout
//
// Actions: activity (a qualifying interaction), stay (the warning prompt's
// keep-session button), logout (manual logout). Without --trace a built-in
// trace demonstrating the warning reset is used.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	crispsession "github.com/COS301-SE-2025/CRISP-sub004"
	"github.com/COS301-SE-2025/CRISP-sub004/storage"
	"github.com/COS301-SE-2025/CRISP-sub004/timeutil"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		tracePath string
		timeout   time.Duration
		warning   time.Duration
	)

	cmd := &cobra.Command{
		Use:          "session-sim",
		Short:        "Replay an activity trace against the inactivity state machine",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := loadTrace(tracePath)
			if err != nil {
				return err
			}
			if timeout > 0 {
				tr.Timeout = duration(timeout)
			}
			if warning > 0 {
				tr.Warning = duration(warning)
			}
			return run(cmd, tr)
		},
	}

	_ = godotenv.Load()
	cmd.Flags().StringVar(&tracePath, "trace", "", "YAML trace file (built-in demo trace when empty)")
	cmd.Flags().DurationVar(&timeout, "timeout", envDuration("CRISP_SESSION_TIMEOUT"), "inactivity timeout override")
	cmd.Flags().DurationVar(&warning, "warning", envDuration("CRISP_SESSION_WARNING"), "warning lead override")
	return cmd
}

func envDuration(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return d
}

// duration parses "7m30s" style YAML scalars.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", node.Value, err)
	}
	*d = duration(parsed)
	return nil
}

type traceEvent struct {
	At     duration `yaml:"at"`
	Action string   `yaml:"action"`
}

type trace struct {
	Timeout duration     `yaml:"timeout"`
	Warning duration     `yaml:"warning"`
	Events  []traceEvent `yaml:"events"`
}

func loadTrace(path string) (*trace, error) {
	tr := &trace{
		Timeout: duration(10 * time.Minute),
		Warning: duration(2 * time.Minute),
		Events: []traceEvent{
			{At: duration(7 * time.Minute), Action: "activity"},
			{At: duration(15*time.Minute + 30*time.Second), Action: "stay"},
		},
	}
	if path == "" {
		return tr, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	tr.Events = nil
	if err := yaml.Unmarshal(raw, tr); err != nil {
		return nil, fmt.Errorf("parse trace: %w", err)
	}
	for _, ev := range tr.Events {
		switch ev.Action {
		case "activity", "stay", "logout":
		default:
			return nil, fmt.Errorf("unknown action %q at %v", ev.Action, time.Duration(ev.At))
		}
	}
	return tr, nil
}

// simAuthAPI issues fixed tokens; the simulation never talks to a backend.
type simAuthAPI struct{}

func (simAuthAPI) Login(context.Context, crispsession.Credentials) (*crispsession.AuthResult, error) {
	return &crispsession.AuthResult{
		User:         crispsession.UserRecord{Username: "sim", Role: "analyst"},
		AccessToken:  "sim-access",
		RefreshToken: "sim-refresh",
	}, nil
}

func (a simAuthAPI) Register(ctx context.Context, _ crispsession.RegisterInput) (*crispsession.AuthResult, error) {
	return a.Login(ctx, crispsession.Credentials{})
}

func run(cmd *cobra.Command, tr *trace) error {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := timeutil.NewFake(start)

	stamp := func() string {
		return clock.Now().Sub(start).Truncate(time.Second).String()
	}
	report := func(format string, args ...any) {
		cmd.Printf("[%8s] "+format+"\n", append([]any{stamp()}, args...)...)
	}

	cfg := crispsession.DefaultConfig()
	cfg.Timeout.InactivityTimeout = time.Duration(tr.Timeout)
	cfg.Timeout.WarningLead = time.Duration(tr.Warning)
	cfg.Watcher.Enabled = false

	engine, err := crispsession.New().
		WithConfig(cfg).
		WithStore(storage.NewMemory()).
		WithAuthAPI(simAuthAPI{}).
		WithClock(clock).
		WithNavigator(crispsession.NavigatorFunc(func(path string, replace bool) {
			report("navigate -> %s", path)
		})).
		WithTimeoutHooks(crispsession.TimeoutHooks{
			Warning: func(r crispsession.Remaining) { report("warning shown, %s remaining", r.Display) },
			Tick: func(r crispsession.Remaining) {
				if r.Critical && r.Seconds%10 == 0 {
					report("countdown %s", r.Display)
				}
			},
			Hidden:  func() { report("warning hidden") },
			Expired: func() { report("hard logout (inactivity)") },
		}).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if _, err := engine.Login(context.Background(), crispsession.Credentials{Username: "sim"}); err != nil {
		return err
	}
	report("logged in (timeout=%v warning=%v)", time.Duration(tr.Timeout), time.Duration(tr.Warning))

	events := append([]traceEvent(nil), tr.Events...)
	sort.Slice(events, func(i, j int) bool { return events[i].At < events[j].At })

	elapsed := time.Duration(0)
	for _, ev := range events {
		at := time.Duration(ev.At)
		if at > elapsed {
			clock.Advance(at - elapsed)
			elapsed = at
		}
		switch ev.Action {
		case "activity":
			engine.RecordActivity(crispsession.ActivityClick)
			report("activity")
		case "stay":
			engine.StayLoggedIn()
			report("stay logged in")
		case "logout":
			if err := engine.Logout(context.Background()); err != nil {
				return err
			}
			report("manual logout")
		}
	}

	// Run the clock out until the session dies of inactivity.
	for i := 0; engine.Authenticated() && i < 3; i++ {
		clock.Advance(time.Duration(tr.Timeout))
	}
	report("simulation complete, authenticated=%v", engine.Authenticated())
	return nil
}
