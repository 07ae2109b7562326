package crispsession

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/COS301-SE-2025/CRISP-sub004/storage"
	"github.com/COS301-SE-2025/CRISP-sub004/timeutil"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// Build once, then discard it.
type Builder struct {
	config Config
	store  storage.Store
	api    AuthAPI
	source NotificationSource
	nav    Navigator
	clock  timeutil.Clock
	log    *zap.Logger
	hooks  TimeoutHooks

	onNotifications func(int)

	built bool
}

// New returns a Builder loaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore injects the token store. Required.
func (b *Builder) WithStore(s storage.Store) *Builder {
	b.store = s
	return b
}

// WithAuthAPI injects the credential-exchange collaborator. Required.
func (b *Builder) WithAuthAPI(api AuthAPI) *Builder {
	b.api = api
	return b
}

// WithNotificationSource injects the unread-count collaborator polled by the
// watcher. Optional; without it no watcher is started.
func (b *Builder) WithNotificationSource(s NotificationSource) *Builder {
	b.source = s
	return b
}

// WithNotificationHandler registers the callback receiving polled unread
// counts.
func (b *Builder) WithNotificationHandler(fn func(count int)) *Builder {
	b.onNotifications = fn
	return b
}

// WithNavigator injects the navigation side-effect target. Optional; without
// it login/logout perform no redirect.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.nav = nav
	return b
}

// WithClock overrides the time source. Tests inject timeutil.Fake to drive
// the inactivity machinery deterministically.
func (b *Builder) WithClock(c timeutil.Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the structured logger. Defaults to zap.NewNop().
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

// WithTimeoutHooks registers the warning/countdown presentation callbacks.
func (b *Builder) WithTimeoutHooks(hooks TimeoutHooks) *Builder {
	b.hooks = hooks
	return b
}

// Build validates the configuration and wires the engine. The notification
// watcher goroutine starts here when enabled; everything before Build is
// allocation-only.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, ErrStoreRequired
	}
	if b.api == nil {
		return nil, ErrAuthAPIRequired
	}

	cfg := normalizeConfig(b.config)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = timeutil.Real()
	}
	log := b.log
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		cfg:        cfg,
		keys:       keysForPrefix(cfg.Storage.KeyPrefix),
		store:      b.store,
		api:        b.api,
		nav:        b.nav,
		clock:      clock,
		instanceID: uuid.NewString(),
	}
	e.log = log.With(zap.String("engine_id", e.instanceID))
	e.activity = newActivityMonitor(clock, cfg.Timeout.ActivityDebounce)
	e.timeout = newTimeoutController(cfg.Timeout, clock, e.log, b.hooks, e.expireSession)
	e.watcher = newNotificationWatcher(
		cfg.Watcher, clock, b.source, e.Authenticated, b.onNotifications, e.log)

	b.built = true
	return e, nil
}
