package crispsession

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/COS301-SE-2025/CRISP-sub004/timeutil"
)

// notificationWatcher polls the unread-notification count on a fixed period
// while the session is authenticated. It is a cancellable periodic task:
// one goroutine, one ticker, one done channel. Poll failures are logged and
// dropped; the next tick tries again.
type notificationWatcher struct {
	interval time.Duration
	clock    timeutil.Clock
	source   NotificationSource
	authed   func() bool
	onCount  func(int)
	log      *zap.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newNotificationWatcher(
	cfg WatcherConfig,
	clock timeutil.Clock,
	source NotificationSource,
	authed func() bool,
	onCount func(int),
	log *zap.Logger,
) *notificationWatcher {
	if !cfg.Enabled || source == nil {
		return nil
	}

	w := &notificationWatcher{
		interval: cfg.PollInterval,
		clock:    clock,
		source:   source,
		authed:   authed,
		onCount:  onCount,
		log:      log,
		done:     make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

func (w *notificationWatcher) run() {
	defer w.wg.Done()

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			w.poll()
		case <-w.done:
			return
		}
	}
}

func (w *notificationWatcher) poll() {
	if !w.authed() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	count, err := w.source.UnreadCount(ctx)
	cancel()
	if err != nil {
		w.log.Debug("notification poll failed", zap.Error(err))
		return
	}
	if w.onCount != nil {
		w.onCount(count)
	}
}

// Close stops the poller and waits for the goroutine to exit. Idempotent.
func (w *notificationWatcher) Close() {
	if w == nil {
		return
	}
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}
