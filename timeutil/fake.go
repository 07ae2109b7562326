package timeutil

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Advance moves virtual time forward and
// runs every timer and ticker that comes due, in deadline order, on the
// calling goroutine. Callbacks may schedule further timers; those fire within
// the same Advance when they fall inside the window.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	timers  []*fakeTimer
	tickers []*fakeTicker
}

// NewFake returns a Fake clock positioned at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn to run when virtual time reaches now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{
		clock: f,
		seq:   f.seq,
		when:  f.now.Add(d),
		fn:    fn,
	}
	f.timers = append(f.timers, t)
	return t
}

// NewTicker returns a ticker that delivers on every period boundary crossed
// by Advance. Ticks are dropped, not queued, when the channel is full,
// matching time.Ticker.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTicker{
		clock:  f,
		seq:    f.seq,
		period: d,
		next:   f.now.Add(d),
		ch:     make(chan time.Time, 1),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// Advance moves virtual time forward by d. Due events fire one at a time in
// deadline order (creation order breaks ties), each with the clock unlocked
// so the callback may read Now, stop timers, or schedule new ones.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		when, fire, ok := f.popNextLocked(target)
		if !ok {
			break
		}
		f.now = when
		f.mu.Unlock()
		fire()
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// popNextLocked selects the earliest event due at or before target. A chosen
// timer is removed from the schedule; a chosen ticker advances itself when it
// delivers.
func (f *Fake) popNextLocked(target time.Time) (time.Time, func(), bool) {
	var (
		bestWhen time.Time
		bestSeq  uint64
		bestFire func()
		bestIdx  = -1
		found    bool
	)

	better := func(when time.Time, seq uint64) bool {
		if !found {
			return true
		}
		if when.Equal(bestWhen) {
			return seq < bestSeq
		}
		return when.Before(bestWhen)
	}

	for i, t := range f.timers {
		if t.when.After(target) {
			continue
		}
		if better(t.when, t.seq) {
			bestWhen, bestSeq, bestFire, bestIdx, found = t.when, t.seq, t.fn, i, true
		}
	}
	for _, tk := range f.tickers {
		if tk.stopped || tk.next.After(target) {
			continue
		}
		if better(tk.next, tk.seq) {
			bestWhen, bestSeq, bestFire, bestIdx, found = tk.next, tk.seq, tk.deliver, -1, true
		}
	}

	if !found {
		return time.Time{}, nil, false
	}
	if bestIdx >= 0 {
		f.timers = append(f.timers[:bestIdx], f.timers[bestIdx+1:]...)
	}
	return bestWhen, bestFire, true
}

type fakeTimer struct {
	clock *Fake
	seq   uint64
	when  time.Time
	fn    func()
}

// Stop removes the timer from the schedule. It reports false when the timer
// already fired or was stopped.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, cand := range t.clock.timers {
		if cand == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}

type fakeTicker struct {
	clock   *Fake
	seq     uint64
	period  time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) deliver() {
	t.clock.mu.Lock()
	when := t.next
	t.next = t.next.Add(t.period)
	stopped := t.stopped
	t.clock.mu.Unlock()
	if stopped {
		return
	}
	select {
	case t.ch <- when:
	default:
	}
}
