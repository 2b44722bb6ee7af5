// Package cooldown implements the per-second countdown that gates resending
// a verification code.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// DefaultSeconds is the resend cooldown length.
const DefaultSeconds = 60

type Option func(*Timer)

// WithInterval sets the length of one tick. Defaults to one second.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) { t.interval = d }
}

// WithOnTick registers fn to be called after every tick with the seconds
// left. fn runs on the timer goroutine without the lock held.
func WithOnTick(fn func(remaining int)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// Timer counts down from a fixed number of ticks. It is safe for concurrent
// use; a restart cancels the countdown in progress.
type Timer struct {
	mu        sync.Mutex
	seconds   int
	interval  time.Duration
	onTick    func(int)
	remaining int
	gen       uint64
	cancel    context.CancelFunc
}

func New(seconds int, opts ...Option) *Timer {
	t := &Timer{seconds: seconds, interval: time.Second}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start (re)starts the countdown from the full length. Cancelling ctx stops
// it as if Stop had been called.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	if t.seconds <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	t.gen++
	t.remaining = t.seconds
	t.cancel = cancel

	go t.run(ctx, t.gen)
}

func (t *Timer) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			left, ok := t.advance(gen)
			if !ok {
				return
			}
			if t.onTick != nil {
				t.onTick(left)
			}
			if left == 0 {
				return
			}
		case <-ctx.Done():
			t.mu.Lock()
			if t.gen == gen {
				t.remaining = 0
			}
			t.mu.Unlock()
			return
		}
	}
}

// advance counts one tick for countdown gen. It reports false when gen is
// no longer the current countdown.
func (t *Timer) advance(gen uint64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.remaining == 0 {
		return 0, false
	}
	t.remaining--
	if t.remaining == 0 && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return t.remaining, true
}

// tick advances the current countdown by one tick without waiting.
func (t *Timer) tick() int {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()

	left, _ := t.advance(gen)
	return left
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) Active() bool {
	return t.Remaining() > 0
}

// Stop cancels the countdown. Remaining drops to zero.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
	t.remaining = 0
}
