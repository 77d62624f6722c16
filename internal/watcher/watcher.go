// Package watcher polls the Messages store for appended messages and fans
// the deltas out to registered observers.
package watcher

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/imsg/internal/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Watcher. Zero values select the defaults.
type Options struct {
	Interval          time.Duration // default 500ms
	ConversationLimit int           // default 50
	StopTimeout       time.Duration // default 2s
	// WatchPath, when set, is watched with fsnotify so writes to it or its
	// -wal file trigger a poll before the interval elapses.
	WatchPath string
}

func (o *Options) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.ConversationLimit <= 0 {
		o.ConversationLimit = 50
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 2 * time.Second
	}
}

// Watcher detects new messages in a store.Reader. Observers are called on
// the watcher's goroutine in registration order: message observers first,
// then conversation observers, within a single poll.
type Watcher struct {
	store  store.Reader
	opts   Options
	logger *zap.Logger

	mu         sync.Mutex
	onMessages []func([]store.Message)
	onConvs    []func([]store.Conversation)
	onError    []func(error)
	cancel     context.CancelFunc
	done       chan struct{}

	// Watermark state. Written by Start only after the previous loop has
	// exited, otherwise by the loop goroutine.
	lastSeq   atomic.Int64
	lastFresh store.Freshness

	errLog rate.Sometimes
}

// New creates a stopped watcher.
func New(r store.Reader, opts Options, logger *zap.Logger) *Watcher {
	opts.setDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		store:  r,
		opts:   opts,
		logger: logger,
		errLog: rate.Sometimes{Interval: 30 * time.Second},
	}
}

// OnNewMessages registers an observer for batches of new messages, oldest first.
func (w *Watcher) OnNewMessages(fn func([]store.Message)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onMessages = append(w.onMessages, fn)
}

// OnConversations registers an observer for refreshed conversation lists.
func (w *Watcher) OnConversations(fn func([]store.Conversation)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onConvs = append(w.onConvs, fn)
}

// OnError registers an observer for store and observer failures.
func (w *Watcher) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = append(w.onError, fn)
}

// Watermark returns the highest sequence id already delivered or skipped.
func (w *Watcher) Watermark() int64 {
	return w.lastSeq.Load()
}

// Running reports whether the poll loop is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Start records the current store position as the baseline and launches the
// poll loop. Calling Start on a running watcher does nothing, and neither
// does calling it while a loop that outlived Stop is still exiting.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	if w.done != nil {
		select {
		case <-w.done:
		default:
			w.logger.Warn("previous poll loop still running, not restarting")
			return
		}
	}

	baselineErr := w.baseline(ctx)

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done, baselineErr)

	w.logger.Info("watcher started",
		zap.Int64("baseline", w.lastSeq.Load()),
		zap.Duration("interval", w.opts.Interval),
		zap.Bool("fs_notify", w.opts.WatchPath != ""),
	)
}

// baseline moves the watermark to the store's current position. Existing
// messages are therefore never reported as new.
func (w *Watcher) baseline(ctx context.Context) error {
	high, err := w.store.HighestSequenceID(ctx)
	if err != nil {
		return fmt.Errorf("read baseline: %w", err)
	}
	if high > w.lastSeq.Load() {
		w.lastSeq.Store(high)
	}
	fresh, err := w.store.Freshness(ctx)
	if err != nil {
		return fmt.Errorf("read baseline: %w", err)
	}
	w.lastFresh = w.lastFresh.Max(fresh)
	return nil
}

// Stop ends the poll loop and waits up to StopTimeout for it to exit.
// Calling Stop on a stopped watcher does nothing.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.cancel = nil
	done := w.done
	w.mu.Unlock()

	select {
	case <-done:
		w.logger.Info("watcher stopped", zap.Int64("watermark", w.lastSeq.Load()))
	case <-time.After(w.opts.StopTimeout):
		w.logger.Warn("watcher did not stop in time", zap.Duration("timeout", w.opts.StopTimeout))
	}
}

func (w *Watcher) run(ctx context.Context, done chan struct{}, baselineErr error) {
	defer close(done)

	if baselineErr != nil {
		w.emitError(baselineErr)
	}

	wake := w.notifyWrites(ctx)
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-wake:
		}
		if ctx.Err() != nil {
			return
		}
		w.poll(ctx)
	}
}

// poll runs one detection cycle. The freshness signal is only advanced
// once the whole cycle succeeds, so a failed cycle is retried next tick.
func (w *Watcher) poll(ctx context.Context) {
	fresh, err := w.store.Freshness(ctx)
	if err != nil {
		w.emitError(err)
		return
	}
	if !fresh.After(w.lastFresh) {
		return
	}

	high, err := w.store.HighestSequenceID(ctx)
	if err != nil {
		w.emitError(err)
		return
	}

	if last := w.lastSeq.Load(); high > last {
		msgs, err := w.store.ListMessagesSince(ctx, last)
		if err != nil {
			w.emitError(err)
			return
		}
		batch := newerThan(msgs, last)
		next := high
		if n := len(batch); n > 0 && batch[n-1].ID > next {
			next = batch[n-1].ID
		}
		w.lastSeq.Store(next)
		if len(batch) > 0 {
			w.emitMessages(batch)
		}
	}

	convs, err := w.store.ListConversations(ctx, w.opts.ConversationLimit)
	if err != nil {
		w.emitError(err)
		return
	}
	w.emitConversations(convs)
	w.lastFresh = w.lastFresh.Max(fresh)
}

// newerThan keeps messages with ID > seq in strictly increasing order.
func newerThan(msgs []store.Message, seq int64) []store.Message {
	out := make([]store.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID > seq {
			out = append(out, m)
			seq = m.ID
		}
	}
	return out
}

func (w *Watcher) emitMessages(batch []store.Message) {
	w.mu.Lock()
	observers := slices.Clone(w.onMessages)
	w.mu.Unlock()
	for _, fn := range observers {
		w.safeCall(func() { fn(batch) })
	}
}

func (w *Watcher) emitConversations(convs []store.Conversation) {
	w.mu.Lock()
	observers := slices.Clone(w.onConvs)
	w.mu.Unlock()
	for _, fn := range observers {
		w.safeCall(func() { fn(convs) })
	}
}

func (w *Watcher) emitError(err error) {
	w.errLog.Do(func() {
		w.logger.Warn("watcher poll failed", zap.Error(err))
	})
	w.mu.Lock()
	observers := slices.Clone(w.onError)
	w.mu.Unlock()
	for _, fn := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("error observer panicked", zap.Any("panic", r))
				}
			}()
			fn(err)
		}()
	}
}

// safeCall runs an observer and turns a panic into an error report.
func (w *Watcher) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.emitError(fmt.Errorf("observer panic: %v", r))
		}
	}()
	fn()
}
