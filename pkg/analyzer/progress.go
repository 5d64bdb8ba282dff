package analyzer

import (
	"context"
	"slices"
	"sync"
)

// ProgressFunc is called each time an analyzer finishes. current counts the
// analyzers finished so far, total the analyzers scheduled.
type ProgressFunc func(current, total int, metric string)

// Tracker records which analyzers have finished. It is safe for concurrent
// use; the callback runs under the tracker's lock, so calls arrive in order
// and must not call back into the tracker.
type Tracker struct {
	mu       sync.Mutex
	total    int
	finished []string
	onTick   ProgressFunc
}

// NewTracker creates a tracker reporting to fn, which may be nil.
func NewTracker(fn ProgressFunc) *Tracker {
	return &Tracker{onTick: fn}
}

// Add schedules n more analyzers.
func (t *Tracker) Add(n int) {
	t.mu.Lock()
	t.total += n
	t.mu.Unlock()
}

// Tick marks metric as finished.
func (t *Tracker) Tick(metric string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = append(t.finished, metric)
	if t.onTick != nil {
		t.onTick(len(t.finished), t.total, metric)
	}
}

// Current returns the number of finished analyzers.
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.finished)
}

// Total returns the number of scheduled analyzers.
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Finished returns the finished metrics in completion order.
func (t *Tracker) Finished() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.finished)
}

type trackerKey struct{}

// WithTracker attaches t to ctx.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker attached to ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
