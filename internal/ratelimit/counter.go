package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Usage reports how many requests a company has made in the current
// minute and day windows.
type Usage struct {
	Minute int
	Day    int
}

// Counter is the advisory usage collaborator the chat surface consults
// after the entitlement gate has computed the effective ceiling. The gate
// itself never increments anything; callers observe then record.
type Counter interface {
	// Observe returns current usage for a company without recording anything.
	Observe(ctx context.Context, companyID string) (Usage, error)
	// Record counts one served request against both windows.
	Record(ctx context.Context, companyID string) error
}

// WindowCounter is an in-process fixed-window Counter. Windows reset on
// minute/day boundaries, which over-admits at most one window's worth at
// the boundary, which is acceptable for an advisory ceiling.
type WindowCounter struct {
	mu      sync.Mutex
	minutes map[string]*window
	days    map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

// NewWindowCounter creates an in-process fixed-window counter.
func NewWindowCounter() *WindowCounter {
	return &WindowCounter{
		minutes: make(map[string]*window),
		days:    make(map[string]*window),
		now:     time.Now,
	}
}

// WithClock overrides the time source (for tests).
func (w *WindowCounter) WithClock(now func() time.Time) *WindowCounter {
	w.now = now
	return w
}

func (w *WindowCounter) Observe(ctx context.Context, companyID string) (Usage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	return Usage{
		Minute: currentCount(w.minutes, companyID, now.Truncate(time.Minute)),
		Day:    currentCount(w.days, companyID, dayStart(now)),
	}, nil
}

func (w *WindowCounter) Record(ctx context.Context, companyID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	bump(w.minutes, companyID, now.Truncate(time.Minute))
	bump(w.days, companyID, dayStart(now))
	return nil
}

func currentCount(m map[string]*window, key string, start time.Time) int {
	win, ok := m[key]
	if !ok || !win.start.Equal(start) {
		return 0
	}
	return win.count
}

func bump(m map[string]*window, key string, start time.Time) {
	win, ok := m[key]
	if !ok || !win.start.Equal(start) {
		m[key] = &window{start: start, count: 1}
		return
	}
	win.count++
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
