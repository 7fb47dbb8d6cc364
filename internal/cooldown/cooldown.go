// Package cooldown gates repeat alerts per camera. One tracker instance owns
// all cooldown state; cameras running concurrently touch disjoint keys under
// a single lock.
package cooldown

import (
	"sync"
	"time"
)

// DefaultWindow is the minimum interval between two alerts on one camera.
const DefaultWindow = 60 * time.Second

// Tracker records the last alert time per camera. The zero value is not
// usable; construct with NewTracker.
type Tracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewTracker returns a tracker enforcing the given window. A non-positive
// window falls back to DefaultWindow.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// CanAlert reports whether the camera is clear to alert at the given time.
// A camera with no recorded alert is always clear; the window boundary
// itself is inclusive (now - last == window permits the alert).
func (t *Tracker) CanAlert(camera string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.last[camera]
	if !ok {
		return true
	}
	return now.Sub(last) >= t.window
}

// Record marks the camera as having alerted at the given time.
func (t *Tracker) Record(camera string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[camera] = now
}

// Reset clears all cooldown state, re-arming every camera immediately.
// Operational escape hatch; not used on the normal path.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = make(map[string]time.Time)
}

// Window returns the configured cooldown interval.
func (t *Tracker) Window() time.Duration {
	return t.window
}
