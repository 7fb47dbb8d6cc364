package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstAlertAlwaysPermitted(t *testing.T) {
	tr := NewTracker(60 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, tr.CanAlert("Main Entrance", now))
	assert.True(t, tr.CanAlert("Loading Dock", now), "cameras have independent clocks")
}

func TestWindowBoundary(t *testing.T) {
	tr := NewTracker(60 * time.Second)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.Record("Main Entrance", start)

	assert.False(t, tr.CanAlert("Main Entrance", start.Add(5*time.Second)))
	assert.False(t, tr.CanAlert("Main Entrance", start.Add(59*time.Second)), "one second short")
	assert.True(t, tr.CanAlert("Main Entrance", start.Add(60*time.Second)), "boundary is inclusive")
	assert.True(t, tr.CanAlert("Main Entrance", start.Add(61*time.Second)))
}

func TestCamerasIndependent(t *testing.T) {
	tr := NewTracker(60 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.Record("Main Entrance", now)

	assert.False(t, tr.CanAlert("Main Entrance", now.Add(time.Second)))
	assert.True(t, tr.CanAlert("Loading Dock", now.Add(time.Second)))
}

func TestReset(t *testing.T) {
	tr := NewTracker(60 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.Record("Main Entrance", now)
	tr.Record("Loading Dock", now)
	assert.False(t, tr.CanAlert("Main Entrance", now.Add(time.Second)))

	tr.Reset()

	assert.True(t, tr.CanAlert("Main Entrance", now.Add(time.Second)))
	assert.True(t, tr.CanAlert("Loading Dock", now.Add(time.Second)))
}

func TestDefaultWindow(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, DefaultWindow, tr.Window())
}
