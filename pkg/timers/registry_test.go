package timers

import (
	"context"
	"testing"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitLifecycle(t *testing.T, ch <-chan events.Event, kind events.Kind, timeout time.Duration) events.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for lifecycle event %s", kind)
		}
	}
}

func TestRegistryStartedThenFinishes(t *testing.T) {
	r := New(context.Background(), nil)
	defer r.Close()

	r.OnStarted(Timer{ID: "t1", TotalSeconds: 1, StoredRemaining: 0.02, StartedAt: time.Now()})
	waitLifecycle(t, r.Lifecycle(), events.TimerStarted, time.Second)

	waitLifecycle(t, r.Lifecycle(), events.TimerFinished, time.Second)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCancelRemovesTimer(t *testing.T) {
	r := New(context.Background(), nil)
	defer r.Close()

	r.OnStarted(Timer{ID: "t1", TotalSeconds: 10, StoredRemaining: 10, StartedAt: time.Now()})
	waitLifecycle(t, r.Lifecycle(), events.TimerStarted, time.Second)

	r.OnCancelled("t1")
	waitLifecycle(t, r.Lifecycle(), events.TimerCancelled, time.Second)
	assert.Equal(t, 0, r.Len())

	_, ok := r.Get("t1")
	assert.False(t, ok)
}

func TestRegistryCancelUnknownIsNoop(t *testing.T) {
	r := New(context.Background(), nil)
	defer r.Close()

	r.OnCancelled("missing")

	select {
	case ev := <-r.Lifecycle():
		t.Fatalf("unexpected lifecycle event for unknown cancel: %v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRegistryUpdatedAppliedTwiceEqualsOnce(t *testing.T) {
	r := New(context.Background(), nil)
	defer r.Close()

	r.OnStarted(Timer{ID: "t1", TotalSeconds: 10, StoredRemaining: 10, StartedAt: time.Now()})
	waitLifecycle(t, r.Lifecycle(), events.TimerStarted, time.Second)

	upd := Timer{ID: "t1", TotalSeconds: 10, StoredRemaining: 5, StartedAt: time.Now(), IsPaused: true}
	r.OnUpdated(upd)
	waitLifecycle(t, r.Lifecycle(), events.TimerUpdated, time.Second)
	first, ok := r.Get("t1")
	require.True(t, ok)

	r.OnUpdated(upd)
	waitLifecycle(t, r.Lifecycle(), events.TimerUpdated, time.Second)
	second, ok := r.Get("t1")
	require.True(t, ok)

	assert.Equal(t, first.StoredRemaining, second.StoredRemaining)
	assert.Equal(t, first.IsPaused, second.IsPaused)
}

func TestRegistryPausedRemainingIsVerbatim(t *testing.T) {
	tm := Timer{IsPaused: true, StoredRemaining: 42}
	assert.Equal(t, 42.0, tm.Remaining(time.Now().Add(time.Hour)))
}

func TestRegistryRunningRemainingDecreases(t *testing.T) {
	start := time.Now()
	tm := Timer{StoredRemaining: 10, StartedAt: start}
	r := tm.Remaining(start.Add(4 * time.Second))
	assert.InDelta(t, 6.0, r, 0.01)
}

func TestRegistryOnlyOneCountdownPerID(t *testing.T) {
	r := New(context.Background(), nil)
	defer r.Close()

	r.OnStarted(Timer{ID: "t1", TotalSeconds: 10, StoredRemaining: 10, StartedAt: time.Now()})
	waitLifecycle(t, r.Lifecycle(), events.TimerStarted, time.Second)

	// Replacing before the first countdown fires must not leave the old
	// countdown alive to fire a stale TimerFinished.
	r.OnStarted(Timer{ID: "t1", TotalSeconds: 1, StoredRemaining: 0.03, StartedAt: time.Now()})
	waitLifecycle(t, r.Lifecycle(), events.TimerStarted, time.Second)

	ev := waitLifecycle(t, r.Lifecycle(), events.TimerFinished, time.Second)
	assert.Equal(t, "t1", ev.TimerID)

	select {
	case ev := <-r.Lifecycle():
		t.Fatalf("unexpected extra lifecycle event: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
