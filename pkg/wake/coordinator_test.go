package wake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/micpipe"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePeer is a minimal peer.Interface test double: Publish records events,
// Events/Lifecycle are ordinary channels the test drives directly.
type fakePeer struct {
	mu        sync.Mutex
	published []*wyoming.Event

	eventsCh    chan *wyoming.Event
	lifecycleCh chan events.Event
}

func newFakePeer() *fakePeer {
	return &fakePeer{
		eventsCh:    make(chan *wyoming.Event, 16),
		lifecycleCh: make(chan events.Event, 16),
	}
}

func (f *fakePeer) Publish(ev *wyoming.Event) bool {
	f.mu.Lock()
	f.published = append(f.published, ev)
	f.mu.Unlock()
	return false
}

func (f *fakePeer) Events() <-chan *wyoming.Event   { return f.eventsCh }
func (f *fakePeer) Lifecycle() <-chan events.Event { return f.lifecycleCh }
func (f *fakePeer) Close() error                   { return nil }

func (f *fakePeer) publishedTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.published))
	for i, ev := range f.published {
		out[i] = ev.Type
	}
	return out
}

func (f *fakePeer) publishedEvents() []*wyoming.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*wyoming.Event, len(f.published))
	copy(out, f.published)
	return out
}

func TestCoordinatorSendsDetectOnConnect(t *testing.T) {
	mic := micpipe.New(micpipe.Config{})
	defer mic.Close()
	wp := newFakePeer()

	c := New(context.Background(), mic, wp, Config{Names: []string{"ok_nabu"}})
	defer c.Close()

	wp.lifecycleCh <- events.NewConnected()

	require.Eventually(t, func() bool {
		for _, typ := range wp.publishedTypes() {
			if typ == "detect" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestCoordinatorOnlyForwardsWhileArmed(t *testing.T) {
	mic := micpipe.New(micpipe.Config{})
	defer mic.Close()
	wp := newFakePeer()

	c := New(context.Background(), mic, wp, Config{Names: []string{"ok_nabu"}})
	defer c.Close()

	mic.Ingest(micpipe.Chunk{Format: wyoming.AudioFormat{Rate: 16000, Width: 2, Channels: 1}, Samples: make([]byte, 32)})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, wp.publishedTypes())

	c.Arm()
	require.Eventually(t, func() bool {
		mic.Ingest(micpipe.Chunk{Format: wyoming.AudioFormat{Rate: 16000, Width: 2, Channels: 1}, Samples: make([]byte, 32)})
		for _, typ := range wp.publishedTypes() {
			if typ == "audio-chunk" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	c.Disarm()
}

func TestCoordinatorResamplesToWakeRate(t *testing.T) {
	mic := micpipe.New(micpipe.Config{})
	defer mic.Close()
	wp := newFakePeer()

	c := New(context.Background(), mic, wp, Config{Names: []string{"ok_nabu"}, WakeRate: 8000})
	defer c.Close()

	c.Arm()
	require.Eventually(t, func() bool {
		mic.Ingest(micpipe.Chunk{Format: wyoming.AudioFormat{Rate: 16000, Width: 2, Channels: 1}, Samples: make([]byte, 2048)})
		for _, ev := range wp.publishedEvents() {
			if ev.Type != "audio-chunk" {
				continue
			}
			data, err := wyoming.DecodeAudioChunk(ev)
			require.NoError(t, err)
			return data.Rate == 8000
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinatorRefractoryDropsSecondDetection(t *testing.T) {
	mic := micpipe.New(micpipe.Config{})
	defer mic.Close()
	wp := newFakePeer()

	c := New(context.Background(), mic, wp, Config{Names: []string{"ok_nabu"}, RefractorySeconds: 5})
	defer c.Close()

	detEv, err := wyoming.NewDetection(wyoming.Detection{Name: "ok_nabu"})
	require.NoError(t, err)

	wp.eventsCh <- detEv
	first := <-c.Detections()
	assert.Equal(t, "ok_nabu", first.Name)

	wp.eventsCh <- detEv
	select {
	case ev := <-c.Detections():
		t.Fatalf("unexpected second detection within refractory window: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCoordinatorAcceptsDetectionAfterRefractory(t *testing.T) {
	mic := micpipe.New(micpipe.Config{})
	defer mic.Close()
	wp := newFakePeer()

	c := New(context.Background(), mic, wp, Config{Names: []string{"ok_nabu"}, RefractorySeconds: 0.02})
	defer c.Close()

	detEv, err := wyoming.NewDetection(wyoming.Detection{Name: "ok_nabu"})
	require.NoError(t, err)

	wp.eventsCh <- detEv
	<-c.Detections()

	time.Sleep(40 * time.Millisecond)
	wp.eventsCh <- detEv
	select {
	case ev := <-c.Detections():
		assert.Equal(t, "ok_nabu", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("expected a second detection after refractory window elapsed")
	}
}
