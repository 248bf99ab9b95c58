package micpipe

import (
	"testing"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineChunk(t *testing.T, amplitude int16, n int) Chunk {
	t.Helper()
	samples := make([]byte, n*2)
	for i := 0; i < n; i++ {
		samples[2*i] = byte(uint16(amplitude))
		samples[2*i+1] = byte(uint16(amplitude) >> 8)
	}
	return Chunk{Format: wyoming.AudioFormat{Rate: 16000, Width: 2, Channels: 1}, Samples: samples}
}

func TestMuteGateReplacesWithSilence(t *testing.T) {
	p := New(Config{})
	p.SetMuted(true)

	ch := sineChunk(t, 20000, 100)
	id, sub := p.Subscribe()
	defer p.Unsubscribe(id)

	p.Ingest(ch)

	select {
	case got := <-sub:
		for _, b := range got.Samples {
			assert.Zero(t, b)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for chunk")
	}
}

func TestMuteUntilClearsAfterDeadline(t *testing.T) {
	p := New(Config{})
	p.MuteUntil(time.Now().Add(10 * time.Millisecond))
	require.True(t, p.Muted())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, p.Muted())
}

func TestVADFiresOnceTriggerCountReached(t *testing.T) {
	p := New(Config{VADTriggerLevel: 3, VADWindow: time.Second, VADScorer: EnergyVAD{Threshold: 100}})

	loud := sineChunk(t, 20000, 100)
	for i := 0; i < 2; i++ {
		p.Ingest(loud)
		select {
		case <-p.SpeechDetected():
			t.Fatal("fired before trigger count reached")
		default:
		}
	}

	p.Ingest(loud)
	select {
	case <-p.SpeechDetected():
	case <-time.After(time.Second):
		t.Fatal("expected SpeechDetected to fire")
	}
}

func TestPrerollDrainsAndClears(t *testing.T) {
	p := New(Config{PrerollWindow: time.Second})
	id, sub := p.Subscribe()
	defer p.Unsubscribe(id)

	for i := 0; i < 3; i++ {
		p.Ingest(sineChunk(t, 100, 160)) // 10ms at 16kHz
		<-sub
	}

	got := p.PrerollFlush()
	assert.Len(t, got, 3)
	assert.Empty(t, p.PrerollFlush())
}

func TestBroadcastDropsOldestToSlowSubscriber(t *testing.T) {
	p := New(Config{SubscriberBuffer: 1})
	id, sub := p.Subscribe()
	defer p.Unsubscribe(id)

	first := sineChunk(t, 1, 10)
	first.Timestamp = 1
	second := sineChunk(t, 1, 10)
	second.Timestamp = 2

	p.Ingest(first)
	p.Ingest(second) // sub's buffer is full; first should be evicted

	got := <-sub
	assert.Equal(t, int64(2), got.Timestamp)
}

func TestChannelSelectorPicksOneChannel(t *testing.T) {
	// Two channels, 2 bytes each, two frames.
	f := wyoming.AudioFormat{Rate: 16000, Width: 2, Channels: 2}
	samples := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	out := selectChannel(samples, f, 1)
	assert.Equal(t, []byte{2, 0, 4, 0}, out)
}
