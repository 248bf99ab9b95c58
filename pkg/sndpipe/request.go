package sndpipe

import (
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Reason classifies why a PlaybackRequest exists, which in turn governs
// eviction policy and mic mute behavior (spec.md §4.4).
type Reason string

const (
	Feedback      Reason = "feedback"
	Tts           Reason = "tts"
	TimerFinished Reason = "timer-finished"
)

// droppable reports whether the queue is allowed to evict this request to
// make room for a new one. TTS segments are never droppable.
func (r Reason) droppable() bool {
	return r == Feedback || r == TimerFinished
}

// Source is a tagged variant: either audio streamed incrementally from the
// server (chunks arrive via Pipeline.PushChunk) or a local WAV played in
// full once decoded.
type Source struct {
	server bool

	WavBytes  []byte
	WavRepeat int
	WavDelay  time.Duration
}

// ServerAudio builds a Source fed by PushChunk/EndChunks.
func ServerAudio() Source { return Source{server: true} }

// LocalWav builds a Source that decodes and plays a WAV file repeat times,
// pausing delay between repeats.
func LocalWav(data []byte, repeat int, delay time.Duration) Source {
	if repeat < 1 {
		repeat = 1
	}
	return Source{WavBytes: data, WavRepeat: repeat, WavDelay: delay}
}

// PlaybackRequest is one item of serialized playback work.
type PlaybackRequest struct {
	Reason Reason
	Source Source

	// Format is required for ServerAudio sources (the caller knows it from
	// the main-server peer's audio-start); LocalWav sources derive it from
	// the WAV header instead.
	Format wyoming.AudioFormat

	// ExpectedDuration bounds TtsPlayed timing on a write-only sink
	// (spec.md §9): a sink that implements Drainer gets TtsPlayed once its
	// Drain returns after audio-stop, with no deadline; any other sink gets
	// TtsPlayed ExpectedDuration plus GraceMs after audio-stop.
	ExpectedDuration time.Duration
}
