package sndpipe

import (
	"sync"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/peer"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// PeerSink adapts a dialed snd peer.Interface (snd-uri) into the Sink
// interface Pipeline.play drives, bracketing each request with
// audio-start/audio-stop exactly as spec.md §4.4 requires for a
// framing-aware sink (as opposed to audiocmd.Sink's raw subprocess,
// which only ever sees bare PCM bytes).
type PeerSink struct {
	peer peer.Interface

	mu        sync.Mutex
	format    wyoming.AudioFormat
	startedAt time.Time
}

// NewPeerSink wraps an already-dialed peer as a sndpipe.Sink.
func NewPeerSink(p peer.Interface) *PeerSink { return &PeerSink{peer: p} }

func (s *PeerSink) Start(f wyoming.AudioFormat) error {
	s.mu.Lock()
	s.format = f
	s.startedAt = time.Now()
	s.mu.Unlock()

	ev, err := wyoming.NewAudioStart(f, 0)
	if err != nil {
		return err
	}
	s.peer.Publish(ev)
	return nil
}

func (s *PeerSink) Write(samples []byte) error {
	s.mu.Lock()
	f := s.format
	elapsed := time.Since(s.startedAt).Milliseconds()
	s.mu.Unlock()

	ev, err := wyoming.NewAudioChunk(f, elapsed, samples)
	if err != nil {
		return err
	}
	s.peer.Publish(ev)
	return nil
}

func (s *PeerSink) Stop() error {
	s.mu.Lock()
	elapsed := time.Since(s.startedAt).Milliseconds()
	s.mu.Unlock()

	ev, err := wyoming.NewAudioStop(elapsed)
	if err != nil {
		return err
	}
	s.peer.Publish(ev)
	return nil
}
