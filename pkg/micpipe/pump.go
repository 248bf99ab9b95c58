package micpipe

import (
	"context"

	"github.com/rhasspy/wyoming-satellite/pkg/peer"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Pump reads audio-chunk events off mic's inbound stream and feeds them
// through p.Ingest until ctx is canceled or mic's Events() channel closes.
// This is C3's "consumes audio-chunk events from the mic peer" half
// (spec.md §4.3); the stage pipeline and broadcaster live in Pipeline
// itself.
func Pump(ctx context.Context, mic peer.Interface, p *Pipeline) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-mic.Events():
			if !ok {
				return
			}
			if ev.Type != "audio-chunk" {
				continue
			}
			data, err := wyoming.DecodeAudioChunk(ev)
			if err != nil {
				continue
			}
			p.Ingest(Chunk{
				Format:    wyoming.AudioFormat{Rate: data.Rate, Width: data.Width, Channels: data.Channels},
				Timestamp: data.Timestamp,
				Samples:   ev.Payload,
			})
		}
	}
}
