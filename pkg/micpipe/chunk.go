package micpipe

import "github.com/rhasspy/wyoming-satellite/pkg/wyoming"

// Chunk is one processed frame of microphone audio, timestamped at the
// point it entered the pipeline.
type Chunk struct {
	Format    wyoming.AudioFormat
	Timestamp int64 // milliseconds, producer clock
	Samples   []byte
}

// frameSize returns the byte stride of one multi-channel sample frame.
func frameSize(f wyoming.AudioFormat) int { return f.Width * f.Channels }
