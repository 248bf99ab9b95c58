package sndpipe

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Sink is the one physical or subprocess output device the pipeline
// serializes playback onto. Start/Stop bracket a stream; when the sink is
// a raw subprocess (only audio bytes are written, no framing), Start and
// Stop may be no-ops.
type Sink interface {
	Start(f wyoming.AudioFormat) error
	Write(samples []byte) error
	Stop() error
}

// Drainer is implemented by sinks that can report when buffered audio has
// actually finished playing, rather than merely accepted. Sinks that don't
// implement it are write-only; TtsPlayed timing falls back to
// ExpectedDuration+GraceMs for those (spec.md §9).
type Drainer interface {
	Drain()
}

// decodeWav parses a WAV file into its PCM format and raw little-endian
// sample bytes, suitable for feeding straight into Sink.Write.
func decodeWav(data []byte) (wyoming.AudioFormat, []byte, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return wyoming.AudioFormat{}, nil, fmt.Errorf("sndpipe: %w: not a valid wav file", ErrDeviceBusy)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return wyoming.AudioFormat{}, nil, fmt.Errorf("sndpipe: decode wav samples: %w", err)
	}

	format := wyoming.AudioFormat{
		Rate:     buf.Format.SampleRate,
		Width:    int(dec.BitDepth) / 8,
		Channels: buf.Format.NumChannels,
	}
	if format.Width <= 0 {
		format.Width = 2
	}

	samples := pcmBufferToBytes(buf, format.Width)
	return format, samples, nil
}

// pcmBufferToBytes re-encodes a decoded go-audio/audio.IntBuffer back into
// little-endian sample bytes at the given byte width.
func pcmBufferToBytes(buf *audio.IntBuffer, width int) []byte {
	out := make([]byte, 0, len(buf.Data)*width)
	tmp := make([]byte, width)
	for _, v := range buf.Data {
		switch width {
		case 1:
			tmp[0] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(tmp, uint16(int16(v)))
		case 4:
			binary.LittleEndian.PutUint32(tmp, uint32(int32(v)))
		default:
			binary.LittleEndian.PutUint16(tmp[:2], uint16(int16(v)))
			tmp = tmp[:2]
		}
		out = append(out, tmp...)
	}
	return out
}
