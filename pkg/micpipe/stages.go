package micpipe

import (
	"math"

	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// AGC applies automatic gain control at a level 0..31, mapped by the
// implementation to a dBFS target. External DSP is expected in production;
// NoopAGC is the zero-effort default. A non-nil error (wrapping ErrDsp)
// causes the pipeline to skip this stage for the chunk and continue.
type AGC interface {
	Apply(samples []byte, f wyoming.AudioFormat) ([]byte, error)
	SetLevel(level int)
}

// Denoiser applies noise suppression at a level 0..4. External DSP is
// expected in production; NoopDenoiser is the zero-effort default.
type Denoiser interface {
	Apply(samples []byte, f wyoming.AudioFormat) ([]byte, error)
	SetLevel(level int)
}

type NoopAGC struct{}

func (NoopAGC) Apply(samples []byte, _ wyoming.AudioFormat) ([]byte, error) { return samples, nil }
func (NoopAGC) SetLevel(int)                                               {}

type NoopDenoiser struct{}

func (NoopDenoiser) Apply(samples []byte, _ wyoming.AudioFormat) ([]byte, error) {
	return samples, nil
}
func (NoopDenoiser) SetLevel(int) {}

// selectChannel picks a single channel out of an interleaved multi-channel
// 16-bit frame by slicing samples with the given byte stride. channel is
// zero-indexed; a negative channel disables selection.
func selectChannel(samples []byte, f wyoming.AudioFormat, channel int) []byte {
	if channel < 0 || f.Channels <= 1 {
		return samples
	}
	if channel >= f.Channels {
		channel = f.Channels - 1
	}
	frame := frameSize(f)
	if frame == 0 {
		return samples
	}
	out := make([]byte, 0, len(samples)/f.Channels)
	for off := channel * f.Width; off+f.Width <= len(samples); off += frame {
		out = append(out, samples[off:off+f.Width]...)
	}
	return out
}

// applyVolume multiplies each 16-bit little-endian sample by gain and
// saturates to the signed 16-bit range. Gain of 1.0 is a no-op.
func applyVolume(samples []byte, gain float64) []byte {
	if gain == 1.0 || len(samples) < 2 {
		return samples
	}
	out := make([]byte, len(samples))
	copy(out, samples)
	for i := 0; i+1 < len(out); i += 2 {
		v := int16(uint16(out[i]) | uint16(out[i+1])<<8)
		scaled := float64(v) * gain
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		} else if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		s := int16(scaled)
		out[i] = byte(uint16(s))
		out[i+1] = byte(uint16(s) >> 8)
	}
	return out
}

// silence returns a zero-filled buffer of the same length as samples.
func silence(samples []byte) []byte {
	return make([]byte, len(samples))
}
