// Package audiodsp provides optional software sample-rate conversion for
// mono 16-bit PCM buffers.
//
// It is grounded on the teacher's pkg/audio/resampler package, which wraps
// github.com/tphakala/go-audio-resampling's soxr binding behind an
// io.Reader stream. This module's audio moves as discrete []byte chunks
// (pkg/micpipe.Chunk) rather than a continuous stream, so Resampler adapts
// the same underlying library to a buffer-at-a-time Process call instead of
// Read: each Process call feeds one chunk's samples through the
// library's stateful filter, which carries its internal history across
// calls the same way the teacher's Soxr carries it across Reads.
package audiodsp

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts successive mono 16-bit little-endian PCM buffers from
// one sample rate to another, preserving filter state across calls.
type Resampler struct {
	srcRate, dstRate int
	inner            resampling.Resampler
}

// New builds a Resampler from srcRate to dstRate. If the rates are equal,
// Process is a no-op passthrough and no filter is constructed.
func New(srcRate, dstRate int) (*Resampler, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("audiodsp: sample rates must be positive, got %d -> %d", srcRate, dstRate)
	}
	r := &Resampler{srcRate: srcRate, dstRate: dstRate}
	if srcRate == dstRate {
		return r, nil
	}
	inner, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audiodsp: build resampler %d -> %d: %w", srcRate, dstRate, err)
	}
	r.inner = inner
	return r, nil
}

// SrcRate reports the input rate this Resampler was built for.
func (r *Resampler) SrcRate() int { return r.srcRate }

// DstRate reports the output rate this Resampler was built for.
func (r *Resampler) DstRate() int { return r.dstRate }

// Process resamples one buffer of little-endian 16-bit mono PCM samples.
// A zero-value or same-rate Resampler returns samples unchanged.
func (r *Resampler) Process(samples []byte) ([]byte, error) {
	if r == nil || r.inner == nil {
		return samples, nil
	}

	n := len(samples) / 2
	input := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(uint16(samples[2*i]) | uint16(samples[2*i+1])<<8)
		input[i] = float64(s) / 32768.0
	}

	output, err := r.inner.Process(input)
	if err != nil {
		return nil, fmt.Errorf("audiodsp: resample %d -> %d: %w", r.srcRate, r.dstRate, err)
	}

	out := make([]byte, len(output)*2)
	for i, v := range output {
		scaled := v * 32767.0
		switch {
		case scaled > 32767:
			scaled = 32767
		case scaled < -32768:
			scaled = -32768
		}
		s := int16(scaled)
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out, nil
}
