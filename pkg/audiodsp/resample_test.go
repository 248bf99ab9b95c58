package audiodsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSameRatePassthrough(t *testing.T) {
	r, err := New(16000, 16000)
	require.NoError(t, err)

	in := []byte{0x01, 0x02, 0x03, 0x04}
	out, err := r.Process(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNewRejectsNonPositiveRates(t *testing.T) {
	_, err := New(0, 16000)
	assert.Error(t, err)

	_, err = New(16000, -1)
	assert.Error(t, err)
}

func TestProcessResamplesToDifferentLength(t *testing.T) {
	r, err := New(16000, 8000)
	require.NoError(t, err)
	assert.Equal(t, 16000, r.SrcRate())
	assert.Equal(t, 8000, r.DstRate())

	// One 16kHz frame of silence, 1024 samples.
	in := make([]byte, 1024*2)
	out, err := r.Process(in)
	require.NoError(t, err)

	// Downsampling 2:1 shrinks the sample count; silence in should stay
	// silence out regardless of exact filter framing.
	assert.Less(t, len(out), len(in))
	for i := 0; i+1 < len(out); i += 2 {
		s := int16(uint16(out[i]) | uint16(out[i+1])<<8)
		assert.InDelta(t, 0, s, 4)
	}
}

func TestNilResamplerIsPassthrough(t *testing.T) {
	var r *Resampler
	in := []byte{0xAA, 0xBB}
	out, err := r.Process(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
