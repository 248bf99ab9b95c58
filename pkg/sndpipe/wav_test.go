package sndpipe

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWav hand-builds a minimal 16-bit PCM WAV file for test fixtures.
func makeWav(sampleRate, channels int, samples []int16) []byte {
	dataSize := len(samples) * 2
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	byteRate := sampleRate * channels * 2
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, uint16(s))
	}
	return buf.Bytes()
}

func TestDecodeWavRoundTrip(t *testing.T) {
	data := makeWav(16000, 1, []int16{100, -100, 32767, -32768})

	format, samples, err := decodeWav(data)
	require.NoError(t, err)

	assert.Equal(t, 16000, format.Rate)
	assert.Equal(t, 1, format.Channels)
	assert.Equal(t, 2, format.Width)
	assert.Len(t, samples, 8)

	got := make([]int16, 4)
	for i := range got {
		got[i] = int16(binary.LittleEndian.Uint16(samples[i*2 : i*2+2]))
	}
	assert.Equal(t, []int16{100, -100, 32767, -32768}, got)
}
