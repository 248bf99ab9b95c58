package wyoming

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestWriteReadRoundTrip(t *testing.T) {
	cases := []*Event{
		{Type: "ping"},
		{Type: "describe", Data: mustJSON(t, map[string]any{"a": 1})},
		{Type: "audio-chunk", Data: mustJSON(t, map[string]any{"rate": 16000, "width": 2, "channels": 1}), Payload: []byte{1, 2, 3, 4}},
	}

	for _, ev := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteEvent(&buf, ev))

		got, err := ReadEvent(bufio.NewReader(&buf))
		require.NoError(t, err)

		assert.Equal(t, ev.Type, got.Type)
		assert.JSONEq(t, string(orEmpty(ev.Data)), string(orEmpty(got.Data)))
		assert.Equal(t, ev.Payload, got.Payload)
	}
}

func TestEncodeIsIdempotentOnWellFormedFrame(t *testing.T) {
	ev, err := NewAudioChunk(AudioFormat{Rate: 16000, Width: 2, Channels: 1}, 42, []byte{9, 9, 9})
	require.NoError(t, err)

	var buf1 bytes.Buffer
	require.NoError(t, WriteEvent(&buf1, ev))

	decoded, err := ReadEvent(bufio.NewReader(bytes.NewReader(buf1.Bytes())))
	require.NoError(t, err)

	var buf2 bytes.Buffer
	require.NoError(t, WriteEvent(&buf2, decoded))

	assert.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestReadEventMalformedHeaderIsFraming(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("not json\n")))
	_, err := ReadEvent(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFraming)
}

func TestReadEventShortPayloadIsFraming(t *testing.T) {
	// Claims a 10-byte payload but supplies none.
	r := bufio.NewReader(bytes.NewReader([]byte(`{"type":"audio-chunk","payload_length":10}` + "\n")))
	_, err := ReadEvent(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFraming)
}

func TestReadEventMissingTypeIsFraming(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte(`{"data_length":0}` + "\n")))
	_, err := ReadEvent(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFraming)
}

func orEmpty(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return b
}
