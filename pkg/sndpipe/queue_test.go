package sndpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestQueueEvictsOldestDroppable(t *testing.T) {
	q := newRequestQueue(1)

	ok := q.push(PlaybackRequest{Reason: Feedback})
	require.True(t, ok)

	ok = q.push(PlaybackRequest{Reason: TimerFinished})
	require.True(t, ok)

	req, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, TimerFinished, req.Reason)

	q.close()
	_, ok = q.pop()
	assert.False(t, ok)
}

func TestRequestQueueRejectsWhenFullOfTts(t *testing.T) {
	q := newRequestQueue(1)

	ok := q.push(PlaybackRequest{Reason: Tts})
	require.True(t, ok)

	ok = q.push(PlaybackRequest{Reason: Tts})
	assert.False(t, ok)

	req, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, Tts, req.Reason)
}

func TestRequestQueueFIFOOrder(t *testing.T) {
	q := newRequestQueue(4)
	q.push(PlaybackRequest{Reason: Tts, ExpectedDuration: 1})
	q.push(PlaybackRequest{Reason: Tts, ExpectedDuration: 2})

	first, ok := q.pop()
	require.True(t, ok)
	assert.EqualValues(t, 1, first.ExpectedDuration)

	second, ok := q.pop()
	require.True(t, ok)
	assert.EqualValues(t, 2, second.ExpectedDuration)
}

func TestRequestQueueCloseUnblocksPop(t *testing.T) {
	q := newRequestQueue(4)
	done := make(chan struct{})
	go func() {
		_, ok := q.pop()
		assert.False(t, ok)
		close(done)
	}()
	q.close()
	<-done
}
