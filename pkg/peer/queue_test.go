package peer

import (
	"testing"

	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(t *testing.T, typ string) *wyoming.Event {
	e, err := wyoming.New(typ, nil)
	require.NoError(t, err)
	return e
}

func TestSendQueueEvictsControlBeforeAudio(t *testing.T) {
	q := newSendQueue(1)

	q.push(ev(t, "describe"), Control)
	bp := q.push(ev(t, "audio-chunk"), Audio)
	require.True(t, bp)

	got, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, "audio-chunk", got.Type)
}

func TestSendQueueNeverDropsCritical(t *testing.T) {
	q := newSendQueue(1)

	q.push(ev(t, "audio-chunk"), Audio)
	q.push(ev(t, "timer-started"), Critical)
	q.push(ev(t, "timer-updated"), Critical)

	var types []string
	for {
		it, ok := q.pop()
		if !ok {
			break
		}
		types = append(types, it.Type)
		if len(types) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"timer-started", "timer-updated"}, types)
}

func TestSendQueueDropsAudioFromHeadWhenOnlyAudioPresent(t *testing.T) {
	q := newSendQueue(1)

	first := ev(t, "audio-chunk")
	q.push(first, Audio)
	second := ev(t, "audio-chunk")
	q.push(second, Audio)

	got, ok := q.pop()
	require.True(t, ok)
	assert.Same(t, second, got)

	q.close()
	_, ok = q.pop()
	assert.False(t, ok)
}

func TestSendQueueCloseUnblocksPop(t *testing.T) {
	q := newSendQueue(4)
	done := make(chan struct{})
	go func() {
		_, ok := q.pop()
		assert.False(t, ok)
		close(done)
	}()
	q.close()
	<-done
}
