package mainserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

func waitLifecycle(t *testing.T, ch <-chan events.Event, kind events.Kind) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestListenerAcceptsAndRelaysEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := Listen(ctx, Config{URI: "tcp://127.0.0.1:0"})
	require.NoError(t, err)
	defer l.Close()

	addr := "tcp://" + l.ln.Addr().String()
	conn, err := wyoming.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer conn.Close()

	waitLifecycle(t, l.Lifecycle(), events.Connected)

	ev, err := wyoming.New("ping", wyoming.Ping{Text: "hi"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteEvent(ev))

	select {
	case got := <-l.Events():
		require.Equal(t, "ping", got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed event")
	}
}

func TestListenerEvictsPriorSessionOnNewConnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := Listen(ctx, Config{URI: "tcp://127.0.0.1:0"})
	require.NoError(t, err)
	defer l.Close()

	addr := "tcp://" + l.ln.Addr().String()

	first, err := wyoming.Dial(context.Background(), addr)
	require.NoError(t, err)
	waitLifecycle(t, l.Lifecycle(), events.Connected)

	second, err := wyoming.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer second.Close()

	waitLifecycle(t, l.Lifecycle(), events.Disconnected)
	waitLifecycle(t, l.Lifecycle(), events.Connected)

	_, err = first.ReadEvent()
	require.Error(t, err)
}

func TestListenerPublishWritesToCurrentSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := Listen(ctx, Config{URI: "tcp://127.0.0.1:0"})
	require.NoError(t, err)
	defer l.Close()

	addr := "tcp://" + l.ln.Addr().String()
	conn, err := wyoming.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer conn.Close()

	waitLifecycle(t, l.Lifecycle(), events.Connected)

	ev, err := wyoming.New("run-pipeline", wyoming.RunPipeline{StartStage: "asr"})
	require.NoError(t, err)
	l.Publish(ev)

	got, err := conn.ReadEvent()
	require.NoError(t, err)
	require.Equal(t, "run-pipeline", got.Type)
}
