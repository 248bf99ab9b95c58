package peer

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitLifecycle(t *testing.T, ch <-chan events.Event, kind events.Kind, timeout time.Duration) events.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case e := <-ch:
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for lifecycle kind %s", kind)
		}
	}
}

func TestPeerConnectsAndExchangesEvents(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		nc, err := lis.Accept()
		if err != nil {
			return
		}
		defer nc.Close()
		conn := wyoming.NewConn(nc)

		ev, err := conn.ReadEvent()
		require.NoError(t, err)
		assert.Equal(t, "describe", ev.Type)

		info, err := wyoming.NewInfo(&wyoming.Info{Software: &wyoming.SoftwareInfo{Name: "test"}})
		require.NoError(t, err)
		require.NoError(t, conn.WriteEvent(info))
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := Dial(ctx, Config{
		Name: "test",
		URI:  "tcp://" + lis.Addr().String(),
	})
	defer p.Close()

	waitLifecycle(t, p.Lifecycle(), events.Connected, 2*time.Second)

	describe, err := wyoming.Describe()
	require.NoError(t, err)
	p.Publish(describe)

	select {
	case got := <-p.Events():
		assert.Equal(t, "info", got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for info event")
	}

	<-serverDone
}

func TestPeerReconnectsAfterDisconnect(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	accepted := make(chan net.Conn, 2)
	go func() {
		for i := 0; i < 2; i++ {
			nc, err := lis.Accept()
			if err != nil {
				return
			}
			accepted <- nc
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := Dial(ctx, Config{
		Name:       "test",
		URI:        "tcp://" + lis.Addr().String(),
		BackoffMin: 10 * time.Millisecond,
		BackoffMax: 20 * time.Millisecond,
	})
	defer p.Close()

	first := <-accepted
	waitLifecycle(t, p.Lifecycle(), events.Connected, 2*time.Second)
	first.Close()

	waitLifecycle(t, p.Lifecycle(), events.Disconnected, 2*time.Second)

	second := <-accepted
	defer second.Close()
	waitLifecycle(t, p.Lifecycle(), events.Connected, 2*time.Second)
}
