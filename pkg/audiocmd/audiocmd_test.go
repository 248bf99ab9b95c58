package audiocmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rhasspy/wyoming-satellite/pkg/micpipe"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

func TestSourceIngestsSubprocessStdout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mic := micpipe.New(micpipe.Config{SubscriberBuffer: 8})
	defer mic.Close()
	id, ch := mic.Subscribe()
	defer mic.Unsubscribe(id)

	src := NewSource(SourceConfig{
		Command:         []string{"/bin/bash", "-c", "printf '\\x01\\x00\\x02\\x00\\x03\\x00\\x04\\x00'"},
		Format:          wyoming.AudioFormat{Rate: 16000, Width: 2, Channels: 1},
		SamplesPerChunk: 4,
	}, mic)

	go src.Run(ctx)

	select {
	case chunk := <-ch:
		require.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, chunk.Samples)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for captured chunk")
	}
}

func TestSinkWritesToSubprocessStdin(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.raw")

	sink, err := NewSink(context.Background(), SinkConfig{
		Command: []string{"/bin/sh", "-c", "cat > " + out},
	})
	require.NoError(t, err)

	require.NoError(t, sink.Start(wyoming.AudioFormat{Rate: 16000, Width: 2, Channels: 1}))
	require.NoError(t, sink.Write([]byte{1, 2, 3, 4}))
	require.NoError(t, sink.Stop())
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, data)
}
