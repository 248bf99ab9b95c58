package hook

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWritesStdinText(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	script := filepath.Join(dir, "script.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat > \""+out+"\"\n"), 0o755))

	spec := Spec{Command: []string{"/bin/sh", script}, Stdin: StdinText}
	err := Run(context.Background(), spec, events.NewTranscript("hello"), nil)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestRunTimesOut(t *testing.T) {
	spec := Spec{Command: []string{"/bin/sh", "-c", "sleep 5"}, Timeout: 20 * time.Millisecond}
	err := Run(context.Background(), spec, events.NewStartup(), nil)
	assert.ErrorIs(t, err, ErrHook)
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	err := Run(context.Background(), Spec{}, events.NewStartup(), nil)
	assert.ErrorIs(t, err, ErrHook)
}
