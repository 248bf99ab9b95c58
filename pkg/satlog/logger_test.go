package satlog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerFormatsLikePrintf(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{slog.New(slog.NewTextHandler(&buf, nil))}

	l.Infof("satellite %s entered %s", "a", "Streaming")

	require.Contains(t, buf.String(), "satellite a entered Streaming")
}

func TestLoggerErrorfLogsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{slog.New(slog.NewTextHandler(&buf, nil))}

	l.Errorf("bind failed: %s", "address in use")
	require.Contains(t, buf.String(), "level=ERROR")
	require.Contains(t, buf.String(), "bind failed: address in use")
	require.True(t, strings.Contains(buf.String(), "bind failed"))
}

func TestLoggerWithAddsComponentAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{slog.New(slog.NewJSONHandler(&buf, nil))}

	l.With("mainserver").Warnf("session evicted")

	require.Contains(t, buf.String(), `"component":"mainserver"`)
	require.Contains(t, buf.String(), "session evicted")
}
