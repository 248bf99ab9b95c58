package audiocmd

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// SinkConfig configures a playback subprocess.
type SinkConfig struct {
	// Command is argv; Command[0] is the executable (e.g. "aplay").
	Command []string

	Logger Logger
}

// Sink spawns a playback subprocess once and writes every played
// PlaybackRequest's PCM to its stdin for the lifetime of the process,
// implementing sndpipe.Sink. Unlike Source, Start/Stop don't restart the
// subprocess per segment — most command-line players expect one
// continuous PCM stream — so Start only validates the format hasn't
// changed mid-stream and Stop is a no-op; the process is torn down by
// Close.
type Sink struct {
	cfg    SinkConfig
	logger Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	format  wyoming.AudioFormat
	started bool
}

// NewSink spawns the playback subprocess immediately.
func NewSink(ctx context.Context, cfg SinkConfig) (*Sink, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("audiocmd: empty snd command")
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("audiocmd: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("audiocmd: start %q: %w", cfg.Command[0], err)
	}

	return &Sink{cfg: cfg, logger: cfg.Logger, cmd: cmd, stdin: stdin}, nil
}

func (s *Sink) Start(f wyoming.AudioFormat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started && s.format != f {
		s.logger.Warnf("audiocmd: snd format changed mid-stream (%+v -> %+v); %q was started once and won't be restarted", s.format, f, s.cfg.Command[0])
	}
	s.format = f
	s.started = true
	return nil
}

func (s *Sink) Write(samples []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.stdin.Write(samples)
	return err
}

func (s *Sink) Stop() error { return nil }

// Close closes stdin and waits for the subprocess to exit.
func (s *Sink) Close() error {
	s.mu.Lock()
	stdin := s.stdin
	s.mu.Unlock()
	stdin.Close()
	return s.cmd.Wait()
}
