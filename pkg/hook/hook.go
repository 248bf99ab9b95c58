package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
)

// StdinPolicy selects what, if anything, a hook invocation writes to the
// subprocess's stdin (spec.md §4.7).
type StdinPolicy int

const (
	// StdinNone writes nothing and closes stdin immediately.
	StdinNone StdinPolicy = iota
	// StdinText writes the event's free-form text payload (e.g. a
	// transcript or synthesize string) verbatim, no trailing newline.
	StdinText
	// StdinJSON marshals the event as a small JSON object.
	StdinJSON
	// StdinName writes just the event's Name/TimerID field, whichever
	// applies, verbatim (e.g. a wake-word name or timer id).
	StdinName
)

// Spec configures one hook: the command to run and how to feed it stdin.
type Spec struct {
	// Command is argv; Command[0] is the executable.
	Command []string
	Stdin   StdinPolicy
	// Timeout bounds the subprocess wall-clock lifetime. Zero uses
	// DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is the hard wall-clock budget for a hook invocation when
// Spec.Timeout is unset (spec.md §9).
const DefaultTimeout = 5 * time.Second

// Logger is the minimal logging surface Run needs.
type Logger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Debugf(string, ...any) {}

// jsonPayload is the shape written to stdin under StdinJSON.
type jsonPayload struct {
	Type    string        `json:"type"`
	Text    string        `json:"text,omitempty"`
	Name    string        `json:"name,omitempty"`
	TimerID string        `json:"timer_id,omitempty"`
	Timer   *events.Timer `json:"timer,omitempty"`
}

func stdinFor(policy StdinPolicy, ev events.Event) ([]byte, error) {
	switch policy {
	case StdinNone:
		return nil, nil
	case StdinText:
		return []byte(ev.Text), nil
	case StdinName:
		if ev.TimerID != "" {
			return []byte(ev.TimerID), nil
		}
		return []byte(ev.Name), nil
	case StdinJSON:
		p := jsonPayload{Type: string(ev.Kind), Text: ev.Text, Name: ev.Name, TimerID: ev.TimerID, Timer: ev.Timer}
		return json.Marshal(p)
	default:
		return nil, fmt.Errorf("hook: unknown stdin policy %d", policy)
	}
}

// Run spawns spec.Command, feeding it stdin per spec.Stdin, and waits up to
// spec.Timeout (or DefaultTimeout) for it to exit. Run blocks; callers that
// want fire-and-forget semantics run it in a goroutine (pkg/fanout does
// this for every hook dispatch). The subprocess's exit code is returned but
// never consulted by the caller to affect satellite state (spec.md §7).
func Run(ctx context.Context, spec Spec, ev events.Event, logger Logger) error {
	if logger == nil {
		logger = noopLogger{}
	}
	if len(spec.Command) == 0 {
		return fmt.Errorf("hook: %w: empty command", ErrHook)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	in, err := stdinFor(spec.Stdin, ev)
	if err != nil {
		return fmt.Errorf("hook: %w: %v", ErrHook, err)
	}

	cmd := exec.CommandContext(cctx, spec.Command[0], spec.Command[1:]...)
	if in != nil {
		cmd.Stdin = bytes.NewReader(in)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		logger.Warnf("hook: %v: %q timed out after %s", ErrHook, spec.Command[0], timeout)
		return fmt.Errorf("hook: %w: timed out", ErrHook)
	}
	if runErr != nil {
		logger.Warnf("hook: %v: %q exited: %v: stderr=%q", ErrHook, spec.Command[0], runErr, stderr.String())
		return fmt.Errorf("hook: %w: %v", ErrHook, runErr)
	}
	logger.Debugf("hook: %q completed for %s", spec.Command[0], ev.Kind)
	return nil
}
