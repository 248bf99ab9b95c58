package commands

import (
	"fmt"
	"strings"

	"github.com/rhasspy/wyoming-satellite/pkg/config"
	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/hook"
)

// splitCommand tokenizes a --*-command flag value into argv. Quoting is
// not supported, matching the teacher's flag-parsing simplicity elsewhere
// in this pack (no example repo pulls in a shell-lexer library for this).
func splitCommand(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

// parseWakeWords turns repeated "name [pipeline]" strings into WakeWords.
func parseWakeWords(raw []string) []config.WakeWord {
	out := make([]config.WakeWord, 0, len(raw))
	for _, r := range raw {
		fields := strings.Fields(r)
		if len(fields) == 0 {
			continue
		}
		w := config.WakeWord{Name: fields[0]}
		if len(fields) > 1 {
			w.Pipeline = strings.Join(fields[1:], " ")
		}
		out = append(out, w)
	}
	return out
}

// parseHookFlags turns repeated "kind=command" strings into a map, failing
// fast (wrapped in config.ErrConfig) on a malformed entry or unknown kind.
func parseHookFlags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, r := range raw {
		kind, command, ok := strings.Cut(r, "=")
		if !ok || kind == "" || command == "" {
			return nil, fmt.Errorf("%w: --hook-command %q must be kind=command", config.ErrConfig, r)
		}
		if _, ok := hookStdinPolicy(events.Kind(kind)); !ok {
			return nil, fmt.Errorf("%w: --hook-command: unknown lifecycle event kind %q", config.ErrConfig, kind)
		}
		out[kind] = command
	}
	return out, nil
}

// hookStdinPolicy assigns each LifecycleEvent kind the stdin policy that
// makes sense for its payload shape (spec.md §4.7/§9): a bare name/id for
// single-token payloads, free text for transcript/synthesize/error, JSON
// for the two timer variants that carry a full Timer, and nothing for
// events with no payload worth feeding a subprocess.
func hookStdinPolicy(kind events.Kind) (hook.StdinPolicy, bool) {
	switch kind {
	case events.Startup, events.Connected, events.Disconnected, events.Detect,
		events.VoiceStarted, events.VoiceStopped, events.TtsStart, events.TtsStop,
		events.TtsPlayed, events.StreamingStart, events.StreamingStop:
		return hook.StdinNone, true
	case events.Detection, events.TimerCancelled, events.TimerFinished:
		return hook.StdinName, true
	case events.Transcript, events.Synthesize, events.Error:
		return hook.StdinText, true
	case events.TimerStarted, events.TimerUpdated:
		return hook.StdinJSON, true
	default:
		return hook.StdinNone, false
	}
}

// buildHookSpecs converts the parsed kind->command map into the
// map[events.Kind]hook.Spec pkg/fanout drives.
func buildHookSpecs(commands map[string]string) map[events.Kind]hook.Spec {
	if len(commands) == 0 {
		return nil
	}
	out := make(map[events.Kind]hook.Spec, len(commands))
	for kindStr, command := range commands {
		kind := events.Kind(kindStr)
		policy, _ := hookStdinPolicy(kind)
		out[kind] = hook.Spec{Command: splitCommand(command), Stdin: policy}
	}
	return out
}
