package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rhasspy/wyoming-satellite/pkg/config"
)

// version is set at build time via -ldflags, mirroring the teacher's
// cmd/giztoy version wiring; it also doubles as the satellite's
// software.version field in its Wyoming info handshake.
var version = "dev"

// wakeWordFlags collects the raw "name [pipeline]" strings passed via
// repeated --wake-word-name flags before they're parsed in run.go.
var wakeWordFlags []string

// hookFlags collects repeated --hook-command kind=command pairs.
var hookFlags []string

var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:     "wyosat",
	Short:   "Wyoming protocol satellite daemon",
	Version: version,
	Long: `wyosat bridges a local microphone, speaker, and optional local
wake-word detector to a remote voice-assistant server over the Wyoming
protocol. It runs until terminated by SIGINT/SIGTERM.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cfg, wakeWordFlags, hookFlags)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a returned error to the process exit code spec.md §6
// requires: 2 for configuration errors, 1 for anything else (a bind
// failure or other fatal startup error), 0 only on a nil error (never
// reached here since main only calls ExitCode when err != nil).
func ExitCode(err error) int {
	if errors.Is(err, config.ErrConfig) {
		return 2
	}
	return 1
}

func init() {
	flags := rootCmd.Flags()

	// Core
	flags.StringVar(&cfg.URI, "uri", "", "bind address for the main server listener (required)")
	flags.StringVar(&cfg.Name, "name", cfg.Name, "advertised satellite name")
	flags.StringVar(&cfg.Area, "area", cfg.Area, "advertised satellite area")

	// Mic
	flags.StringVar(&cfg.MicURI, "mic-uri", "", "remote mic peer URI")
	flags.StringVar(&micCommandStr, "mic-command", "", "local mic capture subprocess command")
	flags.IntVar(&cfg.MicCommandRate, "mic-command-rate", 16000, "mic capture sample rate")
	flags.IntVar(&cfg.MicCommandWidth, "mic-command-width", 2, "mic capture sample width in bytes")
	flags.IntVar(&cfg.MicCommandChannels, "mic-command-channels", 1, "mic capture channel count")
	flags.IntVar(&cfg.MicCommandSamplesPerChunk, "mic-command-samples-per-chunk", 1024, "mic capture frames per chunk")
	flags.Float64Var(&cfg.MicVolumeMultiplier, "mic-volume-multiplier", 1.0, "pre-DSP linear gain")
	flags.IntVar(&cfg.MicNoiseSuppression, "mic-noise-suppression", 0, "noise suppression level 0..4")
	flags.IntVar(&cfg.MicAutoGain, "mic-auto-gain", 0, "auto-gain level 0..31")
	flags.IntVar(&cfg.MicChannelIndex, "mic-channel-index", -1, "downmix to this channel index")
	flags.Float64Var(&cfg.MicSecondsToMuteAfterAwakeWav, "mic-seconds-to-mute-after-awake-wav", cfg.MicSecondsToMuteAfterAwakeWav, "post-feedback mute window in seconds")
	flags.BoolVar(&cfg.MicNoMuteDuringAwakeWav, "mic-no-mute-during-awake-wav", false, "disable feedback mute")

	// Snd
	flags.StringVar(&cfg.SndURI, "snd-uri", "", "remote snd peer URI")
	flags.StringVar(&sndCommandStr, "snd-command", "", "local playback subprocess command")
	flags.IntVar(&cfg.SndCommandRate, "snd-command-rate", 22050, "playback sample rate")
	flags.IntVar(&cfg.SndCommandWidth, "snd-command-width", 2, "playback sample width in bytes")
	flags.IntVar(&cfg.SndCommandChannels, "snd-command-channels", 1, "playback channel count")
	flags.Float64Var(&cfg.SndVolumeMultiplier, "snd-volume-multiplier", 1.0, "post-mix gain")

	// Wake
	flags.StringVar(&cfg.WakeURI, "wake-uri", "", "remote wake peer URI")
	flags.StringVar(&wakeCommandStr, "wake-command", "", "local wake-word subprocess command")
	flags.IntVar(&cfg.WakeCommandRate, "wake-command-rate", 16000, "wake subprocess sample rate")
	flags.IntVar(&cfg.WakeCommandWidth, "wake-command-width", 2, "wake subprocess sample width in bytes")
	flags.IntVar(&cfg.WakeCommandChannels, "wake-command-channels", 1, "wake subprocess channel count")
	flags.StringArrayVar(&wakeWordFlags, "wake-word-name", nil, `wake word model to arm, "name" or "name pipeline" (repeatable)`)
	flags.Float64Var(&cfg.WakeRefractorySeconds, "wake-refractory-seconds", cfg.WakeRefractorySeconds, "minimum seconds between accepted detections")

	// VAD
	flags.BoolVar(&cfg.Vad, "vad", false, "enable VAD-gated satellite mode")
	flags.Float64Var(&cfg.VadThreshold, "vad-threshold", cfg.VadThreshold, "VAD energy threshold, 0..1")
	flags.IntVar(&cfg.VadTriggerLevel, "vad-trigger-level", cfg.VadTriggerLevel, "trigger count required within the rolling window")
	flags.Float64Var(&cfg.VadBufferSeconds, "vad-buffer-seconds", cfg.VadBufferSeconds, "pre-roll buffer length in seconds")
	flags.Float64Var(&cfg.VadWakeWordTimeout, "vad-wake-word-timeout", cfg.VadWakeWordTimeout, "silence timeout while streaming, in seconds")

	// Events
	flags.StringVar(&cfg.EventURI, "event-uri", "", "external event peer URI")
	flags.StringArrayVar(&hookFlags, "hook-command", nil, "kind=command subprocess hook (repeatable; kinds are LifecycleEvent names, e.g. detection, transcript, timer-finished)")

	// Sounds
	flags.StringVar(&cfg.AwakeWav, "awake-wav", "", "WAV played on wake detection")
	flags.StringVar(&cfg.DoneWav, "done-wav", "", "WAV played when a pipeline run ends")
	flags.StringVar(&cfg.TimerFinishedWav, "timer-finished-wav", "", "WAV played when a timer finishes")
	flags.IntVar(&cfg.TimerFinishedWavRepeat, "timer-finished-wav-repeat", 1, "number of times to play timer-finished-wav")
	flags.Float64Var(&cfg.TimerFinishedWavDelaySec, "timer-finished-wav-delay", 0, "seconds between timer-finished-wav repeats")

	// Discovery
	flags.BoolVar(&cfg.NoZeroconf, "no-zeroconf", false, "disable mDNS advertisement")
	flags.StringVar(&cfg.ZeroconfName, "zeroconf-name", "", "mDNS advertised name override")
	flags.StringVar(&cfg.ZeroconfHost, "zeroconf-host", "", "mDNS advertised host override")

	// Misc
	flags.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	flags.StringVar(&cfg.DebugRecordingDir, "debug-recording-dir", "", "directory to dump captured audio (diagnostics only, not implemented)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log output format: text or json")

	rootCmd.MarkFlagRequired("uri")
}

// micCommandStr/sndCommandStr/wakeCommandStr hold the raw --*-command flag
// values before run.go splits them into argv with strings.Fields.
var (
	micCommandStr  string
	sndCommandStr  string
	wakeCommandStr string
)
