package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ErrConfig marks a configuration error; spec.md §7 requires these to be
// fail-fast (exit code 2), never recovered or retried.
var ErrConfig = errors.New("config: invalid configuration")

// WakeWord is one `wake-word-name <name> [pipeline]` entry (spec.md §6).
type WakeWord struct {
	Name     string `yaml:"name"`
	Pipeline string `yaml:"pipeline,omitempty"`
}

// Config is the satellite's full CLI surface, grouped exactly as spec.md
// §6 groups it. Every field maps to one flag in cmd/wyosat.
type Config struct {
	// Core
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
	Area string `yaml:"area,omitempty"`

	// Mic
	MicURI                        string   `yaml:"mic_uri,omitempty"`
	MicCommand                    []string `yaml:"mic_command,omitempty"`
	MicCommandRate                int      `yaml:"mic_command_rate,omitempty"`
	MicCommandWidth               int      `yaml:"mic_command_width,omitempty"`
	MicCommandChannels            int      `yaml:"mic_command_channels,omitempty"`
	MicCommandSamplesPerChunk     int      `yaml:"mic_command_samples_per_chunk,omitempty"`
	MicVolumeMultiplier           float64  `yaml:"mic_volume_multiplier,omitempty"`
	MicNoiseSuppression           int      `yaml:"mic_noise_suppression,omitempty"`
	MicAutoGain                   int      `yaml:"mic_auto_gain,omitempty"`
	MicChannelIndex                int     `yaml:"mic_channel_index,omitempty"`
	MicSecondsToMuteAfterAwakeWav float64  `yaml:"mic_seconds_to_mute_after_awake_wav"`
	MicNoMuteDuringAwakeWav       bool     `yaml:"mic_no_mute_during_awake_wav,omitempty"`

	// Snd
	SndURI              string   `yaml:"snd_uri,omitempty"`
	SndCommand          []string `yaml:"snd_command,omitempty"`
	SndCommandRate      int      `yaml:"snd_command_rate,omitempty"`
	SndCommandWidth     int      `yaml:"snd_command_width,omitempty"`
	SndCommandChannels  int      `yaml:"snd_command_channels,omitempty"`
	SndVolumeMultiplier float64  `yaml:"snd_volume_multiplier,omitempty"`

	// Wake
	WakeURI               string     `yaml:"wake_uri,omitempty"`
	WakeCommand           []string   `yaml:"wake_command,omitempty"`
	WakeCommandRate       int        `yaml:"wake_command_rate,omitempty"`
	WakeCommandWidth      int        `yaml:"wake_command_width,omitempty"`
	WakeCommandChannels   int        `yaml:"wake_command_channels,omitempty"`
	WakeWordNames         []WakeWord `yaml:"wake_word_names,omitempty"`
	WakeRefractorySeconds float64    `yaml:"wake_refractory_seconds"`

	// VAD
	Vad                bool    `yaml:"vad,omitempty"`
	VadThreshold       float64 `yaml:"vad_threshold"`
	VadTriggerLevel    int     `yaml:"vad_trigger_level"`
	VadBufferSeconds   float64 `yaml:"vad_buffer_seconds"`
	VadWakeWordTimeout float64 `yaml:"vad_wake_word_timeout"`

	// Events
	EventURI     string            `yaml:"event_uri,omitempty"`
	HookCommands map[string]string `yaml:"hook_commands,omitempty"`

	// Sounds
	AwakeWav                 string  `yaml:"awake_wav,omitempty"`
	DoneWav                  string  `yaml:"done_wav,omitempty"`
	TimerFinishedWav         string  `yaml:"timer_finished_wav,omitempty"`
	TimerFinishedWavRepeat   int     `yaml:"timer_finished_wav_repeat,omitempty"`
	TimerFinishedWavDelaySec float64 `yaml:"timer_finished_wav_delay_seconds,omitempty"`

	// Discovery
	NoZeroconf   bool   `yaml:"no_zeroconf,omitempty"`
	ZeroconfName string `yaml:"zeroconf_name,omitempty"`
	ZeroconfHost string `yaml:"zeroconf_host,omitempty"`

	// Misc
	Debug             bool   `yaml:"debug,omitempty"`
	DebugRecordingDir string `yaml:"debug_recording_dir,omitempty"`
	LogFormat         string `yaml:"log_format,omitempty"`
}

// Default returns a Config with every spec.md §6 default already applied.
func Default() *Config {
	return &Config{
		Name:                          "wyoming-satellite",
		MicSecondsToMuteAfterAwakeWav: 0.5,
		WakeRefractorySeconds:         5,
		VadThreshold:                  0.5,
		VadTriggerLevel:               1,
		VadBufferSeconds:              2,
		VadWakeWordTimeout:            5,
		LogFormat:                     "text",
	}
}

// Validate checks the option combinations spec.md §6 requires, wrapping
// every failure in ErrConfig so callers can fail fast with exit code 2.
func (c *Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: uri is required", ErrConfig)
	}
	if c.MicURI == "" && len(c.MicCommand) == 0 {
		return fmt.Errorf("%w: one of mic-uri or mic-command is required", ErrConfig)
	}
	if c.MicURI != "" && len(c.MicCommand) > 0 {
		return fmt.Errorf("%w: mic-uri and mic-command are mutually exclusive", ErrConfig)
	}
	if c.SndURI != "" && len(c.SndCommand) > 0 {
		return fmt.Errorf("%w: snd-uri and snd-command are mutually exclusive", ErrConfig)
	}
	if c.WakeURI != "" && len(c.WakeCommand) > 0 {
		return fmt.Errorf("%w: wake-uri and wake-command are mutually exclusive", ErrConfig)
	}
	if len(c.WakeWordNames) > 0 && c.WakeURI == "" && len(c.WakeCommand) == 0 {
		return fmt.Errorf("%w: wake-word-name requires wake-uri or wake-command", ErrConfig)
	}
	if c.Vad && (c.WakeURI != "" || len(c.WakeCommand) > 0) {
		return fmt.Errorf("%w: vad and a wake peer select different satellite modes; configure only one", ErrConfig)
	}
	if c.MicNoiseSuppression < 0 || c.MicNoiseSuppression > 4 {
		return fmt.Errorf("%w: mic-noise-suppression must be 0..4", ErrConfig)
	}
	if c.MicAutoGain < 0 || c.MicAutoGain > 31 {
		return fmt.Errorf("%w: mic-auto-gain must be 0..31", ErrConfig)
	}
	if c.VadTriggerLevel < 0 {
		return fmt.Errorf("%w: vad-trigger-level must be >= 0", ErrConfig)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log-format must be text or json, got %q", ErrConfig, c.LogFormat)
	}
	return nil
}

// Mode derives the satellite's SatelliteMode from the configured peers,
// per spec.md §2: VAD selects VadGated, a wake peer selects LocalWake,
// and the absence of either selects Always.
func (c *Config) Mode() string {
	switch {
	case c.Vad:
		return "vad-gated"
	case c.WakeURI != "" || len(c.WakeCommand) > 0:
		return "local-wake"
	default:
		return "always"
	}
}

// Load reads and parses a YAML config file, starting from Default() so
// unset fields keep their spec-mandated defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
