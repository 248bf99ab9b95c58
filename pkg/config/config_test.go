package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRequiresMicSelection(t *testing.T) {
	cfg := Default()
	cfg.URI = "tcp://0.0.0.0:10700"
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrConfig)
}

func TestValidateRejectsMutuallyExclusiveMicOptions(t *testing.T) {
	cfg := Default()
	cfg.URI = "tcp://0.0.0.0:10700"
	cfg.MicURI = "tcp://127.0.0.1:10600"
	cfg.MicCommand = []string{"arecord"}
	require.ErrorIs(t, cfg.Validate(), ErrConfig)
}

func TestValidateAcceptsMinimalAlwaysModeConfig(t *testing.T) {
	cfg := Default()
	cfg.URI = "tcp://0.0.0.0:10700"
	cfg.MicURI = "tcp://127.0.0.1:10600"
	cfg.SndURI = "tcp://127.0.0.1:10601"
	require.NoError(t, cfg.Validate())
	require.Equal(t, "always", cfg.Mode())
}

func TestModeReflectsVadAndWakePeerSelection(t *testing.T) {
	vad := Default()
	vad.Vad = true
	require.Equal(t, "vad-gated", vad.Mode())

	wake := Default()
	wake.WakeURI = "tcp://127.0.0.1:10500"
	require.Equal(t, "local-wake", wake.Mode())
}

func TestValidateRejectsVadAndWakeTogether(t *testing.T) {
	cfg := Default()
	cfg.URI = "tcp://0.0.0.0:10700"
	cfg.MicURI = "tcp://127.0.0.1:10600"
	cfg.Vad = true
	cfg.WakeURI = "tcp://127.0.0.1:10500"
	require.ErrorIs(t, cfg.Validate(), ErrConfig)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satellite.yaml")

	cfg := Default()
	cfg.URI = "tcp://0.0.0.0:10700"
	cfg.MicCommand = []string{"arecord", "-r", "16000"}
	cfg.WakeWordNames = []WakeWord{{Name: "okay_nabu"}}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.URI, loaded.URI)
	require.Equal(t, cfg.MicCommand, loaded.MicCommand)
	require.Equal(t, cfg.WakeWordNames, loaded.WakeWordNames)
	require.Equal(t, cfg.VadWakeWordTimeout, loaded.VadWakeWordTimeout)
}
