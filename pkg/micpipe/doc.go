// Package micpipe implements the satellite's microphone processing chain:
// channel selection, volume, auto-gain, noise suppression, mute gating, and
// VAD scoring, followed by a fan-out broadcaster to any number of
// subscribers and a rolling pre-roll buffer for pre-speech audio.
//
// The ring buffer and drop-to-slow-subscriber shape are grounded on
// pkg/audio/pcm/track.go's trackRingBuf and pkg/buffer.Buffer.
package micpipe
