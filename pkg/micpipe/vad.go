package micpipe

import (
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// VADScorer decides, per chunk, whether the chunk counts as a speech
// trigger. The default implementation is a simple RMS-energy threshold;
// callers may substitute a model-backed scorer.
type VADScorer interface {
	Score(samples []byte, f wyoming.AudioFormat) (triggered bool)
}

// EnergyVAD is a threshold-on-RMS VADScorer. Threshold is in the same
// units as a 16-bit PCM sample (0..32767).
type EnergyVAD struct {
	Threshold int32
}

func (v EnergyVAD) Score(samples []byte, _ wyoming.AudioFormat) bool {
	if v.Threshold <= 0 {
		v.Threshold = 800
	}
	if len(samples) < 2 {
		return false
	}
	var sumSq int64
	n := len(samples) / 2
	for i := 0; i+1 < len(samples); i += 2 {
		s := int16(uint16(samples[i]) | uint16(samples[i+1])<<8)
		sumSq += int64(s) * int64(s)
	}
	rms := int32(isqrt(sumSq / int64(n)))
	return rms >= v.Threshold
}

func isqrt(v int64) int64 {
	if v <= 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}

// vadWindow counts trigger edges within a rolling time window and fires
// once trigger_count reaches the configured level, matching spec.md §4.3's
// "trigger_count >= vad_trigger_level within a rolling window".
type vadWindow struct {
	level  int
	window time.Duration

	triggers []time.Time
	fired    bool
}

func newVADWindow(level int, window time.Duration) *vadWindow {
	return &vadWindow{level: level, window: window}
}

// observe records a trigger/non-trigger sample at time t and reports
// whether this call causes a fresh SpeechDetected edge (fires once, then
// stays quiet until reset).
func (w *vadWindow) observe(t time.Time, triggered bool) (fired bool) {
	if w.fired {
		return false
	}
	if triggered {
		w.triggers = append(w.triggers, t)
	}
	cutoff := t.Add(-w.window)
	i := 0
	for i < len(w.triggers) && w.triggers[i].Before(cutoff) {
		i++
	}
	w.triggers = w.triggers[i:]

	if len(w.triggers) >= w.level {
		w.fired = true
		return true
	}
	return false
}

// reset clears accumulated state, called when the mode transitions back to
// WaitingForSpeech.
func (w *vadWindow) reset() {
	w.triggers = nil
	w.fired = false
}
