package micpipe

import (
	"sync"
	"time"
)

// Logger is the minimal logging surface the pipeline needs.
type Logger interface {
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warnf(string, ...any) {}

// Config configures a Pipeline.
type Config struct {
	// Channel selects a single input channel; negative disables selection.
	Channel int
	// Volume is the linear gain multiplier applied before AGC. Default 1.0.
	Volume float64

	AGC      AGC
	Denoiser Denoiser

	// VADTriggerLevel and VADWindow implement spec.md §4.3's rolling-window
	// trigger count. Only meaningful in VAD-gated satellite modes.
	VADTriggerLevel int
	VADWindow       time.Duration
	VADScorer       VADScorer

	// PrerollWindow is vad_buffer_seconds, expressed as a duration.
	PrerollWindow time.Duration

	// SubscriberBuffer bounds each subscriber's channel depth.
	SubscriberBuffer int

	Logger Logger
}

// Pipeline is the mic processing chain plus its broadcaster and pre-roll
// buffer. One Pipeline exists per satellite process.
type Pipeline struct {
	cfg    Config
	logger Logger

	muteMu    sync.RWMutex
	muted     bool
	muteUntil time.Time

	vad    *vadWindow
	scorer VADScorer

	speechCh chan struct{}

	bc      *broadcaster
	preroll *preroll
}

// New creates a Pipeline ready to Ingest chunks.
func New(cfg Config) *Pipeline {
	if cfg.Volume == 0 {
		cfg.Volume = 1.0
	}
	if cfg.AGC == nil {
		cfg.AGC = NoopAGC{}
	}
	if cfg.Denoiser == nil {
		cfg.Denoiser = NoopDenoiser{}
	}
	if cfg.VADScorer == nil {
		cfg.VADScorer = EnergyVAD{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		scorer:   cfg.VADScorer,
		vad:      newVADWindow(cfg.VADTriggerLevel, cfg.VADWindow),
		speechCh: make(chan struct{}, 1),
		bc:       newBroadcaster(cfg.SubscriberBuffer),
		preroll:  newPreroll(cfg.PrerollWindow),
	}
	p.bc.onDrop = func(subID int) {
		logger.Warnf("micpipe: subscriber %d too slow, dropped a chunk", subID)
	}
	return p
}

// Ingest runs one raw chunk through the stage chain and publishes the
// result to all subscribers and the pre-roll buffer.
func (p *Pipeline) Ingest(c Chunk) {
	samples := selectChannel(c.Samples, c.Format, p.cfg.Channel)
	samples = applyVolume(samples, p.cfg.Volume)

	if agcOut, err := p.cfg.AGC.Apply(samples, c.Format); err != nil {
		p.logger.Warnf("micpipe: agc stage: %v", err)
	} else {
		samples = agcOut
	}

	if dnOut, err := p.cfg.Denoiser.Apply(samples, c.Format); err != nil {
		p.logger.Warnf("micpipe: denoiser stage: %v", err)
	} else {
		samples = dnOut
	}

	if p.Muted() {
		samples = silence(samples)
	}

	out := Chunk{Format: c.Format, Timestamp: c.Timestamp, Samples: samples}

	if p.vad.level > 0 {
		triggered := p.scorer.Score(samples, c.Format)
		if p.vad.observe(time.Now(), triggered) {
			select {
			case p.speechCh <- struct{}{}:
			default:
			}
		}
	}

	p.preroll.add(out)
	p.bc.publish(out)
}

// SpeechDetected fires once per VAD trigger edge (spec.md §4.3).
func (p *Pipeline) SpeechDetected() <-chan struct{} { return p.speechCh }

// ResetVAD clears VAD trigger-window state, called on returning to
// WaitingForSpeech.
func (p *Pipeline) ResetVAD() { p.vad.reset() }

// PrerollFlush returns and clears the buffered pre-speech chunks.
func (p *Pipeline) PrerollFlush() []Chunk { return p.preroll.drain() }

// Subscribe registers a new listener for processed chunks. Call Unsubscribe
// with the returned id when done.
func (p *Pipeline) Subscribe() (id int, ch <-chan Chunk) { return p.bc.subscribe() }

// Unsubscribe removes a listener and closes its channel.
func (p *Pipeline) Unsubscribe(id int) { p.bc.unsubscribe(id) }

// SetMuted implements the Muter interface consumed by pkg/sndpipe.
func (p *Pipeline) SetMuted(muted bool) {
	p.muteMu.Lock()
	p.muted = muted
	p.muteMu.Unlock()
}

// MuteUntil mutes the pipeline until the given time, used for the
// post-feedback-WAV mute window (mic_seconds_to_mute_after_awake_wav).
func (p *Pipeline) MuteUntil(t time.Time) {
	p.muteMu.Lock()
	p.muted = true
	p.muteUntil = t
	p.muteMu.Unlock()
}

// Muted reports whether the mute gate is currently closed, lazily clearing
// a timed mute once its deadline has passed.
func (p *Pipeline) Muted() bool {
	p.muteMu.RLock()
	muted, until := p.muted, p.muteUntil
	p.muteMu.RUnlock()

	if muted && !until.IsZero() && time.Now().After(until) {
		p.muteMu.Lock()
		p.muted = false
		p.muteUntil = time.Time{}
		p.muteMu.Unlock()
		return false
	}
	return muted
}

// Close shuts down all subscriber channels.
func (p *Pipeline) Close() { p.bc.closeAll() }
