package sndpipe

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
)

// Logger is the minimal logging surface the pipeline needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// Muter mutes the mic pipeline around a Feedback WAV, implemented by
// micpipe.Pipeline.
type Muter interface {
	SetMuted(bool)
	MuteUntil(time.Time)
}

// ErrNoActivePlayback is returned by PushChunk/EndChunks when there is no
// ServerAudio request currently playing to feed.
var ErrNoActivePlayback = errors.New("sndpipe: no active server-audio playback")

// Config configures a Pipeline.
type Config struct {
	// QueueMax is snd_queue_max, the bounded depth of not-yet-started
	// requests.
	QueueMax int

	Sink  Sink
	Muter Muter

	// MuteSecondsAfterAwakeWav is mic_seconds_to_mute_after_awake_wav.
	MuteSecondsAfterAwakeWav float64
	// NoMuteDuringAwakeWav is mic_no_mute_during_awake_wav.
	NoMuteDuringAwakeWav bool

	// GraceMs extends ExpectedDuration when the sink can't report drain.
	GraceMs time.Duration

	Logger Logger
}

// genState tracks the live feed channels for whichever ServerAudio request
// is currently playing. Only one exists at a time; LocalWav requests never
// allocate one.
type genState struct {
	chunkCh chan []byte
	endCh   chan struct{}
	endOnce sync.Once
	aborted bool
}

// Pipeline is the serial playback actor described by spec.md §4.4. One
// Pipeline exists per satellite process.
type Pipeline struct {
	cfg    Config
	logger Logger
	queue  *requestQueue

	lifecycle chan events.Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu  sync.Mutex
	gen *genState
}

// New creates a Pipeline and starts its actor loop.
func New(ctx context.Context, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	pctx, cancel := context.WithCancel(ctx)
	p := &Pipeline{
		cfg:       cfg,
		logger:    logger,
		queue:     newRequestQueue(cfg.QueueMax),
		lifecycle: make(chan events.Event, 32),
		ctx:       pctx,
		cancel:    cancel,
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Lifecycle returns TtsPlayed events for consumption by the satellite
// state machine, which emits TtsStart/TtsStop itself.
func (p *Pipeline) Lifecycle() <-chan events.Event { return p.lifecycle }

// Enqueue admits a new PlaybackRequest, applying the overflow eviction
// policy (spec.md §4.4) when the queue is full.
func (p *Pipeline) Enqueue(req PlaybackRequest) bool {
	return p.queue.push(req)
}

// PushChunk feeds one chunk of server-streamed audio into whatever
// ServerAudio request is currently playing.
func (p *Pipeline) PushChunk(samples []byte) error {
	g := p.currentGen()
	if g == nil {
		return ErrNoActivePlayback
	}
	select {
	case g.chunkCh <- samples:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// EndChunks signals that the server has finished streaming the current
// ServerAudio request (it sent audio-stop).
func (p *Pipeline) EndChunks() {
	g := p.currentGen()
	if g == nil {
		return
	}
	g.endOnce.Do(func() { close(g.endCh) })
}

// Abort ends the current ServerAudio request early, e.g. because the main
// server peer disconnected mid-utterance. Like a normal EndChunks it still
// produces a clean TtsPlayed, but skips waiting for sink drain; the
// matching TtsStop is emitted by pkg/satellite.
func (p *Pipeline) Abort() {
	p.mu.Lock()
	g := p.gen
	if g != nil {
		g.aborted = true
	}
	p.mu.Unlock()
	if g == nil {
		return
	}
	g.endOnce.Do(func() { close(g.endCh) })
}

func (p *Pipeline) currentGen() *genState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Close stops the actor loop, abandoning any queued or in-flight request.
func (p *Pipeline) Close() error {
	p.cancel()
	p.queue.close()
	p.wg.Wait()
	return nil
}

func (p *Pipeline) emitLifecycle(ev events.Event) {
	select {
	case p.lifecycle <- ev:
	case <-p.ctx.Done():
	}
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		req, ok := p.popWithContext()
		if !ok {
			return
		}
		p.play(req)
	}
}

func (p *Pipeline) popWithContext() (PlaybackRequest, bool) {
	type result struct {
		req PlaybackRequest
		ok  bool
	}
	done := make(chan result, 1)
	go func() {
		req, ok := p.queue.pop()
		done <- result{req, ok}
	}()
	select {
	case r := <-done:
		return r.req, r.ok
	case <-p.ctx.Done():
		return PlaybackRequest{}, false
	}
}

func (p *Pipeline) play(req PlaybackRequest) {
	format := req.Format
	var samples []byte

	if !req.Source.server {
		f, s, err := decodeWav(req.Source.WavBytes)
		if err != nil {
			p.logger.Warnf("sndpipe: %v", err)
			return
		}
		format, samples = f, s
	}

	p.setCurrent(req.Source.server)
	defer p.clearCurrent()

	// TtsStart/TtsStop are owned by pkg/satellite (spec.md §4.6), emitted
	// at the moment the state machine decides to enter/leave AwaitingTts;
	// this actor only owns the later TtsPlayed signal once the sink drains.
	muting := req.Reason == Feedback && !p.cfg.NoMuteDuringAwakeWav && p.cfg.Muter != nil
	if muting {
		p.cfg.Muter.SetMuted(true)
	}

	aborted := false
	if err := p.cfg.Sink.Start(format); err != nil {
		p.logger.Warnf("sndpipe: %v: start: %v", ErrDeviceBusy, err)
		aborted = true
	}

	if !aborted {
		if req.Source.server {
			aborted = p.playServerAudio(req)
		} else {
			aborted = p.playLocalWav(req, samples)
		}
	}

	if err := p.cfg.Sink.Stop(); err != nil {
		p.logger.Warnf("sndpipe: %v: stop: %v", ErrDeviceBusy, err)
	}

	if muting {
		d := time.Duration(p.cfg.MuteSecondsAfterAwakeWav * float64(time.Second))
		p.cfg.Muter.MuteUntil(time.Now().Add(d))
	}

	if req.Reason == Tts {
		p.awaitDrainOrTimeout(req)
		p.emitLifecycle(events.NewTtsPlayed())
	}
}

func (p *Pipeline) setCurrent(server bool) {
	p.mu.Lock()
	if server {
		p.gen = &genState{
			chunkCh: make(chan []byte, 8),
			endCh:   make(chan struct{}),
		}
	} else {
		p.gen = nil
	}
	p.mu.Unlock()
}

func (p *Pipeline) clearCurrent() {
	p.mu.Lock()
	p.gen = nil
	p.mu.Unlock()
}

// playServerAudio blocks writing chunks to the sink as they arrive from
// the server until EndChunks is called, the sink fails, or the pipeline
// is closed. Returns true if playback was aborted (sink failure).
func (p *Pipeline) playServerAudio(req PlaybackRequest) bool {
	g := p.currentGen()
	for {
		select {
		case samples := <-g.chunkCh:
			if err := p.cfg.Sink.Write(samples); err != nil {
				p.logger.Warnf("sndpipe: %v: write: %v", ErrDeviceBusy, err)
				return true
			}
		case <-g.endCh:
			return false
		case <-p.ctx.Done():
			return true
		}
	}
}

// playLocalWav writes the decoded WAV samples Source.WavRepeat times,
// pausing Source.WavDelay between repeats.
func (p *Pipeline) playLocalWav(req PlaybackRequest, samples []byte) bool {
	for i := 0; i < req.Source.WavRepeat; i++ {
		if err := p.cfg.Sink.Write(samples); err != nil {
			p.logger.Warnf("sndpipe: %v: write: %v", ErrDeviceBusy, err)
			return true
		}
		if i+1 < req.Source.WavRepeat && req.Source.WavDelay > 0 {
			select {
			case <-time.After(req.Source.WavDelay):
			case <-p.ctx.Done():
				return true
			}
		}
	}
	return false
}

// awaitDrainOrTimeout implements spec.md §4.4/§9's TtsPlayed timing: if the
// sink can report drain, wait for it; otherwise sleep up to
// ExpectedDuration+GraceMs.
func (p *Pipeline) awaitDrainOrTimeout(req PlaybackRequest) {
	if g := p.currentGen(); g != nil && g.aborted {
		return
	}
	if d, ok := p.cfg.Sink.(Drainer); ok {
		d.Drain()
		return
	}
	deadline := req.ExpectedDuration + p.cfg.GraceMs
	if deadline <= 0 {
		return
	}
	t := time.NewTimer(deadline)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.ctx.Done():
	}
}
