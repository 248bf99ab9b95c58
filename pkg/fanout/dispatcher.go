package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/hook"
	"github.com/rhasspy/wyoming-satellite/pkg/peer"
	"github.com/rhasspy/wyoming-satellite/pkg/sndpipe"
)

// Logger is the minimal logging surface the dispatcher needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Warnf(string, ...any)  {}

// Sound is a local feedback WAV, already loaded into memory at startup.
type Sound struct {
	Data   []byte
	Repeat int
	Delay  time.Duration
}

// Config configures a Dispatcher. Every field is optional; a nil or
// zero-value field simply means that sink is disabled.
type Config struct {
	// EventPeer receives every lifecycle event re-encoded to its
	// canonical wire type (spec.md §4.7 item 1).
	EventPeer peer.Interface

	// Hooks maps a LifecycleEvent kind to the subprocess it fires
	// (spec.md §4.7 item 2). Missing kinds are simply not hooked.
	Hooks map[events.Kind]hook.Spec

	// Snd receives scheduled feedback playback requests. Nil disables
	// WAV feedback entirely.
	Snd *sndpipe.Pipeline

	AwakeWav         *Sound
	DoneWav          *Sound
	TimerFinishedWav *Sound

	// ErrorRateLimit bounds how often an Error lifecycle event reaches
	// the sinks (spec.md §7 "rate-limited to one per second per kind").
	// Zero uses the spec's default of one per second.
	ErrorRateLimit time.Duration

	Logger Logger
}

// Dispatcher is the C7 actor. One Dispatcher exists per satellite
// process; Run drains its source channel until it closes or ctx is
// canceled.
type Dispatcher struct {
	cfg    Config
	logger Logger

	ctx context.Context
	wg  sync.WaitGroup

	mu          sync.Mutex
	lastErrorAt time.Time
}

// New creates a Dispatcher. Call Run to start delivering events.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.ErrorRateLimit <= 0 {
		cfg.ErrorRateLimit = time.Second
	}
	return &Dispatcher{cfg: cfg, logger: logger}
}

// Run delivers every event read from source to all configured sinks, in
// the order it arrives, until source closes or ctx is canceled. Hook
// invocations are spawned concurrently (spec.md §4.7: "non-blocking,
// spawn and forget") so a slow subprocess never delays the next event's
// delivery to the event peer or the WAV scheduler.
func (d *Dispatcher) Run(ctx context.Context, source <-chan events.Event) {
	d.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return
		case ev, ok := <-source:
			if !ok {
				d.wg.Wait()
				return
			}
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev events.Event) {
	if ev.Kind == events.Error && !d.allowError() {
		d.logger.Debugf("fanout: rate-limited error event dropped")
		return
	}

	d.deliverToEventPeer(ev)
	d.deliverToHook(ctx, ev)
	d.deliverToSndScheduler(ev)
}

func (d *Dispatcher) allowError() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	if !d.lastErrorAt.IsZero() && now.Sub(d.lastErrorAt) < d.cfg.ErrorRateLimit {
		return false
	}
	d.lastErrorAt = now
	return true
}

func (d *Dispatcher) deliverToEventPeer(ev events.Event) {
	if d.cfg.EventPeer == nil {
		return
	}
	wireEv, ok := toWire(ev)
	if !ok {
		return
	}
	d.cfg.EventPeer.Publish(wireEv)
}

func (d *Dispatcher) deliverToHook(ctx context.Context, ev events.Event) {
	spec, ok := d.cfg.Hooks[ev.Kind]
	if !ok {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := hook.Run(ctx, spec, ev, d.logger); err != nil {
			d.logger.Warnf("fanout: hook for %s: %v", ev.Kind, err)
		}
	}()
}

func (d *Dispatcher) deliverToSndScheduler(ev events.Event) {
	if d.cfg.Snd == nil {
		return
	}
	switch ev.Kind {
	case events.Detection:
		d.playSound(d.cfg.AwakeWav, sndpipe.Feedback)
	case events.TtsStop:
		d.playSound(d.cfg.DoneWav, sndpipe.Feedback)
	case events.TimerFinished:
		d.playSound(d.cfg.TimerFinishedWav, sndpipe.TimerFinished)
	}
}

func (d *Dispatcher) playSound(s *Sound, reason sndpipe.Reason) {
	if s == nil || len(s.Data) == 0 {
		return
	}
	d.cfg.Snd.Enqueue(sndpipe.PlaybackRequest{
		Reason: reason,
		Source: sndpipe.LocalWav(s.Data, s.Repeat, s.Delay),
	})
}
