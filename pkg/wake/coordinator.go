package wake

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/audiodsp"
	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/micpipe"
	"github.com/rhasspy/wyoming-satellite/pkg/peer"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Logger is the minimal logging surface the coordinator needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Warnf(string, ...any)  {}

// Config configures a Coordinator.
type Config struct {
	// Names is the set of wake-word models to arm, sent as one
	// detect{names} call on every wake-peer Connected edge, the first
	// connection included (spec.md §9, codified: detect is always re-sent
	// on reconnect).
	Names []string
	// RefractorySeconds is wake_refractory_seconds, the minimum wall-clock
	// interval between two accepted detections (spec.md §4.5).
	RefractorySeconds float64
	// WakeRate is the sample rate the wake subprocess/peer expects
	// (wake_command_rate). Mic audio is captured and forwarded at whatever
	// rate the active source produces; when that differs from WakeRate,
	// the coordinator resamples each chunk before forwarding it. Zero
	// disables resampling.
	WakeRate int

	Logger Logger
}

// Coordinator is the C5 component. It owns neither the mic pipeline nor
// the wake peer; it holds a subscription to the former and a handle
// (peer.Interface) to the latter, per spec.md §9's cyclic-reference note.
type Coordinator struct {
	cfg    Config
	logger Logger
	mic    *micpipe.Pipeline
	wake   peer.Interface

	detections chan events.Event

	armed atomic.Bool

	mu           sync.Mutex
	lastDetectAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Coordinator and starts its forwarding and detection loops.
// It is only meaningful in SatelliteMode LocalWake (spec.md §4.5).
func New(ctx context.Context, mic *micpipe.Pipeline, wakePeer peer.Interface, cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	cctx, cancel := context.WithCancel(ctx)
	c := &Coordinator{
		cfg:        cfg,
		logger:     logger,
		mic:        mic,
		wake:       wakePeer,
		detections: make(chan events.Event, 8),
		ctx:        cctx,
		cancel:     cancel,
	}

	c.wg.Add(2)
	go c.forwardLoop()
	go c.detectionLoop()

	return c
}

// Detections returns accepted Detection{name} lifecycle events, already
// filtered by the refractory window.
func (c *Coordinator) Detections() <-chan events.Event { return c.detections }

// Arm starts forwarding mic audio to the wake peer. Called when the
// satellite state machine enters WaitingForWake.
func (c *Coordinator) Arm() { c.armed.Store(true) }

// Disarm stops forwarding mic audio to the wake peer without tearing the
// peer connection down (spec.md §4.5: "the coordinator ceases forwarding
// but does not tear down the peer").
func (c *Coordinator) Disarm() { c.armed.Store(false) }

// Close stops the coordinator's background loops and unsubscribes from
// the mic pipeline.
func (c *Coordinator) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Coordinator) forwardLoop() {
	defer c.wg.Done()

	id, ch := c.mic.Subscribe()
	defer c.mic.Unsubscribe(id)

	var resampler *audiodsp.Resampler

	for {
		select {
		case <-c.ctx.Done():
			return
		case chunk, ok := <-ch:
			if !ok {
				return
			}
			if !c.armed.Load() {
				continue
			}

			format, samples := chunk.Format, chunk.Samples
			if c.cfg.WakeRate > 0 && format.Rate > 0 && format.Rate != c.cfg.WakeRate {
				if resampler == nil || resampler.SrcRate() != format.Rate {
					r, err := audiodsp.New(format.Rate, c.cfg.WakeRate)
					if err != nil {
						c.logger.Warnf("wake: resample %d -> %d: %v", format.Rate, c.cfg.WakeRate, err)
						resampler = nil
					} else {
						resampler = r
					}
				}
				if resampler != nil {
					out, err := resampler.Process(samples)
					if err != nil {
						c.logger.Warnf("wake: %v", err)
					} else {
						samples = out
						format.Rate = c.cfg.WakeRate
					}
				}
			}

			ev, err := wyoming.NewAudioChunk(format, chunk.Timestamp, samples)
			if err != nil {
				continue
			}
			c.wake.Publish(ev)
		}
	}
}

// detectionLoop consumes the wake peer's inbound events: it re-arms
// detect{names} on every Connected edge, and filters detection{name}
// through the refractory window before surfacing it on Detections().
func (c *Coordinator) detectionLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case lc, ok := <-c.wake.Lifecycle():
			if !ok {
				return
			}
			if lc.Kind == events.Connected {
				c.sendDetect()
			}
		case ev, ok := <-c.wake.Events():
			if !ok {
				return
			}
			if ev.Type != "detection" {
				continue
			}
			c.handleDetection(ev)
		}
	}
}

func (c *Coordinator) sendDetect() {
	ev, err := wyoming.NewDetect(c.cfg.Names)
	if err != nil {
		return
	}
	c.wake.Publish(ev)
}

func (c *Coordinator) handleDetection(ev *wyoming.Event) {
	d, err := wyoming.DecodeDetection(ev)
	if err != nil {
		c.logger.Warnf("wake: malformed detection event: %v", err)
		return
	}

	now := time.Now()
	c.mu.Lock()
	last := c.lastDetectAt
	refractory := time.Duration(c.cfg.RefractorySeconds * float64(time.Second))
	if !last.IsZero() && now.Sub(last) < refractory {
		c.mu.Unlock()
		c.logger.Debugf("wake: dropping detection %q within refractory window", d.Name)
		return
	}
	c.lastDetectAt = now
	c.mu.Unlock()

	select {
	case c.detections <- events.NewDetection(d.Name):
	case <-c.ctx.Done():
	}
}
