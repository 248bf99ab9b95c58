package peer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Logger is the minimal logging surface peer needs, matching the teacher's
// slog-wrapped Logger shape so callers can plug in any *slog.Logger.
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

// Config configures a Peer.
type Config struct {
	// Name identifies this peer in log lines (e.g.
	// "mic", "snd", "wake", "event", "main").
	Name string
	// URI is the Wyoming endpoint, tcp://host:port or unix:///path.
	URI string
	// PingInterval is how often a liveness ping is sent once connected.
	// Zero disables pinging.
	PingInterval time.Duration
	// PingTimeout is how long to wait for a pong (or any traffic) before
	// declaring the connection dead. Defaults to 3x PingInterval.
	PingTimeout time.Duration
	// QueueSize bounds the outbound send queue. Default 256.
	QueueSize int
	// BackoffMin/BackoffMax bound the reconnect delay. Defaults 1s/30s.
	BackoffMin, BackoffMax time.Duration
	// EventsBuffer bounds the inbound event channel. Default 256.
	EventsBuffer int
	// Handshake enables the client-side describe/info exchange of spec.md
	// §4.2, used for the server-like endpoints this peer dials (mic, snd,
	// wake, event). The satellite's own main-server listener is the
	// inverse role and never sets this.
	Handshake bool

	// Dialer overrides how a connection generation is established. Nil
	// uses wyoming.Dial(ctx, uri) against URI. Subprocess-backed peers
	// (e.g. wake-command, which speaks full Wyoming framing over its
	// stdio rather than raw PCM) set this to wrap wyoming.DialCommand
	// instead; URI is then used only for logging.
	Dialer func(ctx context.Context, uri string) (*wyoming.Conn, error)

	Logger Logger
}

// Peer is a single reconnecting Wyoming endpoint. Dial returns immediately;
// connection attempts and reconnection happen on a background goroutine.
type Peer struct {
	name   string
	uri    string
	logger Logger

	pingInterval time.Duration
	pingTimeout  time.Duration
	handshake    bool
	pingAllowed  atomic.Bool
	dialer       func(ctx context.Context, uri string) (*wyoming.Conn, error)

	queue     *sendQueue
	eventsCh  chan *wyoming.Event
	lifecycle chan events.Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	connected bool
}

// Dial creates a Peer and starts its connect-and-reconnect loop.
func Dial(ctx context.Context, cfg Config) *Peer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.EventsBuffer <= 0 {
		cfg.EventsBuffer = 256
	}
	if cfg.PingTimeout <= 0 && cfg.PingInterval > 0 {
		cfg.PingTimeout = 3 * cfg.PingInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = wyoming.Dial
	}

	pctx, cancel := context.WithCancel(ctx)
	p := &Peer{
		name:         cfg.Name,
		uri:          cfg.URI,
		logger:       logger,
		pingInterval: cfg.PingInterval,
		pingTimeout:  cfg.PingTimeout,
		handshake:    cfg.Handshake,
		dialer:       dialer,
		queue:        newSendQueue(cfg.QueueSize),
		eventsCh:     make(chan *wyoming.Event, cfg.EventsBuffer),
		lifecycle:    make(chan events.Event, 32),
		ctx:          pctx,
		cancel:       cancel,
	}

	p.pingAllowed.Store(!cfg.Handshake)

	p.wg.Add(1)
	go p.run(cfg.BackoffMin, cfg.BackoffMax)

	return p
}

// Events returns inbound events received from the remote peer.
func (p *Peer) Events() <-chan *wyoming.Event { return p.eventsCh }

// Lifecycle returns Connected/Disconnected transitions for this peer.
func (p *Peer) Lifecycle() <-chan events.Event { return p.lifecycle }

// Publish enqueues ev for sending at its default priority (see Classify).
// It never blocks; under backpressure it applies the queue's drop policy
// and, for audio traffic, reports backpressure so the caller can pace
// itself (spec's 50ms upstream pause).
func (p *Peer) Publish(ev *wyoming.Event) (backpressure bool) {
	return p.PublishPriority(ev, Classify(ev))
}

// PublishPriority enqueues ev at an explicit priority.
func (p *Peer) PublishPriority(ev *wyoming.Event, priority Priority) (backpressure bool) {
	return p.queue.push(ev, priority)
}

// Connected reports whether the peer currently has a live connection.
func (p *Peer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Close stops the peer permanently.
func (p *Peer) Close() error {
	p.cancel()
	p.queue.close()
	p.wg.Wait()
	return nil
}

func (p *Peer) setConnected(c bool) {
	p.mu.Lock()
	p.connected = c
	p.mu.Unlock()
}

func (p *Peer) emitLifecycle(ev events.Event) {
	select {
	case p.lifecycle <- ev:
	case <-p.ctx.Done():
	}
}

func (p *Peer) run(backoffMin, backoffMax time.Duration) {
	defer p.wg.Done()
	bo := newBackoff(backoffMin, backoffMax)

	for {
		if p.ctx.Err() != nil {
			return
		}

		conn, err := p.dialer(p.ctx, p.uri)
		if err != nil {
			p.logger.Warnf("peer %s: %v: dial %s failed: %v", p.name, ErrTransport, p.uri, err)
			if !p.sleep(bo.next()) {
				return
			}
			continue
		}

		p.logger.Infof("peer %s: connected to %s", p.name, p.uri)
		bo.reset()
		p.setConnected(true)
		p.emitLifecycle(events.NewConnected())

		if p.handshake {
			if ev, err := wyoming.Describe(); err == nil {
				if err := conn.WriteEvent(ev); err != nil {
					p.logger.Warnf("peer %s: %v: describe: %v", p.name, ErrTransport, err)
				}
			}
		}

		p.serve(conn)

		p.setConnected(false)
		p.emitLifecycle(events.NewDisconnected())
		conn.Close()

		if p.ctx.Err() != nil {
			return
		}
		if !p.sleep(bo.next()) {
			return
		}
	}
}

func (p *Peer) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// serve runs the read, write, and ping loops for one connection generation
// until any of them fails, then returns.
func (p *Peer) serve(conn *wyoming.Conn) {
	genCtx, genCancel := context.WithCancel(p.ctx)
	defer genCancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p.readLoop(genCtx, conn, genCancel)
	}()
	go func() {
		defer wg.Done()
		p.writeLoop(genCtx, conn, genCancel)
	}()

	if p.pingInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.pingLoop(genCtx, conn, genCancel)
		}()
	}

	wg.Wait()
}

func (p *Peer) readLoop(ctx context.Context, conn *wyoming.Conn, fail context.CancelFunc) {
	for {
		if ctx.Err() != nil {
			return
		}
		if p.pingTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(p.pingTimeout))
		}
		ev, err := conn.ReadEvent()
		if err != nil {
			p.logger.Warnf("peer %s: %v: read: %v", p.name, ErrTransport, err)
			fail()
			return
		}
		if ev.Type == "pong" {
			continue
		}
		if ev.Type == "info" && p.handshake {
			p.applyPingSupported(ev)
		}
		select {
		case p.eventsCh <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Peer) writeLoop(ctx context.Context, conn *wyoming.Conn, fail context.CancelFunc) {
	for {
		ev, ok := p.popWithContext(ctx)
		if !ok {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := conn.WriteEvent(ev); err != nil {
			p.logger.Warnf("peer %s: %v: write: %v", p.name, ErrTransport, err)
			fail()
			return
		}
	}
}

// popWithContext blocks on the send queue but wakes up if ctx is canceled.
func (p *Peer) popWithContext(ctx context.Context) (*wyoming.Event, bool) {
	type result struct {
		ev *wyoming.Event
		ok bool
	}
	done := make(chan result, 1)
	go func() {
		ev, ok := p.queue.pop()
		done <- result{ev, ok}
	}()
	select {
	case r := <-done:
		return r.ev, r.ok
	case <-ctx.Done():
		return nil, false
	}
}

func (p *Peer) applyPingSupported(ev *wyoming.Event) {
	info, err := wyoming.DecodeInfo(ev)
	if err != nil {
		return
	}
	p.pingAllowed.Store(info.PingSupported)
}

func (p *Peer) pingLoop(ctx context.Context, conn *wyoming.Conn, fail context.CancelFunc) {
	ticker := time.NewTicker(p.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.pingAllowed.Load() {
				continue
			}
			ev, err := wyoming.NewPing("")
			if err != nil {
				continue
			}
			if conn.WriteEvent(ev) != nil {
				fail()
				return
			}
		}
	}
}
