package mainserver

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/peer"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Logger is the minimal logging surface the listener needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}

// Config configures a Listener.
type Config struct {
	// URI is the bind address, tcp://host:port or unix:///path/to/socket.
	URI string

	EventsBuffer int

	Logger Logger
}

// session is one accepted connection. Only one is ever current. id is a
// synthetic identifier assigned at accept time purely for log correlation
// across the accept/evict/retire lifecycle; it never crosses the wire.
type session struct {
	id     string
	conn   *wyoming.Conn
	cancel context.CancelFunc
}

// Listener is the C9 actor: it accepts connections on cfg.URI and pins
// exactly one active session at a time (spec.md §4.9). It implements
// peer.Interface so pkg/satellite.Machine treats it identically to a
// dialed peer.Peer, never needing to know which side dialed.
type Listener struct {
	cfg    Config
	logger Logger

	ln net.Listener

	eventsCh  chan *wyoming.Event
	lifecycle chan events.Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	current *session
}

// Listen binds cfg.URI and starts accepting connections.
func Listen(ctx context.Context, cfg Config) (*Listener, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	buf := cfg.EventsBuffer
	if buf <= 0 {
		buf = 32
	}

	ln, err := wyoming.Listen(cfg.URI)
	if err != nil {
		return nil, err
	}

	lctx, cancel := context.WithCancel(ctx)
	l := &Listener{
		cfg:       cfg,
		logger:    logger,
		ln:        ln,
		eventsCh:  make(chan *wyoming.Event, buf),
		lifecycle: make(chan events.Event, 8),
		ctx:       lctx,
		cancel:    cancel,
	}

	l.wg.Add(1)
	go l.acceptLoop()

	go func() {
		<-lctx.Done()
		ln.Close()
	}()

	return l, nil
}

// Publish writes ev to the current session, if any. backpressure is
// always false: a stuck write blocks the caller rather than queueing,
// since only one TTS/control stream exists at a time on this side.
func (l *Listener) Publish(ev *wyoming.Event) (backpressure bool) {
	l.mu.Lock()
	s := l.current
	l.mu.Unlock()
	if s == nil {
		return false
	}
	if err := s.conn.WriteEvent(ev); err != nil {
		l.logger.Warnf("mainserver: %v: write %s: %v", peer.ErrTransport, ev.Type, err)
	}
	return false
}

func (l *Listener) Events() <-chan *wyoming.Event  { return l.eventsCh }
func (l *Listener) Lifecycle() <-chan events.Event { return l.lifecycle }

// Close stops accepting connections and tears down the active session.
func (l *Listener) Close() error {
	l.cancel()
	l.mu.Lock()
	s := l.current
	l.mu.Unlock()
	if s != nil {
		s.conn.Close()
	}
	l.wg.Wait()
	return nil
}

func (l *Listener) emit(ev events.Event) {
	select {
	case l.lifecycle <- ev:
	case <-l.ctx.Done():
	}
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		nc, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.ctx.Done():
			default:
				l.logger.Warnf("mainserver: %v: accept: %v", peer.ErrTransport, err)
			}
			return
		}
		l.adopt(nc)
	}
}

// adopt evicts any existing session before installing nc as the new
// active one (spec.md §4.9: "accepting a new connection while one is
// active closes the prior session").
func (l *Listener) adopt(nc net.Conn) {
	l.mu.Lock()
	prev := l.current
	sctx, cancel := context.WithCancel(l.ctx)
	s := &session{id: uuid.NewString(), conn: wyoming.NewConn(nc), cancel: cancel}
	l.current = s
	l.mu.Unlock()

	if prev != nil {
		l.logger.Infof("mainserver: session %s evicted by %s", prev.id, s.id)
		prev.cancel()
		prev.conn.Close()
		l.emit(events.NewDisconnected())
	}

	l.logger.Infof("mainserver: session %s accepted from %s", s.id, nc.RemoteAddr())
	l.emit(events.NewConnected())

	l.wg.Add(1)
	go l.readLoop(sctx, s)
}

func (l *Listener) readLoop(ctx context.Context, s *session) {
	defer l.wg.Done()
	defer s.conn.Close()

	for {
		ev, err := s.conn.ReadEvent()
		if err != nil {
			l.retire(s)
			return
		}
		select {
		case l.eventsCh <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// retire clears s as the current session, if it still is one, and emits
// Disconnected. A session evicted by adopt has already been cleared (and
// its Disconnected already emitted there) by the time its readLoop
// unblocks and calls retire, so this is a no-op for it.
func (l *Listener) retire(s *session) {
	l.mu.Lock()
	wasCurrent := l.current == s
	if wasCurrent {
		l.current = nil
	}
	l.mu.Unlock()

	if wasCurrent {
		l.logger.Infof("mainserver: session %s disconnected", s.id)
		l.emit(events.NewDisconnected())
	}
}

var _ peer.Interface = (*Listener)(nil)
