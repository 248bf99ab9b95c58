package wyoming

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"
)

// Conn is a single Wyoming connection: a socket plus the framing state
// needed to read and write Events on it. Reads and writes are each
// serialized with their own mutex so a ping writer and the steady-state
// writer never interleave partial frames.
type Conn struct {
	nc net.Conn
	br *bufio.Reader

	readMu  sync.Mutex
	writeMu sync.Mutex
}

// NewConn wraps an already-established net.Conn.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, br: bufio.NewReader(nc)}
}

// Dial connects to a Wyoming peer at uri, which must be tcp://host:port or
// unix:///path/to/socket.
func Dial(ctx context.Context, uri string) (*Conn, error) {
	network, address, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("wyoming: dial %s: %w", uri, err)
	}
	return NewConn(nc), nil
}

// Listen binds a listener for uri, which must be tcp://host:port or
// unix:///path/to/socket.
func Listen(uri string) (net.Listener, error) {
	network, address, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	lis, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("wyoming: listen %s: %w", uri, err)
	}
	return lis, nil
}

func parseURI(uri string) (network, address string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("wyoming: invalid uri %q: %w", uri, err)
	}
	switch u.Scheme {
	case "tcp":
		return "tcp", u.Host, nil
	case "unix":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		return "unix", path, nil
	default:
		return "", "", fmt.Errorf("wyoming: unsupported uri scheme %q", u.Scheme)
	}
}

// ReadEvent reads the next frame. It is safe to call concurrently with
// WriteEvent; concurrent ReadEvent calls are serialized.
func (c *Conn) ReadEvent() (*Event, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	return ReadEvent(c.br)
}

// WriteEvent writes ev as a single frame. Safe to call concurrently with
// ReadEvent; concurrent WriteEvent calls are serialized.
func (c *Conn) WriteEvent(ev *Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteEvent(c.nc, ev)
}

// SetReadDeadline sets the deadline for the next ReadEvent call, used by
// the owning peer to enforce ping-liveness timeouts.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.nc.SetReadDeadline(t)
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// RemoteAddr returns the remote network address, if known.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}
