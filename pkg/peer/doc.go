// Package peer implements a single reconnecting Wyoming protocol peer: the
// satellite's connection to its mic, snd, wake, event, and main-server
// endpoints. A Peer dials asynchronously, reconnects with capped exponential
// backoff and jitter on any read/write failure, and exposes inbound events
// and connection lifecycle transitions as channels.
//
// The connect/keepalive/receive-loop shape is grounded on
// pkg/mqtt0.Client's handshake-then-Recv-loop structure; the reconnect
// backoff is grounded on session.Reconnector's doubling-with-cap loop, with
// jitter added on top.
package peer
