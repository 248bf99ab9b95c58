package peer

import "errors"

// ErrTransport is wrapped by dial/read/write failures; it always triggers
// the reconnect loop (spec.md §7).
var ErrTransport = errors.New("peer: transport error")

// ErrProtocol is returned for a well-framed but unexpected or malformed
// message; the caller logs, drops the message, and continues without
// tearing down the connection.
var ErrProtocol = errors.New("peer: protocol error")
