package wyoming

import "errors"

// ErrFraming is returned for any malformed frame: a truncated header line,
// invalid header JSON, or a short read on a sized section. It is always
// fatal for the connection that produced it.
var ErrFraming = errors.New("wyoming: framing error")

// ErrClosed is returned when reading from or writing to a closed connection.
var ErrClosed = errors.New("wyoming: connection closed")
