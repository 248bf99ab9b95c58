package sndpipe

import "errors"

// ErrDeviceBusy is returned by a Sink when it cannot be opened or written
// to, e.g. a subprocess-backed player that failed to start or whose pipe
// closed mid-stream (spec.md §7).
var ErrDeviceBusy = errors.New("sndpipe: device busy")
