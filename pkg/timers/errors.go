package timers

import "errors"

// ErrUnknownTimer is logged at debug level when a cancel/update arrives for
// an id the registry has never seen or has already removed (spec.md §8
// scenario 6, "a subsequent timer-cancelled is a no-op").
var ErrUnknownTimer = errors.New("timers: unknown timer id")
