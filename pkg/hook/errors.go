package hook

import "errors"

// ErrHook wraps any subprocess spawn or timeout failure (spec.md §7). Hook
// failures are logged and otherwise ignored: they never affect satellite
// state.
var ErrHook = errors.New("hook: subprocess error")
