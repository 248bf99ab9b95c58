// Package timers implements the satellite's timer registry (spec.md §4.8,
// C8): a single actor owning a map of server-announced timers, one
// countdown goroutine per active timer, linearizing OnStarted/OnUpdated/
// OnCancelled through its own inbox the way the teacher's pkg/mqtt0
// broker dispatches on a single goroutine.
package timers
