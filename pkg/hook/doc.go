// Package hook implements the satellite's subprocess-hook capability
// (spec.md §4.7/§9): for each LifecycleEvent kind the operator configures
// a command and a stdin policy. Invocations are fire-and-forget from the
// caller's perspective (pkg/fanout spawns a goroutine per call) with a
// hard wall-clock timeout; stderr is captured for logs and the exit code
// never affects satellite state.
//
// No example repo in the retrieval pack wraps subprocess invocation in a
// third-party library, so this is one of the few packages that legitimately
// carries stdlib os/exec with no ecosystem substitute (see DESIGN.md).
package hook
