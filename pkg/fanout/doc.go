// Package fanout implements C7: it consumes the satellite state
// machine's single ordered LifecycleEvent channel and delivers each event
// to three independent sinks (spec.md §4.7) — an event peer, a set of
// per-kind subprocess hooks, and a feedback WAV scheduler — without
// letting a slow or failing sink hold up the others. Grounded on the
// teacher's single-dispatch-point-to-many-handlers shape in
// pkg/chatgear/listener.go, generalized from "route by topic" to "deliver
// every event to every configured sink."
package fanout
