// Package satellite implements C6, the satellite state machine: the
// single actor that owns SessionState and drives the mode-dependent
// transition table of spec.md §4.6 across all three SatelliteMode values.
// It holds a peer.Interface handle to the main server session plus
// handles to the mic pipeline, the snd pipeline, and (in LocalWake mode)
// the wake coordinator, but owns no transport itself — grounded on the teacher's
// state-enum shape (pkg/chatgear/state.go's GearState/String/UnmarshalJSON)
// generalized to a 3-mode machine, with the single-goroutine dispatch
// shape of pkg/mqtt0's broker.
package satellite
