// Package mainserver implements C9, the bind-and-accept side of the main
// Wyoming session: the satellite listens for a single upstream
// voice-assistant server to connect rather than dialing out. Grounded on
// the teacher's accept-loop/session-pinning shape in
// pkg/chatgear/listener.go and pkg/mqtt0/listener.go, generalized from
// "one managedPort per device" to "exactly one active session, evicting
// whichever session came before it" (spec.md §4.9).
package mainserver
