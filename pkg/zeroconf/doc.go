// Package zeroconf publishes the satellite's `_wyoming._tcp.local.` mDNS
// record (spec.md §6 "Discovery"). The teacher has no mDNS dependency of
// its own, so this is grounded directly on the spec's requirement and
// implemented with the ecosystem's de facto zeroconf library rather than
// a hand-rolled mDNS responder.
package zeroconf
