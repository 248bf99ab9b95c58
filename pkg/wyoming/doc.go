// Package wyoming implements the Wyoming wire protocol: a length-prefixed
// framing of a JSON header, an optional JSON data section, and an optional
// raw binary payload, plus the closed set of message types the satellite
// emits and consumes.
package wyoming
