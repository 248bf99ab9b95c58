// Package wake drives the local wake-word peer described by spec.md
// §4.5/C5: it forwards mic audio to the wake peer only while armed, applies
// the detection refractory window, and relays accepted detections to the
// satellite state machine. Grounded on the teacher's subscribe/forward
// shape in pkg/chatgear/conn_mqtt.go (channel-fed goroutine relaying one
// source's output to another's input).
package wake
