// Package sndpipe serializes playback of server-streamed TTS audio and
// local feedback WAVs onto a single active sink, grounded on the teacher's
// pkg/chatgear/port_server.go ServerPort: a bounded request queue feeding
// a goroutine that owns the one sink allowed to be writing at a time, with
// a close-current-before-starting-next track replacement shape.
package sndpipe
