// Package events defines LifecycleEvent, the closed tagged-variant type
// the satellite state machine emits toward pkg/fanout, grounded on the
// chatgear.Command / chatgear.GearStateEvent tagged-variant pattern from
// the teacher repo (pkg/chatgear/command.go, pkg/chatgear/state.go).
package events

import "fmt"

// Kind identifies which LifecycleEvent variant an Event carries.
type Kind string

const (
	Startup        Kind = "startup"
	Connected      Kind = "connected"
	Disconnected   Kind = "disconnected"
	Detect         Kind = "detect"
	Detection      Kind = "detection"
	VoiceStarted   Kind = "voice-started"
	VoiceStopped   Kind = "voice-stopped"
	Transcript     Kind = "transcript"
	Synthesize     Kind = "synthesize"
	TtsStart       Kind = "tts-start"
	TtsStop        Kind = "tts-stop"
	TtsPlayed      Kind = "tts-played"
	StreamingStart Kind = "streaming-start"
	StreamingStop  Kind = "streaming-stop"
	Error          Kind = "error"
	TimerStarted   Kind = "timer-started"
	TimerUpdated   Kind = "timer-updated"
	TimerCancelled Kind = "timer-cancelled"
	TimerFinished  Kind = "timer-finished"
	// Unknown carries an event type the satellite doesn't recognize. The
	// state machine ignores unrecognized wire types and keeps no count of
	// them.
	Unknown Kind = "unknown"
)

// Timer is the data-model projection of a server-announced timer
// (spec.md §3 "Timer"). RemainingSeconds is a snapshot taken at event
// construction time, not a live-updating field.
type Timer struct {
	ID               string
	Name             string
	TotalSeconds     float64
	RemainingSeconds float64
	IsActive         bool
	StartedHRTS      float64
	IsPaused         bool
	PausedHRTS       float64
}

// Event is one LifecycleEvent. Only the fields relevant to Kind are set;
// the rest are zero. This mirrors chatgear.CommandEvent's single-struct
// tagged-variant shape rather than a Go type-switch interface, since every
// LifecycleEvent variant here is a "type tag + small flat payload" and
// doesn't need per-variant methods.
type Event struct {
	Kind Kind

	Name    string // Detection.Name
	Text    string // Transcript.Text, Synthesize.Text, Error.Text
	Timer   *Timer // TimerStarted, TimerUpdated
	TimerID string // TimerCancelled.ID, TimerFinished.ID

	RawType string // Unknown
	RawData []byte // Unknown
}

func (e Event) String() string {
	switch e.Kind {
	case Detection:
		return fmt.Sprintf("detection(%s)", e.Name)
	case Transcript:
		return fmt.Sprintf("transcript(%q)", e.Text)
	case Synthesize:
		return fmt.Sprintf("synthesize(%q)", e.Text)
	case Error:
		return fmt.Sprintf("error(%q)", e.Text)
	case TimerStarted, TimerUpdated:
		if e.Timer != nil {
			return fmt.Sprintf("%s(%s)", e.Kind, e.Timer.ID)
		}
		return string(e.Kind)
	case TimerCancelled, TimerFinished:
		return fmt.Sprintf("%s(%s)", e.Kind, e.TimerID)
	case Unknown:
		return fmt.Sprintf("unknown(%s)", e.RawType)
	default:
		return string(e.Kind)
	}
}

func NewStartup() Event        { return Event{Kind: Startup} }
func NewConnected() Event      { return Event{Kind: Connected} }
func NewDisconnected() Event   { return Event{Kind: Disconnected} }
func NewDetect() Event         { return Event{Kind: Detect} }
func NewVoiceStarted() Event   { return Event{Kind: VoiceStarted} }
func NewVoiceStopped() Event   { return Event{Kind: VoiceStopped} }
func NewTtsStart() Event       { return Event{Kind: TtsStart} }
func NewTtsStop() Event        { return Event{Kind: TtsStop} }
func NewTtsPlayed() Event      { return Event{Kind: TtsPlayed} }
func NewStreamingStart() Event { return Event{Kind: StreamingStart} }
func NewStreamingStop() Event  { return Event{Kind: StreamingStop} }

func NewDetection(name string) Event          { return Event{Kind: Detection, Name: name} }
func NewTranscript(text string) Event         { return Event{Kind: Transcript, Text: text} }
func NewSynthesize(text string) Event         { return Event{Kind: Synthesize, Text: text} }
func NewError(text string) Event              { return Event{Kind: Error, Text: text} }
func NewTimerStarted(t Timer) Event           { return Event{Kind: TimerStarted, Timer: &t} }
func NewTimerUpdated(t Timer) Event           { return Event{Kind: TimerUpdated, Timer: &t} }
func NewTimerCancelled(id string) Event       { return Event{Kind: TimerCancelled, TimerID: id} }
func NewTimerFinished(id string) Event        { return Event{Kind: TimerFinished, TimerID: id} }
func NewUnknown(rawType string, raw []byte) Event {
	return Event{Kind: Unknown, RawType: rawType, RawData: raw}
}
