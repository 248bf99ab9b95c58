package fanout

import (
	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// toWire re-encodes a LifecycleEvent to its canonical Wyoming wire type for
// best-effort delivery to the event peer (spec.md §4.7 item 1). Kinds with
// no wire representation of their own (StreamingStart/Stop, TtsPlayed,
// Unknown, ...) report ok=false and are simply not forwarded.
func toWire(ev events.Event) (*wyoming.Event, bool) {
	var (
		wireEv *wyoming.Event
		err    error
	)

	switch ev.Kind {
	case events.Connected, events.Disconnected, events.Startup, events.Detect,
		events.StreamingStart, events.StreamingStop, events.TtsPlayed, events.Unknown:
		return nil, false

	case events.Detection:
		wireEv, err = wyoming.NewDetection(wyoming.Detection{Name: ev.Name})
	case events.VoiceStarted:
		wireEv, err = wyoming.New("voice-started", wyoming.VoiceStarted{})
	case events.VoiceStopped:
		wireEv, err = wyoming.New("voice-stopped", wyoming.VoiceStopped{})
	case events.Transcript:
		wireEv, err = wyoming.New("transcript", wyoming.Transcription{Text: ev.Text})
	case events.Synthesize:
		wireEv, err = wyoming.New("synthesize", wyoming.Synthesize{Text: ev.Text})
	case events.TtsStart:
		wireEv, err = wyoming.New("tts-start", nil)
	case events.TtsStop:
		wireEv, err = wyoming.New("tts-stop", nil)
	case events.Error:
		wireEv, err = wyoming.New("error", wyoming.ServerError{Text: ev.Text})
	case events.TimerStarted:
		wireEv, err = wyoming.NewTimerStarted(timerInfoFromEvent(ev))
	case events.TimerUpdated:
		wireEv, err = wyoming.NewTimerUpdated(timerInfoFromEvent(ev))
	case events.TimerCancelled:
		wireEv, err = wyoming.NewTimerCancelled(ev.TimerID)
	case events.TimerFinished:
		wireEv, err = wyoming.NewTimerFinished(ev.TimerID)
	default:
		return nil, false
	}

	if err != nil {
		return nil, false
	}
	return wireEv, true
}

func timerInfoFromEvent(ev events.Event) wyoming.TimerInfo {
	if ev.Timer == nil {
		return wyoming.TimerInfo{}
	}
	t := ev.Timer
	return wyoming.TimerInfo{
		ID:               t.ID,
		Name:             t.Name,
		TotalSeconds:     t.TotalSeconds,
		RemainingSeconds: t.RemainingSeconds,
		IsActive:         t.IsActive,
		StartedHRTS:      t.StartedHRTS,
		IsPaused:         t.IsPaused,
		PausedHRTS:       t.PausedHRTS,
	}
}
