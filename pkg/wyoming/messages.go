package wyoming

// This file defines the closed set of Wyoming message types the satellite
// emits and consumes (spec.md §6), each as a typed constructor plus a
// decode helper. Unknown types are left to the caller — see events.Unknown.

// --- Handshake -------------------------------------------------------

// AudioFormat describes a PCM stream: sample rate, sample width in bytes,
// and channel count.
type AudioFormat struct {
	Rate     int `json:"rate"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

// Describe asks a peer to announce itself via Info.
func Describe() (*Event, error) { return New("describe", nil) }

// SatelliteInfo is the satellite half of an Info event.
type SatelliteInfo struct {
	Name                string       `json:"name"`
	Area                string       `json:"area,omitempty"`
	SndFormat           *AudioFormat `json:"snd_format,omitempty"`
	SupportsTrigger     bool         `json:"supports_trigger"`
	ActiveWakeWordNames []string     `json:"active_wake_word_names,omitempty"`
}

// SoftwareInfo identifies the software producing an Info event.
type SoftwareInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Info is the handshake reply to Describe.
type Info struct {
	Satellite       *SatelliteInfo `json:"satellite,omitempty"`
	Software        *SoftwareInfo  `json:"software,omitempty"`
	PingSupported   bool           `json:"ping_supported,omitempty"`
	MicFormat       *AudioFormat   `json:"mic_format,omitempty"`
	SndFormat       *AudioFormat   `json:"snd_format,omitempty"`
	WakeFormat      *AudioFormat   `json:"wake_format,omitempty"`
	ActiveWakeWords []string       `json:"active_wake_words,omitempty"`
}

// NewInfo builds an info event.
func NewInfo(info *Info) (*Event, error) { return New("info", info) }

// DecodeInfo parses an info event's data.
func DecodeInfo(ev *Event) (*Info, error) {
	var v Info
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// --- Liveness ----------------------------------------------------------

// Ping carries an opaid round-trip token.
type Ping struct {
	Text string `json:"text,omitempty"`
}

// NewPing builds a ping event.
func NewPing(text string) (*Event, error) { return New("ping", Ping{Text: text}) }

// NewPong builds a pong event, echoing the ping's text.
func NewPong(text string) (*Event, error) { return New("pong", Ping{Text: text}) }

// --- Pipeline lifecycle --------------------------------------------------

// RunPipeline requests the server run its ASR/intent/TTS pipeline.
type RunPipeline struct {
	StartStage    string `json:"start_stage"`
	EndStage      string `json:"end_stage,omitempty"`
	WakeWordName  string `json:"wake_word_name,omitempty"`
	Pipeline      string `json:"pipeline,omitempty"`
}

// NewRunPipeline builds a run-pipeline event.
func NewRunPipeline(r RunPipeline) (*Event, error) { return New("run-pipeline", r) }

// RunSatellite requests the satellite (re)enter its mode-initial state.
// Consumed only; the satellite never emits it.
type RunSatellite struct{}

// PauseSatellite/ResumeSatellite are passthrough control events: the
// satellite forwards them into its state machine but never originates
// them upstream except by relaying a downstream client's request.
type PauseSatellite struct{}
type ResumeSatellite struct{}

func NewPauseSatellite() (*Event, error)  { return New("pause-satellite", nil) }
func NewResumeSatellite() (*Event, error) { return New("resume-satellite", nil) }

// --- Wake ----------------------------------------------------------------

// Detect arms the wake peer with a set of model names.
type Detect struct {
	Names []string `json:"names,omitempty"`
}

func NewDetect(names []string) (*Event, error) { return New("detect", Detect{Names: names}) }

// Detection is emitted by the wake peer and, after refractory filtering and
// relabeling, re-emitted upstream to the main server.
type Detection struct {
	Name      string  `json:"name,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

func NewDetection(d Detection) (*Event, error) { return New("detection", d) }

func DecodeDetection(ev *Event) (*Detection, error) {
	var v Detection
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// --- Audio ---------------------------------------------------------------

// AudioStart brackets the beginning of an audio-chunk stream.
type AudioStart struct {
	Rate      int   `json:"rate"`
	Width     int   `json:"width"`
	Channels  int   `json:"channels"`
	Timestamp int64 `json:"timestamp,omitempty"`
}

func NewAudioStart(f AudioFormat, timestampMs int64) (*Event, error) {
	return New("audio-start", AudioStart{Rate: f.Rate, Width: f.Width, Channels: f.Channels, Timestamp: timestampMs})
}

func DecodeAudioStart(ev *Event) (*AudioStart, error) {
	var v AudioStart
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AudioChunkData is the data section of an audio-chunk event; the samples
// themselves travel as the event's Payload.
type AudioChunkData struct {
	Rate      int   `json:"rate"`
	Width     int   `json:"width"`
	Channels  int   `json:"channels"`
	Timestamp int64 `json:"timestamp,omitempty"`
}

// NewAudioChunk builds an audio-chunk event carrying samples as the payload.
func NewAudioChunk(f AudioFormat, timestampMs int64, samples []byte) (*Event, error) {
	ev, err := New("audio-chunk", AudioChunkData{Rate: f.Rate, Width: f.Width, Channels: f.Channels, Timestamp: timestampMs})
	if err != nil {
		return nil, err
	}
	return ev.WithPayload(samples), nil
}

func DecodeAudioChunk(ev *Event) (*AudioChunkData, error) {
	var v AudioChunkData
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AudioStop brackets the end of an audio-chunk stream.
type AudioStop struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

func NewAudioStop(timestampMs int64) (*Event, error) {
	return New("audio-stop", AudioStop{Timestamp: timestampMs})
}

// Played acknowledges that a TTS utterance finished playing on the sink.
func NewPlayed() (*Event, error) { return New("played", nil) }

// --- ASR/TTS lifecycle from the server -----------------------------------

// Transcription carries the ASR result.
type Transcription struct {
	Text string `json:"text"`
}

func DecodeTranscription(ev *Event) (*Transcription, error) {
	var v Transcription
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Synthesize carries the text the server is about to synthesize.
type Synthesize struct {
	Text string `json:"text"`
}

func DecodeSynthesize(ev *Event) (*Synthesize, error) {
	var v Synthesize
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// VoiceStarted/VoiceStopped are server-side VAD edges (distinct from the
// satellite's own local VAD scorer in pkg/micpipe).
type VoiceStarted struct{}
type VoiceStopped struct{}

// ServerError carries an error message from the server.
type ServerError struct {
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}

func DecodeServerError(ev *Event) (*ServerError, error) {
	var v ServerError
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// --- Timers ----------------------------------------------------------------

// TimerInfo mirrors the server's timer-started/timer-updated payload shape.
type TimerInfo struct {
	ID               string  `json:"id"`
	Name             string  `json:"name,omitempty"`
	TotalSeconds     float64 `json:"total_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	IsActive         bool    `json:"is_active"`
	StartedHRTS      float64 `json:"started_hr_ts,omitempty"`
	IsPaused         bool    `json:"is_paused,omitempty"`
	PausedHRTS       float64 `json:"paused_hr_ts,omitempty"`
}

func DecodeTimerInfo(ev *Event) (*TimerInfo, error) {
	var v TimerInfo
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// NewTimerStarted/Updated/Cancelled/Finished are emitted by the satellite
// toward its own event peer sink, echoing timer lifecycle for external
// consumers (spec.md §4.8, §6).
func NewTimerStarted(t TimerInfo) (*Event, error) { return New("timer-started", t) }
func NewTimerUpdated(t TimerInfo) (*Event, error) { return New("timer-updated", t) }

type TimerCancelledData struct {
	ID string `json:"id"`
}

func NewTimerCancelled(id string) (*Event, error) {
	return New("timer-cancelled", TimerCancelledData{ID: id})
}

func DecodeTimerCancelled(ev *Event) (*TimerCancelledData, error) {
	var v TimerCancelledData
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

type TimerFinishedData struct {
	ID string `json:"id"`
}

func NewTimerFinished(id string) (*Event, error) {
	return New("timer-finished", TimerFinishedData{ID: id})
}

func DecodeTimerFinished(ev *Event) (*TimerFinishedData, error) {
	var v TimerFinishedData
	if err := ev.DecodeData(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
