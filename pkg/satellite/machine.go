package satellite

import (
	"context"
	"sync"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/micpipe"
	"github.com/rhasspy/wyoming-satellite/pkg/peer"
	"github.com/rhasspy/wyoming-satellite/pkg/sndpipe"
	"github.com/rhasspy/wyoming-satellite/pkg/timers"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Logger is the minimal logging surface the machine needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}

// WakeCoordinator is the subset of wake.Coordinator the machine drives:
// arming/disarming forwarding and consuming accepted detections.
// Satisfied by *wake.Coordinator; nil in Always/VadGated modes.
type WakeCoordinator interface {
	Arm()
	Disarm()
	Detections() <-chan events.Event
}

// Config configures a Machine.
type Config struct {
	Mode Mode

	// Server is the single logical peer.Interface representing whichever
	// upstream session is currently active (pkg/mainserver.Listener).
	Server peer.Interface
	Mic    *micpipe.Pipeline
	Snd    *sndpipe.Pipeline
	Wake   WakeCoordinator
	Timers *timers.Registry

	Satellite wyoming.SatelliteInfo
	Software  wyoming.SoftwareInfo

	// VadWakeWordTimeout is vad_wake_word_timeout: how long Streaming may
	// go without server activity before falling back to WaitingForSpeech
	// (VadGated mode only).
	VadWakeWordTimeout time.Duration

	// WakeWordPipelines maps a wake-word name to the pipeline string sent
	// in run-pipeline{pipeline: ...} (the "name [pipeline]" CLI syntax).
	WakeWordPipelines map[string]string

	Logger Logger
}

// Machine is the C6 actor. One Machine exists per satellite process; its
// Run method blocks until ctx is canceled.
type Machine struct {
	cfg    Config
	logger Logger

	state State
	mode  Mode

	micForwarding bool
	ttsFormat     wyoming.AudioFormat

	silenceTimer *time.Timer

	lifecycle chan events.Event

	mu sync.RWMutex // guards state for State() reads from other goroutines
}

// New creates a Machine in Idle; run-satellite moves it to its
// mode-initial state. Call Run to start it.
func New(cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Machine{
		cfg:       cfg,
		logger:    logger,
		mode:      cfg.Mode,
		state:     Idle,
		lifecycle: make(chan events.Event, 64),
	}
}

// Lifecycle returns the single ordered stream of LifecycleEvents the
// machine observes, consumed by pkg/fanout (spec.md §4.6 "Ordering
// guarantee").
func (m *Machine) Lifecycle() <-chan events.Event { return m.lifecycle }

// State returns the current SessionState. Safe for concurrent use.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run is the actor loop. It owns every write to m.state and every call
// into the peers it holds; nothing else touches them concurrently.
func (m *Machine) Run(ctx context.Context) {
	micID, micCh := m.cfg.Mic.Subscribe()
	defer m.cfg.Mic.Unsubscribe(micID)

	var wakeDetections <-chan events.Event
	if m.cfg.Wake != nil {
		wakeDetections = m.cfg.Wake.Detections()
	}

	var sndLifecycle <-chan events.Event
	if m.cfg.Snd != nil {
		sndLifecycle = m.cfg.Snd.Lifecycle()
	}
	var timerLifecycle <-chan events.Event
	if m.cfg.Timers != nil {
		timerLifecycle = m.cfg.Timers.Lifecycle()
	}

	for {
		select {
		case <-ctx.Done():
			m.stopSilenceTimer()
			return

		case ev, ok := <-m.cfg.Server.Events():
			if !ok {
				return
			}
			m.handleServerEvent(ev)

		case lc, ok := <-m.cfg.Server.Lifecycle():
			if !ok {
				return
			}
			m.handleServerLifecycle(lc)

		case chunk, ok := <-micCh:
			if !ok {
				return
			}
			m.handleMicChunk(chunk)

		case det, ok := <-wakeDetections:
			if !ok {
				wakeDetections = nil
				continue
			}
			m.handleWakeDetection(det.Name)

		case ev, ok := <-sndLifecycle:
			if !ok {
				sndLifecycle = nil
				continue
			}
			m.emit(ev)

		case ev, ok := <-timerLifecycle:
			if !ok {
				timerLifecycle = nil
				continue
			}
			m.emit(ev)

		case <-m.silenceTimerChan():
			m.handleSilenceTimeout()
		}
	}
}

func (m *Machine) silenceTimerChan() <-chan time.Time {
	if m.silenceTimer == nil {
		return nil
	}
	return m.silenceTimer.C
}

func (m *Machine) stopSilenceTimer() {
	if m.silenceTimer != nil {
		m.silenceTimer.Stop()
	}
}

func (m *Machine) resetSilenceTimer() {
	if m.mode != VadGated || m.cfg.VadWakeWordTimeout <= 0 {
		return
	}
	if m.silenceTimer == nil {
		m.silenceTimer = time.NewTimer(m.cfg.VadWakeWordTimeout)
		return
	}
	m.silenceTimer.Stop()
	select {
	case <-m.silenceTimer.C:
	default:
	}
	m.silenceTimer.Reset(m.cfg.VadWakeWordTimeout)
}

func (m *Machine) emit(ev events.Event) {
	select {
	case m.lifecycle <- ev:
	default:
		m.logger.Warnf("satellite: lifecycle channel full, dropping %s", ev)
	}
}

// --- server wire events --------------------------------------------------

func (m *Machine) handleServerEvent(ev *wyoming.Event) {
	switch ev.Type {
	case "ping":
		var text string
		var p wyoming.Ping
		if err := ev.DecodeData(&p); err == nil {
			text = p.Text
		}
		if pong, err := wyoming.NewPong(text); err == nil {
			m.cfg.Server.Publish(pong)
		}
	case "run-satellite":
		m.handleRunSatellite()
	case "pause-satellite":
		m.Pause()
	case "resume-satellite":
		m.Resume()
	case "transcription":
		if t, err := wyoming.DecodeTranscription(ev); err == nil {
			m.emit(events.NewTranscript(t.Text))
		}
	case "synthesize":
		if s, err := wyoming.DecodeSynthesize(ev); err == nil {
			m.emit(events.NewSynthesize(s.Text))
		}
	case "audio-start":
		if a, err := wyoming.DecodeAudioStart(ev); err == nil {
			m.handleTtsStart(a)
		}
	case "audio-chunk":
		m.handleTtsChunk(ev)
	case "audio-stop":
		m.handleTtsStop()
	case "voice-started":
		m.emit(events.NewVoiceStarted())
		m.resetSilenceTimer()
	case "voice-stopped":
		m.emit(events.NewVoiceStopped())
	case "error":
		if e, err := wyoming.DecodeServerError(ev); err == nil {
			m.emit(events.NewError(e.Text))
		}
	case "timer-started":
		if t, err := wyoming.DecodeTimerInfo(ev); err == nil && m.cfg.Timers != nil {
			m.cfg.Timers.OnStarted(timerFromWire(*t))
		}
	case "timer-updated":
		if t, err := wyoming.DecodeTimerInfo(ev); err == nil && m.cfg.Timers != nil {
			m.cfg.Timers.OnUpdated(timerFromWire(*t))
		}
	case "timer-cancelled":
		if c, err := wyoming.DecodeTimerCancelled(ev); err == nil && m.cfg.Timers != nil {
			m.cfg.Timers.OnCancelled(c.ID)
		}
	case "timer-finished":
		if f, err := wyoming.DecodeTimerFinished(ev); err == nil && m.cfg.Timers != nil {
			// The server announcing completion directly is redundant with
			// our own countdown; drop the entry quietly rather than
			// double-emitting TimerFinished.
			m.cfg.Timers.OnCancelled(f.ID)
		}
	default:
		// Unknown/unhandled type: ignored; no count of these is kept.
	}

	if m.state == Streaming || m.state == AwaitingTts {
		m.resetSilenceTimer()
	}
}

func timerFromWire(t wyoming.TimerInfo) timers.Timer {
	return timers.Timer{
		ID:              t.ID,
		Name:            t.Name,
		TotalSeconds:    t.TotalSeconds,
		StoredRemaining: t.RemainingSeconds,
		IsActive:        t.IsActive,
		IsPaused:        t.IsPaused,
		StartedAt:       time.Now(),
	}
}

func (m *Machine) handleRunSatellite() {
	// Supplemented behavior (SPEC_FULL.md §10): run-satellite explicitly
	// (re)starts the mode-initial state; a no-op if already running.
	if m.state != Idle && m.state != Paused {
		return
	}
	m.enterModeInitial()
}

func (m *Machine) handleServerLifecycle(lc events.Event) {
	switch lc.Kind {
	case events.Connected:
		m.emit(events.NewConnected())
		if ev, err := wyoming.NewInfo(&wyoming.Info{
			Satellite:     &m.cfg.Satellite,
			Software:      &m.cfg.Software,
			PingSupported: true,
		}); err == nil {
			m.cfg.Server.Publish(ev)
		}
	case events.Disconnected:
		if m.state == AwaitingTts {
			m.emit(events.NewTtsStop())
		}
		m.emit(events.NewDisconnected())
		m.handleDisconnect()
	}
}

func (m *Machine) handleDisconnect() {
	if m.state == AwaitingTts && m.cfg.Snd != nil {
		m.cfg.Snd.Abort()
	}
	m.stopSilenceTimer()
	m.micForwarding = false
	m.setState(Idle)
}

// --- mic forwarding -------------------------------------------------------

func (m *Machine) handleMicChunk(c micpipe.Chunk) {
	if m.micForwarding {
		if ev, err := wyoming.NewAudioChunk(c.Format, c.Timestamp, c.Samples); err == nil {
			m.cfg.Server.Publish(ev)
		}
	}

	if m.mode == VadGated && m.state == WaitingForSpeech {
		select {
		case <-m.cfg.Mic.SpeechDetected():
			m.onSpeechDetected()
		default:
		}
	}
}

// --- mode entry ------------------------------------------------------------

func (m *Machine) enterModeInitial() {
	switch m.mode {
	case Always:
		m.enterStreamingAlways()
	case VadGated:
		m.cfg.Mic.ResetVAD()
		m.setState(WaitingForSpeech)
	case LocalWake:
		if m.cfg.Wake != nil {
			m.cfg.Wake.Arm()
		}
		m.setState(WaitingForWake)
	}
}

func (m *Machine) enterStreamingAlways() {
	m.sendRunPipeline(wyoming.RunPipeline{StartStage: "asr", EndStage: "tts"})
	m.openMicBracket()
	m.setState(Streaming)
	m.emit(events.NewStreamingStart())
}

func (m *Machine) onSpeechDetected() {
	m.sendRunPipeline(wyoming.RunPipeline{StartStage: "asr"})
	m.openMicBracket()
	for _, c := range m.cfg.Mic.PrerollFlush() {
		if ev, err := wyoming.NewAudioChunk(c.Format, c.Timestamp, c.Samples); err == nil {
			m.cfg.Server.Publish(ev)
		}
	}
	m.setState(Streaming)
	m.emit(events.NewVoiceStarted())
	m.emit(events.NewStreamingStart())
	m.resetSilenceTimer()
}

// handleWakeDetection is invoked from Run's select loop for each detection
// read from m.cfg.Wake.Detections().
func (m *Machine) handleWakeDetection(name string) {
	if m.state != WaitingForWake {
		return
	}
	pipeline := m.cfg.WakeWordPipelines[name]
	m.sendRunPipeline(wyoming.RunPipeline{StartStage: "asr", WakeWordName: name, Pipeline: pipeline})
	if ev, err := wyoming.NewDetection(wyoming.Detection{Name: name}); err == nil {
		m.cfg.Server.Publish(ev)
	}
	m.openMicBracket()
	if m.cfg.Wake != nil {
		m.cfg.Wake.Disarm()
	}
	m.setState(Streaming)
	m.emit(events.NewDetection(name))
	m.emit(events.NewStreamingStart())
}

func (m *Machine) sendRunPipeline(r wyoming.RunPipeline) {
	if ev, err := wyoming.NewRunPipeline(r); err == nil {
		m.cfg.Server.Publish(ev)
	}
}

func (m *Machine) openMicBracket() {
	if ev, err := wyoming.NewAudioStart(wyoming.AudioFormat{}, 0); err == nil {
		m.cfg.Server.Publish(ev)
	}
	m.micForwarding = true
}

func (m *Machine) closeMicBracket() {
	if !m.micForwarding {
		return
	}
	if ev, err := wyoming.NewAudioStop(0); err == nil {
		m.cfg.Server.Publish(ev)
	}
	m.micForwarding = false
}

// --- TTS bracketing ---------------------------------------------------------

func (m *Machine) handleTtsStart(a *wyoming.AudioStart) {
	m.ttsFormat = wyoming.AudioFormat{Rate: a.Rate, Width: a.Width, Channels: a.Channels}
	m.setState(AwaitingTts)
	m.emit(events.NewTtsStart())
	if m.cfg.Snd != nil {
		m.cfg.Snd.Enqueue(sndpipe.PlaybackRequest{
			Reason: sndpipe.Tts,
			Source: sndpipe.ServerAudio(),
			Format: m.ttsFormat,
		})
	}
}

func (m *Machine) handleTtsChunk(ev *wyoming.Event) {
	if m.state != AwaitingTts || m.cfg.Snd == nil {
		return
	}
	if err := m.cfg.Snd.PushChunk(ev.Payload); err != nil {
		m.logger.Warnf("satellite: push tts chunk: %v", err)
	}
}

func (m *Machine) handleTtsStop() {
	if m.cfg.Snd != nil {
		m.cfg.Snd.EndChunks()
	}
	m.emit(events.NewTtsStop())

	switch m.mode {
	case Always:
		m.setState(Streaming)
	case VadGated:
		m.closeMicBracket()
		m.cfg.Mic.ResetVAD()
		m.setState(WaitingForSpeech)
	case LocalWake:
		m.closeMicBracket()
		if m.cfg.Wake != nil {
			m.cfg.Wake.Arm()
		}
		m.setState(WaitingForWake)
	}
}

// --- silence timeout (VadGated) --------------------------------------------

func (m *Machine) handleSilenceTimeout() {
	if m.mode != VadGated || m.state != Streaming {
		return
	}
	m.closeMicBracket()
	m.cfg.Mic.ResetVAD()
	m.setState(WaitingForSpeech)
	m.emit(events.NewVoiceStopped())
	m.emit(events.NewStreamingStop())
}

// --- pause / resume ---------------------------------------------------------

// Pause is the common "Pause" edge of spec.md §4.6. Repeated calls while
// already Paused are a no-op (spec.md §8 round-trip property).
func (m *Machine) Pause() {
	if m.state == Paused {
		return
	}
	if m.state == Streaming || m.state == AwaitingTts {
		m.emit(events.NewStreamingStop())
	}
	m.closeMicBracket()
	m.stopSilenceTimer()
	if m.cfg.Wake != nil {
		m.cfg.Wake.Disarm()
	}
	m.setState(Paused)
}

// Resume is the common "Resume" edge: mode-initial state.
func (m *Machine) Resume() {
	if m.state != Paused {
		return
	}
	m.enterModeInitial()
}
