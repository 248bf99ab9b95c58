package commands

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/audiocmd"
	"github.com/rhasspy/wyoming-satellite/pkg/config"
	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/fanout"
	"github.com/rhasspy/wyoming-satellite/pkg/mainserver"
	"github.com/rhasspy/wyoming-satellite/pkg/micpipe"
	"github.com/rhasspy/wyoming-satellite/pkg/peer"
	"github.com/rhasspy/wyoming-satellite/pkg/satellite"
	"github.com/rhasspy/wyoming-satellite/pkg/satlog"
	"github.com/rhasspy/wyoming-satellite/pkg/sndpipe"
	"github.com/rhasspy/wyoming-satellite/pkg/timers"
	"github.com/rhasspy/wyoming-satellite/pkg/wake"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
	"github.com/rhasspy/wyoming-satellite/pkg/zeroconf"
)

// shutdownGrace bounds how long run waits for every task to release its
// socket/subprocess after the root cancellation fires (spec.md §5).
const shutdownGrace = 2 * time.Second

func run(cfg *config.Config, wakeWordFlags, hookFlags []string) error {
	cfg.MicCommand = splitCommand(micCommandStr)
	cfg.SndCommand = splitCommand(sndCommandStr)
	cfg.WakeCommand = splitCommand(wakeCommandStr)
	cfg.WakeWordNames = parseWakeWords(wakeWordFlags)

	hookCommands, err := parseHookFlags(hookFlags)
	if err != nil {
		return err
	}
	cfg.HookCommands = hookCommands

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := satlog.New(satlog.Format(cfg.LogFormat), cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := parseMode(cfg.Mode())

	agc := micpipe.NoopAGC{}
	agc.SetLevel(cfg.MicAutoGain)
	denoiser := micpipe.NoopDenoiser{}
	denoiser.SetLevel(cfg.MicNoiseSuppression)

	mic := micpipe.New(micpipe.Config{
		Channel:          cfg.MicChannelIndex,
		Volume:           cfg.MicVolumeMultiplier,
		AGC:              agc,
		Denoiser:         denoiser,
		VADTriggerLevel:  cfg.VadTriggerLevel,
		VADWindow:        time.Second,
		VADScorer:        micpipe.EnergyVAD{Threshold: int32(cfg.VadThreshold * 32767)},
		PrerollWindow:    time.Duration(cfg.VadBufferSeconds * float64(time.Second)),
		SubscriberBuffer: 64,
		Logger:           logger.With("micpipe"),
	})

	closers := newCloserStack()
	defer closers.closeAll()

	if err := startMicSource(ctx, cfg, mic, logger, closers); err != nil {
		return err
	}

	sndSink, err := buildSndSink(ctx, cfg, logger, closers)
	if err != nil {
		return err
	}

	snd := sndpipe.New(ctx, sndpipe.Config{
		QueueMax:                 32,
		Sink:                     sndSink,
		Muter:                    mic,
		MuteSecondsAfterAwakeWav: cfg.MicSecondsToMuteAfterAwakeWav,
		NoMuteDuringAwakeWav:     cfg.MicNoMuteDuringAwakeWav,
		GraceMs:                  200 * time.Millisecond,
		Logger:                   logger.With("sndpipe"),
	})
	closers.add(snd.Close)

	var wakeCoord *wake.Coordinator
	wakeWordPipelines := make(map[string]string, len(cfg.WakeWordNames))
	wakeNames := make([]string, 0, len(cfg.WakeWordNames))
	for _, w := range cfg.WakeWordNames {
		wakeNames = append(wakeNames, w.Name)
		if w.Pipeline != "" {
			wakeWordPipelines[w.Name] = w.Pipeline
		}
	}
	if mode == satellite.LocalWake {
		wakePeer, err := dialWakePeer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		closers.add(wakePeer.Close)
		wakeCoord = wake.New(ctx, mic, wakePeer, wake.Config{
			Names:             wakeNames,
			RefractorySeconds: cfg.WakeRefractorySeconds,
			WakeRate:          cfg.WakeCommandRate,
			Logger:            logger.With("wake"),
		})
		closers.add(wakeCoord.Close)
	}

	timerRegistry := timers.New(ctx, logger.With("timers"))
	closers.add(timerRegistry.Close)

	listener, err := mainserver.Listen(ctx, mainserver.Config{
		URI:          cfg.URI,
		EventsBuffer: 64,
		Logger:       logger.With("mainserver"),
	})
	if err != nil {
		return fmt.Errorf("wyosat: bind %s: %w", cfg.URI, err)
	}
	closers.add(listener.Close)

	satInfo := wyoming.SatelliteInfo{
		Name:                cfg.Name,
		Area:                cfg.Area,
		SupportsTrigger:     mode == satellite.LocalWake,
		ActiveWakeWordNames: wakeNames,
	}
	if cfg.SndCommandRate > 0 {
		satInfo.SndFormat = &wyoming.AudioFormat{
			Rate:     cfg.SndCommandRate,
			Width:    cfg.SndCommandWidth,
			Channels: cfg.SndCommandChannels,
		}
	}

	var wakeIface satellite.WakeCoordinator
	if wakeCoord != nil {
		wakeIface = wakeCoord
	}

	machine := satellite.New(satellite.Config{
		Mode:               mode,
		Server:             listener,
		Mic:                mic,
		Snd:                snd,
		Wake:               wakeIface,
		Timers:             timerRegistry,
		Satellite:          satInfo,
		Software:           wyoming.SoftwareInfo{Name: "wyosat", Version: version},
		VadWakeWordTimeout: time.Duration(cfg.VadWakeWordTimeout * float64(time.Second)),
		WakeWordPipelines:  wakeWordPipelines,
		Logger:             logger.With("satellite"),
	})
	machineDone := make(chan struct{})
	go func() {
		defer close(machineDone)
		machine.Run(ctx)
	}()

	dispatcher, dispatcherDone, err := buildDispatcher(ctx, cfg, machine, snd, logger, closers)
	if err != nil {
		return err
	}
	_ = dispatcher

	if !cfg.NoZeroconf {
		announcer, err := announceZeroconf(cfg)
		if err != nil {
			logger.Warnf("wyosat: zeroconf: %v", err)
		} else {
			closers.add(func() error { announcer.Close(); return nil })
		}
	}

	logger.Infof("wyosat: listening on %s, mode=%s", cfg.URI, mode)

	<-ctx.Done()
	logger.Infof("wyosat: shutting down")

	done := make(chan struct{})
	go func() {
		<-machineDone
		<-dispatcherDone
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
	}

	return nil
}

func parseMode(s string) satellite.Mode {
	switch s {
	case "vad-gated":
		return satellite.VadGated
	case "local-wake":
		return satellite.LocalWake
	default:
		return satellite.Always
	}
}

// closerStack runs its registered close funcs in reverse registration
// order, mirroring construction order (last-built, first-closed).
type closerStack struct {
	fns []func() error
}

func newCloserStack() *closerStack { return &closerStack{} }

func (c *closerStack) add(fn func() error) { c.fns = append(c.fns, fn) }

func (c *closerStack) closeAll() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
}

func startMicSource(ctx context.Context, cfg *config.Config, mic *micpipe.Pipeline, logger *satlog.Logger, closers *closerStack) error {
	if cfg.MicURI != "" {
		micPeer := peer.Dial(ctx, peer.Config{
			Name:         "mic",
			URI:          cfg.MicURI,
			Handshake:    true,
			PingInterval: 5 * time.Second,
			Logger:       logger.With("mic-peer"),
		})
		closers.add(micPeer.Close)
		go drainLifecycle(ctx, micPeer.Lifecycle(), logger.With("mic-peer"))
		go micpipe.Pump(ctx, micPeer, mic)
		return nil
	}

	source := audiocmd.NewSource(audiocmd.SourceConfig{
		Command: cfg.MicCommand,
		Format: wyoming.AudioFormat{
			Rate:     cfg.MicCommandRate,
			Width:    cfg.MicCommandWidth,
			Channels: cfg.MicCommandChannels,
		},
		SamplesPerChunk: cfg.MicCommandSamplesPerChunk,
		Logger:          logger.With("mic-command"),
	}, mic)
	go runWithBackoff(ctx, "mic-command", logger, func() error { return source.Run(ctx) })
	return nil
}

func buildSndSink(ctx context.Context, cfg *config.Config, logger *satlog.Logger, closers *closerStack) (sndpipe.Sink, error) {
	if cfg.SndURI != "" {
		sndPeer := peer.Dial(ctx, peer.Config{
			Name:         "snd",
			URI:          cfg.SndURI,
			Handshake:    true,
			PingInterval: 5 * time.Second,
			Logger:       logger.With("snd-peer"),
		})
		closers.add(sndPeer.Close)
		go drainLifecycle(ctx, sndPeer.Lifecycle(), logger.With("snd-peer"))
		return sndpipe.NewPeerSink(sndPeer), nil
	}

	sink, err := audiocmd.NewSink(ctx, audiocmd.SinkConfig{
		Command: cfg.SndCommand,
		Logger:  logger.With("snd-command"),
	})
	if err != nil {
		return nil, fmt.Errorf("wyosat: %w", err)
	}
	closers.add(sink.Close)
	return sink, nil
}

func dialWakePeer(ctx context.Context, cfg *config.Config, logger *satlog.Logger) (*peer.Peer, error) {
	if cfg.WakeURI != "" {
		return peer.Dial(ctx, peer.Config{
			Name:         "wake",
			URI:          cfg.WakeURI,
			Handshake:    true,
			PingInterval: 5 * time.Second,
			Logger:       logger.With("wake-peer"),
		}), nil
	}
	command := cfg.WakeCommand
	return peer.Dial(ctx, peer.Config{
		Name:      "wake",
		URI:       "subprocess:" + command[0],
		Handshake: true,
		Dialer: func(dctx context.Context, _ string) (*wyoming.Conn, error) {
			return wyoming.DialCommand(dctx, command)
		},
		Logger: logger.With("wake-peer"),
	}), nil
}

func buildDispatcher(ctx context.Context, cfg *config.Config, machine *satellite.Machine, snd *sndpipe.Pipeline, logger *satlog.Logger, closers *closerStack) (*fanout.Dispatcher, <-chan struct{}, error) {
	var eventPeer peer.Interface
	if cfg.EventURI != "" {
		p := peer.Dial(ctx, peer.Config{
			Name:         "event",
			URI:          cfg.EventURI,
			Handshake:    true,
			PingInterval: 5 * time.Second,
			Logger:       logger.With("event-peer"),
		})
		closers.add(p.Close)
		go drainLifecycle(ctx, p.Lifecycle(), logger.With("event-peer"))
		eventPeer = p
	}

	awake, err := loadSound(cfg.AwakeWav, 1, 0)
	if err != nil {
		return nil, nil, err
	}
	done, err := loadSound(cfg.DoneWav, 1, 0)
	if err != nil {
		return nil, nil, err
	}
	timerFinished, err := loadSound(cfg.TimerFinishedWav, cfg.TimerFinishedWavRepeat,
		time.Duration(cfg.TimerFinishedWavDelaySec*float64(time.Second)))
	if err != nil {
		return nil, nil, err
	}

	dispatcher := fanout.New(fanout.Config{
		EventPeer:        eventPeer,
		Hooks:            buildHookSpecs(cfg.HookCommands),
		Snd:              snd,
		AwakeWav:         awake,
		DoneWav:          done,
		TimerFinishedWav: timerFinished,
		Logger:           logger.With("fanout"),
	})

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		dispatcher.Run(ctx, machine.Lifecycle())
	}()
	return dispatcher, done2, nil
}

func loadSound(path string, repeat int, delay time.Duration) (*fanout.Sound, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wyosat: read %s: %w", path, err)
	}
	return &fanout.Sound{Data: data, Repeat: repeat, Delay: delay}, nil
}

func announceZeroconf(cfg *config.Config) (zeroconf.Announcer, error) {
	port, ok := uriPort(cfg.URI)
	if !ok {
		return zeroconf.Noop{}, nil
	}
	return zeroconf.Announce(zeroconf.Config{
		Name: cfg.ZeroconfName,
		Host: cfg.ZeroconfHost,
		Port: port,
	})
}

func uriPort(uri string) (int, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "tcp" {
		return 0, false
	}
	_, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return 0, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, false
	}
	return port, true
}

// runWithBackoff retries fn forever with a capped exponential backoff,
// matching spec.md §7's ErrDeviceBusy policy for a mic/snd subprocess that
// fails to start or exits unexpectedly.
func runWithBackoff(ctx context.Context, name string, logger *satlog.Logger, fn func() error) {
	delay := time.Second
	const maxDelay = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		if err := fn(); err != nil && ctx.Err() == nil {
			logger.Warnf("wyosat: %s: %v", name, err)
		}
		if ctx.Err() != nil {
			return
		}
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// drainLifecycle discards a peer's Connected/Disconnected transitions.
// Only the main-server listener's lifecycle feeds the satellite state
// machine, and the wake peer's is consumed by wake.Coordinator; mic/snd/
// event peers still emit onto a bounded channel that must be drained or
// their run loop blocks on the next reconnect.
func drainLifecycle(ctx context.Context, ch <-chan events.Event, logger *satlog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			logger.Debugf("peer: %s", ev)
		}
	}
}
