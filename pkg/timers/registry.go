package timers

import (
	"context"
	"sync"
	"time"

	"github.com/rhasspy/wyoming-satellite/pkg/events"
)

// Logger is the minimal logging surface the registry needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}

// Timer is the registry's internal projection of a server-announced timer
// (spec.md §3 "Timer"). Remaining recomputes the remaining seconds from
// StoredRemaining/StartedAt unless IsPaused, in which case it returns the
// verbatim stored value.
type Timer struct {
	ID               string
	Name             string
	TotalSeconds     float64
	StoredRemaining  float64
	IsActive         bool
	StartedAt        time.Time
	IsPaused         bool
	PausedAt         time.Time
}

// Remaining projects the current remaining seconds using the monotonic
// clock, per spec.md §3: "when is_paused, it is stored verbatim; otherwise
// it is stored_remaining - (now - started_hr_ts)".
func (t Timer) Remaining(now time.Time) float64 {
	if t.IsPaused {
		return t.StoredRemaining
	}
	elapsed := now.Sub(t.StartedAt).Seconds()
	r := t.StoredRemaining - elapsed
	if r < 0 {
		r = 0
	}
	return r
}

type entry struct {
	timer  Timer
	cancel context.CancelFunc
}

// command is one linearized operation on the registry's inbox, matching
// the teacher's single-goroutine broker dispatch shape (pkg/mqtt0.Broker)
// adapted from message routing to timer bookkeeping.
type command struct {
	kind  string
	timer Timer
	id    string
	done  chan struct{}
}

// Registry is the single actor described by spec.md §4.8/C8: it owns
// map[id]*Timer and one countdown goroutine per active timer, with every
// OnStarted/OnUpdated/OnCancelled/fire linearized through its inbox.
type Registry struct {
	logger Logger

	lifecycle chan events.Event
	inbox     chan command

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex // guards entries; only the actor goroutine mutates it
	entries map[string]*entry
}

// New creates a Registry and starts its actor loop.
func New(ctx context.Context, logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	rctx, cancel := context.WithCancel(ctx)
	r := &Registry{
		logger:    logger,
		lifecycle: make(chan events.Event, 32),
		inbox:     make(chan command, 32),
		ctx:       rctx,
		cancel:    cancel,
		entries:   make(map[string]*entry),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Lifecycle returns TimerStarted/TimerUpdated/TimerCancelled/TimerFinished
// events for consumption by the satellite state machine, which relays them
// to pkg/fanout.
func (r *Registry) Lifecycle() <-chan events.Event { return r.lifecycle }

// OnStarted inserts or replaces the timer with t.ID, canceling any prior
// countdown for that id (spec.md §4.8).
func (r *Registry) OnStarted(t Timer) { r.send(command{kind: "started", timer: t}) }

// OnUpdated diffs t against the stored timer and reschedules its countdown
// using the new remaining time, or pauses/resumes the countdown if
// IsPaused changed.
func (r *Registry) OnUpdated(t Timer) { r.send(command{kind: "updated", timer: t}) }

// OnCancelled removes id from the registry, canceling its countdown. A
// miss is logged at debug and is otherwise a no-op (spec.md §8 scenario 6).
func (r *Registry) OnCancelled(id string) { r.send(command{kind: "cancelled", id: id}) }

// Get returns a snapshot of the timer with id, if present.
func (r *Registry) Get(id string) (Timer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return Timer{}, false
	}
	return e.timer, true
}

// Len reports how many timers are currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close stops the actor and every outstanding countdown.
func (r *Registry) Close() error {
	r.cancel()
	r.wg.Wait()
	return nil
}

func (r *Registry) send(c command) {
	c.done = make(chan struct{})
	select {
	case r.inbox <- c:
		<-c.done
	case <-r.ctx.Done():
	}
}

func (r *Registry) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			r.cancelAll()
			return
		case c := <-r.inbox:
			r.handle(c)
			close(c.done)
		}
	}
}

func (r *Registry) handle(c command) {
	switch c.kind {
	case "started":
		r.handleStarted(c.timer)
	case "updated":
		r.handleUpdated(c.timer)
	case "cancelled":
		r.handleCancelled(c.id)
	case "fire":
		r.handleFire(c.id)
	}
}

// handleFire removes id and emits TimerFinished, unless the timer was
// already canceled/replaced before the fire command reached the inbox
// (e.g. a cancel raced the countdown and won).
func (r *Registry) handleFire(id string) {
	r.mu.Lock()
	_, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.emit(events.NewTimerFinished(id))
}

func (r *Registry) handleStarted(t Timer) {
	r.mu.Lock()
	if prev, ok := r.entries[t.ID]; ok {
		prev.cancel()
	}
	if t.StartedAt.IsZero() {
		t.StartedAt = time.Now()
	}
	e := &entry{timer: t}
	r.entries[t.ID] = e
	r.mu.Unlock()

	r.schedule(t.ID, t.Remaining(time.Now()))
	r.emit(events.NewTimerStarted(toEventTimer(t)))
}

func (r *Registry) handleUpdated(t Timer) {
	r.mu.Lock()
	prev, ok := r.entries[t.ID]
	if !ok {
		r.mu.Unlock()
		r.logger.Debugf("timers: %v: update for unknown id %s, treating as start", ErrUnknownTimer, t.ID)
		r.mu.Lock()
		if t.StartedAt.IsZero() {
			t.StartedAt = time.Now()
		}
		r.entries[t.ID] = &entry{timer: t}
		r.mu.Unlock()
		r.schedule(t.ID, t.Remaining(time.Now()))
		r.emit(events.NewTimerUpdated(toEventTimer(t)))
		return
	}
	prev.cancel()
	if t.StartedAt.IsZero() {
		t.StartedAt = prev.timer.StartedAt
	}
	prev.timer = t
	r.mu.Unlock()

	if t.IsPaused {
		r.schedule(t.ID, -1) // -1 means "don't schedule, paused"
	} else {
		r.schedule(t.ID, t.Remaining(time.Now()))
	}
	r.emit(events.NewTimerUpdated(toEventTimer(t)))
}

func (r *Registry) handleCancelled(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debugf("timers: %v: cancel for unknown id %s", ErrUnknownTimer, id)
		return
	}
	e.cancel()
	r.emit(events.NewTimerCancelled(id))
}

// schedule starts (or restarts) the countdown goroutine for id.
// remaining < 0 means "paused, don't schedule a fire".
func (r *Registry) schedule(id string, remaining float64) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	cctx, cancel := context.WithCancel(r.ctx)
	e.cancel = cancel
	r.mu.Unlock()

	if remaining < 0 {
		return
	}

	r.wg.Add(1)
	go r.countdown(cctx, id, time.Duration(remaining*float64(time.Second)))
}

func (r *Registry) countdown(ctx context.Context, id string, d time.Duration) {
	defer r.wg.Done()
	if d < 0 {
		d = 0
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		r.fire(id)
	case <-ctx.Done():
	}
}

// fire is invoked from a countdown goroutine, not the actor loop, so it
// takes the inbox path to stay linearized with OnCancelled/OnUpdated races.
func (r *Registry) fire(id string) {
	r.send(command{kind: "fire", id: id})
}

func (r *Registry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		e.cancel()
	}
}

func toEventTimer(t Timer) events.Timer {
	now := time.Now()
	return events.Timer{
		ID:               t.ID,
		Name:             t.Name,
		TotalSeconds:     t.TotalSeconds,
		RemainingSeconds: t.Remaining(now),
		IsActive:         t.IsActive,
		IsPaused:         t.IsPaused,
	}
}

func (r *Registry) emit(ev events.Event) {
	select {
	case r.lifecycle <- ev:
	case <-r.ctx.Done():
	}
}
