// Package simkernel implements Sched, the event-driven simulator: a
// single global non-negative integer time, a phased tick loop (inject ->
// active -> clk-stable -> post-tick), edge-triggered register commits, and
// cooperative suspension on future events.
//
// Time-ordered dispatch belongs to an akita/v4 sim.Engine: every
// Scheduler embeds one (a sim.NewSerialEngine by default, or whatever
// WithEngine supplies) and keeps a tick event armed for the earliest
// logical timestep that has work, so the engine's event heap is what
// advances simulation straight to the next timestep worth running -- a
// schedule with actions at t=0 and t=1000000 costs two events, not a
// million empty scans. The Scheduler itself is the sim.Handler for those
// events; everything inside one event -- the four named phases,
// same-time action ordering, sequential commit timing -- is this
// package's own.
package simkernel

import (
	"context"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rohdgo/cond"
	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/rohderr"
	"github.com/sarchlab/rohdgo/wire"
)

// Action is a unit of user-submitted work run during the active phase of
// whatever time bucket it was scheduled at. It may deposit values on
// signals (propagating synchronously through the graph) and may request
// further suspension by scheduling another Action on the Scheduler it is
// given.
type Action func(s *Scheduler)

// Scheduler is the event-driven simulator. Zero value is not usable; use
// NewBuilder().
type Scheduler struct {
	name   string
	engine sim.Engine
	// engineOwned marks an engine this Scheduler built for itself (as
	// opposed to one shared in through WithEngine); Reset replaces an
	// owned engine outright.
	engineOwned bool
	freq        sim.Freq
	period      sim.VTimeInSec

	mu sync.Mutex

	// t is the next unprocessed logical time. timebase is the engine
	// cycle carrying logical time 0: engine time only moves forward, so
	// Reset restarts logical time by sliding timebase instead.
	t        uint64
	timebase uint64

	queue map[uint64][]Action
	// armed tracks logical times that already have a tick event in the
	// engine's heap. One event per time, no matter how many actions
	// share it: the time's own action slice keeps insertion order,
	// which the heap would not guarantee for same-time events.
	armed    map[uint64]bool
	inBucket bool

	// injectPending holds actions submitted via InjectAction; the next
	// executed timestep drains it in its inject phase.
	injectPending []Action

	registeredSeq []*cond.Sequential
	pendingOrder  []*wire.Sig
	pending       map[*wire.Sig]lval.LV

	postTick []func(t uint64)

	maxSimTime *uint64
	ended      bool
	running    bool
	stepErr    error

	// stopBefore bounds a RunFor window; timesteps at or past it stay
	// queued and are re-armed by the next Run/RunFor.
	stopBefore *uint64
	runCtx     context.Context
}

// SchedulerBuilder is the Builder-with-With*-methods construction helper
// for Scheduler.
type SchedulerBuilder struct {
	engine       sim.Engine
	freq         sim.Freq
	signalBudget int
}

// NewBuilder returns a SchedulerBuilder with a default signal budget of
// 1024 (used to size the CombinationalLoop propagation-depth bound;
// override with WithSignalBudget for larger designs).
func NewBuilder() SchedulerBuilder {
	return SchedulerBuilder{signalBudget: 1024}
}

// WithEngine sets the akita engine that owns this scheduler's event
// dispatch, letting several components share one heap. Without it, Build
// creates a private sim.NewSerialEngine.
func (b SchedulerBuilder) WithEngine(engine sim.Engine) SchedulerBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the engine frequency one logical timestep maps to (one
// timestep per cycle). Default is 1 GHz.
func (b SchedulerBuilder) WithFreq(freq sim.Freq) SchedulerBuilder {
	b.freq = freq
	return b
}

// WithSignalBudget sizes the combinational fixpoint bound:
// CombinationalLoop fires once a single deposit's propagation recursion
// exceeds 10*budget frames.
func (b SchedulerBuilder) WithSignalBudget(n int) SchedulerBuilder {
	b.signalBudget = n
	return b
}

// Build constructs a named Scheduler and installs its propagation-depth
// bound globally (wire has no other notion of "the current scheduler").
func (b SchedulerBuilder) Build(name string) *Scheduler {
	s := &Scheduler{
		name:    name,
		engine:  b.engine,
		freq:    b.freq,
		queue:   map[uint64][]Action{},
		armed:   map[uint64]bool{},
		pending: map[*wire.Sig]lval.LV{},
	}
	if s.engine == nil {
		s.engine = sim.NewSerialEngine()
		s.engineOwned = true
	}
	if s.freq == 0 {
		s.freq = 1 * sim.GHz
	}
	s.period = s.freq.Period()

	budget := b.signalBudget
	if budget <= 0 {
		budget = 1024
	}
	wire.SetMaxPropagationDepth(10 * budget)
	return s
}

// Name returns the scheduler's instance name.
func (s *Scheduler) Name() string { return s.name }

// Engine returns the akita engine dispatching this scheduler's events.
func (s *Scheduler) Engine() sim.Engine { return s.engine }

// Now returns the scheduler's current (next unprocessed) integer time.
func (s *Scheduler) Now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

// timeOfLocked maps a logical time to the engine's clock. Caller holds mu.
func (s *Scheduler) timeOfLocked(t uint64) sim.VTimeInSec {
	return sim.VTimeInSec(float64(s.timebase+t)) * s.period
}

// earliestPendingLocked finds the earliest logical time with work: queued
// actions at or after the current time, or pending injections (which run
// at the next timestep processed). Caller holds mu.
func (s *Scheduler) earliestPendingLocked() (uint64, bool) {
	var best uint64
	found := false
	if len(s.injectPending) > 0 {
		best = s.t
		if s.inBucket {
			best = s.t + 1
		}
		found = true
	}
	for t := range s.queue {
		if t < s.t || (s.inBucket && t == s.t) {
			continue
		}
		if !found || t < best {
			best = t
			found = true
		}
	}
	return best, found
}

// armLocked puts a tick event for the earliest pending logical time into
// the engine's heap, unless one is armed already. The event time is
// clamped to the engine's current time so a shared engine that has run
// ahead (or a re-arm after a RunFor window) never schedules into the
// past. Caller holds mu.
func (s *Scheduler) armLocked() {
	if s.ended || s.stepErr != nil {
		return
	}
	t, ok := s.earliestPendingLocked()
	if !ok || s.armed[t] {
		return
	}
	s.armed[t] = true
	tm := s.timeOfLocked(t)
	if now := s.engine.CurrentTime(); tm < now {
		tm = now
	}
	s.engine.Schedule(sim.MakeTickEvent(s, tm))
}

// ScheduleAt registers action to run during the active phase of time t.
// Actions scheduled at the same time run in the order ScheduleAt was
// called: insertion order, deterministic across runs.
func (s *Scheduler) ScheduleAt(t uint64, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[t] = append(s.queue[t], action)
	s.armLocked()
}

// ScheduleAfter is ScheduleAt(s.Now()+delay, action); the usual way a
// suspended Action requests `delay(n)`.
func (s *Scheduler) ScheduleAfter(delay uint64, action Action) {
	s.ScheduleAt(s.Now()+delay, action)
}

// InjectAction submits action to run before the main queue, in the
// inject phase of the next timestep processed (FIFO among injections).
func (s *Scheduler) InjectAction(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injectPending = append(s.injectPending, action)
	s.armLocked()
}

// OnPostTick registers an observer run during the post-tick phase of
// every subsequently executed timestep. Timesteps with nothing scheduled
// are skipped outright and never reach post-tick.
func (s *Scheduler) OnPostTick(fn func(t uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postTick = append(s.postTick, fn)
}

// WaitForEdge is the Action-suspension convenience for waiting on a
// signal edge: a one-shot continuation on sig's edge stream, delivered
// through InjectAction (rather than invoked synchronously from inside
// wire's notification) so the continuation still runs under scheduler
// control, at a proper phase boundary, rather than nested inside whatever
// phase produced the edge.
func (s *Scheduler) WaitForEdge(sig *wire.Sig, kind wire.EdgeKind, cont Action) (cancel func()) {
	done := false
	sig.OnEdge(kind, func(wire.Change) {
		if done {
			return
		}
		done = true
		s.InjectAction(cont)
	})
	return func() { done = true }
}

// WaitForChange is WaitForEdge for any value change of a signal of any
// width: a one-shot continuation delivered through InjectAction on the
// next change.
func (s *Scheduler) WaitForChange(sig *wire.Sig, cont Action) (cancel func()) {
	done := false
	sig.Subscribe(func(wire.Change) {
		if done {
			return
		}
		done = true
		s.InjectAction(cont)
	})
	return func() { done = true }
}

// RegisterSequential implements cond.Registrar: every Sequential block's
// staged next-value writes are captured in registration order and applied
// only during this tick's clk-stable phase, never immediately.
func (s *Scheduler) RegisterSequential(seq *cond.Sequential) {
	s.mu.Lock()
	s.registeredSeq = append(s.registeredSeq, seq)
	s.mu.Unlock()

	seq.OnFire(func(writes []cond.Write) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, w := range writes {
			if _, ok := s.pending[w.Sig]; !ok {
				s.pendingOrder = append(s.pendingOrder, w.Sig)
			}
			s.pending[w.Sig] = w.Value
		}
	})
}

// SetMaxSimTime stops the simulator when it reaches the first timestep
// with work at a time >= T. No phase of that timestep runs; logical time
// is left standing at it.
func (s *Scheduler) SetMaxSimTime(t uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxSimTime = &t
}

// EndSimulation stops the simulator at the end of the current tick.
func (s *Scheduler) EndSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
}

// Reset clears the action queue and restarts logical time at zero.
// Signal values are left untouched -- resetting those is the caller's
// responsibility. The engine's own clock cannot rewind, so a Scheduler
// that built its own engine swaps in a fresh one, while a shared engine
// from WithEngine is kept and logical time 0 is re-based onto its
// current cycle.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engineOwned {
		s.engine = sim.NewSerialEngine()
		s.timebase = 0
	} else {
		s.timebase += s.t
	}
	s.t = 0
	s.queue = map[uint64][]Action{}
	s.armed = map[uint64]bool{}
	s.injectPending = nil
	s.pending = map[*wire.Sig]lval.LV{}
	s.pendingOrder = nil
	s.maxSimTime = nil
	s.ended = false
	s.stepErr = nil
}

// enterRunLoop returns SimulatorReentered if this Scheduler's run loop
// is already in flight; Run and RunFor both call it to enforce the
// single-threaded, non-reentrant discipline.
func (s *Scheduler) enterRunLoop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return rohderr.New(rohderr.KindSimulatorReentered, "scheduler run loop entered while already running")
	}
	s.running = true
	return nil
}

func (s *Scheduler) exitRunLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Handle implements sim.Handler: the engine delivers the armed tick
// event and this callback runs the earliest due timestep's four phases.
// A timestep past the RunFor window or under a cancelled context stays
// queued (the next Run/RunFor re-arms it); one at or past the max sim
// time ends the simulation.
func (s *Scheduler) Handle(e sim.Event) error {
	s.mu.Lock()
	if s.ended || s.stepErr != nil {
		s.mu.Unlock()
		return nil
	}
	t, ok := s.earliestPendingLocked()
	if !ok {
		// A stale wake-up: whatever armed it was already handled.
		s.mu.Unlock()
		return nil
	}
	if s.timeOfLocked(t) > e.Time()+s.period/2 {
		// Not due at this wake-up; re-arm at its proper time.
		s.armLocked()
		s.mu.Unlock()
		return nil
	}
	delete(s.armed, t)
	if s.maxSimTime != nil && t >= *s.maxSimTime {
		s.t = t
		s.ended = true
		s.mu.Unlock()
		return nil
	}
	if s.runCtx != nil && s.runCtx.Err() != nil {
		s.mu.Unlock()
		return nil
	}
	if s.stopBefore != nil && t >= *s.stopBefore {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.runBucket(t); err != nil {
		s.mu.Lock()
		s.stepErr = err
		s.ended = true
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.armLocked()
	s.mu.Unlock()
	return nil
}
