package simkernel

import (
	"context"

	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// runBucket executes the four phases of one logical timestep t:
//
//   - inject:     actions submitted via InjectAction since the last
//     executed timestep run first, before anything scheduled
//     ahead of time.
//   - active:     actions scheduled at this time (ScheduleAt/ScheduleAfter)
//     run in registration order. These deposit values and drive
//     signals; Combinational blocks and net recomputation happen
//     synchronously, inline, as part of this phase (wire's own
//     propagation, not something this package re-implements).
//   - clk-stable: every Sequential block triggered during the active
//     phase has staged its "next" writes (cond.Sequential.fire ran
//     as part of a posedge/negedge callback during Active); those
//     staged writes are committed now, in the order each Sequential
//     block registered its writes, so Flop/Pipeline/StateMachine see
//     consistent old values throughout Active and new values only
//     from this point on.
//   - post-tick:  observers registered with OnPostTick run last, seeing
//     the fully settled state for this timestep.
//
// Logical time then advances past t. Which timestep runs next is the
// engine's decision: only the earliest timestep with work holds an event
// in its heap, so everything between two scheduled timesteps is skipped
// without cost.
func (s *Scheduler) runBucket(t uint64) error {
	s.mu.Lock()
	s.t = t
	s.inBucket = true
	due := s.queue[t]
	delete(s.queue, t)
	inject := s.injectPending
	s.injectPending = nil
	s.mu.Unlock()

	for _, a := range inject {
		a(s)
	}
	for _, a := range due {
		a(s)
	}

	if err := s.commitPending(); err != nil {
		s.mu.Lock()
		s.inBucket = false
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	hooks := append([]func(uint64){}, s.postTick...)
	s.t = t + 1
	s.inBucket = false
	s.mu.Unlock()

	for _, h := range hooks {
		h(t)
	}
	return nil
}

// commitPending deposits every write staged by a Sequential block's
// OnFire handler this timestep, in the order each signal was first
// written -- the ordering invariant that makes a given sequence of
// action registrations produce identical output across runs.
func (s *Scheduler) commitPending() error {
	s.mu.Lock()
	order := s.pendingOrder
	pending := s.pending
	s.pendingOrder = nil
	s.pending = map[*wire.Sig]lval.LV{}
	s.mu.Unlock()

	for _, sig := range order {
		if err := sig.Deposit(pending[sig]); err != nil {
			return err
		}
	}
	return nil
}

// Run hands control to the engine until its event heap drains: every
// timestep with work executes, in time order, until EndSimulation or
// SetMaxSimTime stops the simulation or no work remains. This is the
// direct/synchronous entrypoint for callers that gave the Scheduler its
// own serial engine; with a shared WithEngine engine, driving
// engine.Run() from the caller's side works identically.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.enterRunLoop(); err != nil {
		return err
	}
	defer s.exitRunLoop()

	s.mu.Lock()
	s.runCtx = ctx
	s.armLocked()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.runCtx = nil
		s.mu.Unlock()
	}()

	if err := s.engine.Run(); err != nil {
		return err
	}

	s.mu.Lock()
	err := s.stepErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// RunFor advances simulated time by n timesteps: every timestep in
// [Now(), Now()+n) with scheduled work executes, empty ones are skipped
// by the engine's heap, and work scheduled at or past the window edge
// stays queued for the next call. On return, logical time stands at the
// window edge (unless the simulation ended first).
func (s *Scheduler) RunFor(ctx context.Context, n int) error {
	if err := s.enterRunLoop(); err != nil {
		return err
	}
	defer s.exitRunLoop()

	s.mu.Lock()
	limit := s.t + uint64(n)
	s.stopBefore = &limit
	s.runCtx = ctx
	s.armLocked()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.stopBefore = nil
		s.runCtx = nil
		s.mu.Unlock()
	}()

	if err := s.engine.Run(); err != nil {
		return err
	}

	s.mu.Lock()
	err := s.stepErr
	if err == nil && !s.ended && ctx.Err() == nil && s.t < limit {
		s.t = limit
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}
