package cond

import (
	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// StateMachine builds a registered state variable whose next value is
// the combinational function nextState of the current state, reset
// synchronously to resetState on rst. It is the single canonical name
// for what the rest of this package otherwise expresses as a Flop plus
// a hand-written Case over the current state; StateMachine exists so
// callers don't reinvent that wiring for every FSM.
func StateMachine(reg Registrar, clk, rst *wire.Sig, name string, resetState lval.LV, nextState func(current *wire.Sig) Expr) *wire.Sig {
	state := wire.New(name, resetState.Width())
	next := wire.New(name+"_next", resetState.Width())

	if _, err := NewCombinational(name+"_next_logic", false, Assign{LHS: next, RHS: nextState(state)}); err != nil {
		panic(err)
	}

	q, seq := Flop(clk, next, WithName(name), WithReset(rst, resetState))
	reg.RegisterSequential(seq)

	// q and state are logically the same register; state is the Sig
	// passed into nextState's closure so the next-state logic can refer
	// to "current state" before the Flop exists to name it. Drive it
	// from q so both names observe the one underlying current value.
	if err := state.Drive(q); err != nil {
		panic(err)
	}
	return q
}
