package cond

import (
	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// Trigger names a signal and the edge kind a Sequential block fires on.
type Trigger struct {
	Sig  *wire.Sig
	Edge wire.EdgeKind
}

// Write is one signal's staged next-value, in the order it was first
// written during a single evaluation pass.
type Write struct {
	Sig   *wire.Sig
	Value lval.LV
}

// Sequential is a clocked conditional block: on every trigger edge it
// samples its reads, evaluates its body once top to bottom, and hands
// the resulting LHS writes to every registered handler as the block's
// "next" values. It does not deposit anything itself -- a scheduler
// (simkernel.Scheduler) registers a handler that stages the commit for
// the following clk-stable phase, so the current value only updates
// once every Sequential block triggered this tick has sampled.
type Sequential struct {
	name     string
	triggers []Trigger
	body     []Stmt
	handlers []func([]Write)
}

// NewSequential builds a Sequential block named `name`, wiring fire to
// every given trigger's edge.
func NewSequential(name string, triggers []Trigger, body ...Stmt) *Sequential {
	s := &Sequential{name: name, triggers: triggers, body: body}
	for _, t := range triggers {
		t.Sig.OnEdge(t.Edge, func(wire.Change) { s.fire() })
	}
	return s
}

// Name returns the block's display name.
func (s *Sequential) Name() string { return s.name }

// OnFire registers h to be called, in the order the body wrote them, with
// the full set of staged next-value writes every time a trigger edge
// causes the body to evaluate.
func (s *Sequential) OnFire(h func([]Write)) {
	s.handlers = append(s.handlers, h)
}

func (s *Sequential) fire() {
	env := newEvalEnv()
	execAll(s.body, env)
	if len(s.handlers) == 0 {
		return
	}
	next := make([]Write, len(env.order))
	for i, sig := range env.order {
		next[i] = Write{Sig: sig, Value: env.writes[sig]}
	}
	for _, h := range s.handlers {
		h(next)
	}
}

// Registrar is the narrow capability a scheduler exposes so Flop and
// Pipeline can stage their register updates without this package
// importing the scheduler package (simkernel imports cond, not the
// other way around).
//
//go:generate mockgen -write_package_comment=false -package=cond_test -destination=mock_registrar_test.go github.com/sarchlab/rohdgo/cond Registrar
type Registrar interface {
	RegisterSequential(s *Sequential)
}
