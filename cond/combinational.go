package cond

import (
	"fmt"

	"github.com/sarchlab/rohdgo/wire"
)

// ErrLatchInferred is the diagnostic a Combinational block raises at
// construction time when some declared LHS signal is not written on
// every static control path through the body. This is local to cond
// rather than one of rohderr's taxonomy kinds, since inferring a latch
// is a structural lint on a Conditional tree, not a runtime failure.
type ErrLatchInferred struct {
	Block  string
	Signal string
}

func (e *ErrLatchInferred) Error() string {
	return fmt.Sprintf("cond: %s infers a latch on %s (not assigned on every control path); pass allowLatches=true to NewCombinational to permit this", e.Block, e.Signal)
}

// coverageOf computes, conservatively, the set of signals guaranteed to
// be written by every possible execution path through stmts. A sequence
// covers the union of what each statement covers (an earlier
// unconditional write still counts even if later code might overwrite
// it); a branching construct covers only the intersection of what every
// one of its arms covers, and an arm list with no fallback (no Else, no
// Default) contributes the empty set.
func coverageOf(stmts []Stmt) map[*wire.Sig]bool {
	covered := map[*wire.Sig]bool{}
	for _, s := range stmts {
		for sig := range coverageOfOne(s) {
			covered[sig] = true
		}
	}
	return covered
}

func coverageOfOne(s Stmt) map[*wire.Sig]bool {
	switch n := s.(type) {
	case Assign:
		return map[*wire.Sig]bool{n.LHS: true}
	case Compound:
		return coverageOf(n.Body)
	case If:
		return intersect(coverageOf(n.Then), coverageOf(n.Else))
	case IfBlock:
		sets := make([]map[*wire.Sig]bool, 0, len(n.Branches)+1)
		for _, br := range n.Branches {
			sets = append(sets, coverageOf(br.Body))
		}
		sets = append(sets, coverageOf(n.Else))
		return intersectAll(sets)
	case Case:
		sets := make([]map[*wire.Sig]bool, 0, len(n.Items)+1)
		for _, item := range n.Items {
			sets = append(sets, coverageOf(item.Body))
		}
		sets = append(sets, coverageOf(n.Default))
		return intersectAll(sets)
	default:
		return map[*wire.Sig]bool{}
	}
}

func intersect(a, b map[*wire.Sig]bool) map[*wire.Sig]bool {
	out := map[*wire.Sig]bool{}
	for sig := range a {
		if b[sig] {
			out[sig] = true
		}
	}
	return out
}

func intersectAll(sets []map[*wire.Sig]bool) map[*wire.Sig]bool {
	if len(sets) == 0 {
		return map[*wire.Sig]bool{}
	}
	out := sets[0]
	for _, s := range sets[1:] {
		out = intersect(out, s)
	}
	return out
}

// Combinational is a block whose body re-evaluates, top to bottom,
// whenever any signal it reads changes, writing the result to its LHS
// signals immediately; there is no clock.
type Combinational struct {
	name         string
	body         []Stmt
	allowLatches bool
}

// NewCombinational builds a Combinational block named `name` from body,
// subscribes it to every signal the body statically reads, and runs one
// settling pass immediately. It returns ErrLatchInferred if some LHS
// signal is not covered on every static control path and allowLatches
// is false.
func NewCombinational(name string, allowLatches bool, body ...Stmt) (*Combinational, error) {
	c := &Combinational{name: name, body: body, allowLatches: allowLatches}

	if !allowLatches {
		covered := coverageOf(body)
		for _, sig := range lhsOf(body) {
			if !covered[sig] {
				return nil, &ErrLatchInferred{Block: name, Signal: sig.Name()}
			}
		}
	}

	for _, sig := range readsOf(body) {
		sig.Subscribe(func(wire.Change) { c.evaluate() })
	}
	c.evaluate()
	return c, nil
}

// Name returns the block's display name.
func (c *Combinational) Name() string { return c.name }

func (c *Combinational) evaluate() {
	env := newEvalEnv()
	execAll(c.body, env)
	for _, sig := range env.order {
		if err := sig.Deposit(env.writes[sig]); err != nil {
			panic(err)
		}
	}
}
