// Package cond implements Conditional blocks: Combinational and
// Sequential bodies built from nested If/Case statements, compiled into
// either a combinational re-evaluation or a clock-triggered register
// update.
package cond

import (
	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// Expr is a small combinational expression: Eval computes its current
// value, and Reads lists every Sig the computation depends on, so a
// Combinational/Sequential block's static dependency set can be
// discovered without evaluating anything.
type Expr struct {
	Reads []*wire.Sig
	Eval  func() lval.LV
}

// Const wraps a fixed LV as a dependency-free expression.
func Const(v lval.LV) Expr {
	return Expr{Eval: func() lval.LV { return v }}
}

// Read is the expression that simply reads a Sig's current value.
func Read(s *wire.Sig) Expr {
	return Expr{Reads: []*wire.Sig{s}, Eval: s.Current}
}

func merge(exprs ...Expr) []*wire.Sig {
	seen := map[*wire.Sig]bool{}
	var out []*wire.Sig
	for _, e := range exprs {
		for _, s := range e.Reads {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func mustOk[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Not, And, Or, Xor, Add, Sub, Mul, Eq, Neq, Lt, Le, Gt, Ge, Mux are the
// Expr combinators used to build the RHS of an Assign or the condition
// of an If/Case. They mirror lval's operator algebra one-for-one, and
// panic on a genuine width-mismatch programming error rather than thread
// an error through every combinator call (malformed combinational logic
// is a construction bug, not a recoverable runtime condition).
func Not(a Expr) Expr {
	return Expr{Reads: merge(a), Eval: func() lval.LV { return a.Eval().Not() }}
}

func And(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().And(b.Eval())) }}
}

func Or(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Or(b.Eval())) }}
}

func Xor(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Xor(b.Eval())) }}
}

func Add(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Add(b.Eval())) }}
}

func Sub(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Sub(b.Eval())) }}
}

func Mul(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Mul(b.Eval())) }}
}

func Eq(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Eq(b.Eval())) }}
}

func Neq(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Neq(b.Eval())) }}
}

func Lt(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Lt(b.Eval())) }}
}

func Le(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Le(b.Eval())) }}
}

func Gt(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Gt(b.Eval())) }}
}

func Ge(a, b Expr) Expr {
	return Expr{Reads: merge(a, b), Eval: func() lval.LV { return mustOk(a.Eval().Ge(b.Eval())) }}
}

// Mux selects b when sel evaluates to 1, else a (a standard 2:1
// multiplexer expression, the primitive the synth package's descriptor
// table names "mux").
func Mux(sel, a, b Expr) Expr {
	return Expr{Reads: merge(sel, a, b), Eval: func() lval.LV {
		if sel.Eval().BitAt(0) == lval.One {
			return b.Eval()
		}
		return a.Eval()
	}}
}
