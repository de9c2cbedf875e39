package cond

import (
	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// FlopOption configures Flop beyond its mandatory clock/data arguments.
type FlopOption func(*flopConfig)

type flopConfig struct {
	reset      *wire.Sig
	resetValue lval.LV
	enable     *wire.Sig
	name       string
}

// WithReset makes the flop synchronously load resetValue whenever reset
// reads bit 1 at the triggering edge, instead of sampling d.
func WithReset(reset *wire.Sig, resetValue lval.LV) FlopOption {
	return func(c *flopConfig) { c.reset = reset; c.resetValue = resetValue }
}

// WithEnable makes the flop hold its previous value whenever enable
// reads bit 0 at the triggering edge.
func WithEnable(enable *wire.Sig) FlopOption {
	return func(c *flopConfig) { c.enable = enable }
}

// WithName overrides the output signal's display name (default is
// d's name with a "_q" suffix).
func WithName(name string) FlopOption {
	return func(c *flopConfig) { c.name = name }
}

// Flop builds the canonical single-bit-or-wider edge-triggered register:
// on every posedge of clk, q samples d (or resetValue, or holds, per the
// configured options). It returns the output Sig and the underlying
// Sequential block; the caller must register that block with a
// Registrar (simkernel.Scheduler.RegisterSequential) so its sampled
// writes are actually committed at the next clk-stable phase.
func Flop(clk *wire.Sig, d *wire.Sig, opts ...FlopOption) (*wire.Sig, *Sequential) {
	cfg := &flopConfig{name: d.Name() + "_q"}
	for _, o := range opts {
		o(cfg)
	}

	q := wire.New(cfg.name, d.Width())

	dataExpr := Read(d)
	if cfg.enable != nil {
		// Mux selects b (d) when sel (enable) reads 1, else a (hold q).
		dataExpr = Mux(Read(cfg.enable), Read(q), Read(d))
	}

	var body Stmt = Assign{LHS: q, RHS: dataExpr}
	if cfg.reset != nil {
		body = If{
			Cond: Read(cfg.reset),
			Then: []Stmt{Assign{LHS: q, RHS: Const(cfg.resetValue)}},
			Else: []Stmt{Assign{LHS: q, RHS: dataExpr}},
		}
	}

	seq := NewSequential(cfg.name, []Trigger{{Sig: clk, Edge: wire.Posedge}}, body)
	return q, seq
}
