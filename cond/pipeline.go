package cond

import (
	"strconv"

	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// StageInfo is handed to each pipeline stage closure; Register is how a
// stage asks for one of its combinational outputs to be held in a
// register until the next clock edge, honoring the pipeline's shared
// stall and reset configuration.
type StageInfo struct {
	reg         Registrar
	clk         *wire.Sig
	stallActive *wire.Sig // "hold" signal: enable = NOT this, nil if no stalling configured
	resetSig    *wire.Sig
	resetValues map[string]lval.LV
}

// Register stages d into a named output register, honoring this
// pipeline's stall/reset configuration, and returns the registered Sig.
func (si *StageInfo) Register(name string, d *wire.Sig) *wire.Sig {
	opts := []FlopOption{WithName(name)}
	if si.stallActive != nil {
		enable := invert(si.stallActive)
		opts = append(opts, WithEnable(enable))
	}
	if si.resetSig != nil {
		rv, ok := si.resetValues[name]
		if !ok {
			rv = mustZero(d.Width())
		}
		opts = append(opts, WithReset(si.resetSig, rv))
	}
	q, seq := Flop(si.clk, d, opts...)
	si.reg.RegisterSequential(seq)
	return q
}

func mustZero(width int) lval.LV {
	v, err := lval.FromUint(0, width)
	if err != nil {
		panic(err)
	}
	return v
}

// invert returns a combinationally-driven Sig equal to NOT s.
func invert(s *wire.Sig) *wire.Sig {
	n := wire.New(s.Name()+"_n", s.Width())
	if _, err := NewCombinational(s.Name()+"_inv", false, Assign{LHS: n, RHS: Not(Read(s))}); err != nil {
		panic(err)
	}
	return n
}

// Stage is one pipeline stage: given the previous stage's named output
// signals, it builds combinational logic and registers whatever should
// survive to the next stage via si.Register, returning this stage's
// named outputs.
type Stage func(si *StageInfo, in map[string]*wire.Sig) map[string]*wire.Sig

// Pipeline wires a chain of Stage closures between shared clk/stall/
// reset signals, each one's output feeding the next's input. stall and
// resetSig may be nil to omit that feature; resetValues supplies the
// reset value for any named signal a stage registers (signals absent
// from the map reset to zero).
func Pipeline(reg Registrar, clk *wire.Sig, stall *wire.Sig, resetSig *wire.Sig, resetValues map[string]lval.LV, in map[string]*wire.Sig, stages ...Stage) map[string]*wire.Sig {
	cur := in
	for _, stage := range stages {
		si := &StageInfo{reg: reg, clk: clk, stallActive: stall, resetSig: resetSig, resetValues: resetValues}
		cur = stage(si, cur)
	}
	return cur
}

// ReadyValidStage is one stage of a ReadyValidPipeline: it receives the
// previous stage's data outputs and must return this stage's data
// outputs, without registering anything itself -- ReadyValidPipeline
// inserts the per-stage valid register and the shared stall signal for
// every stage uniformly, since every stage stalls together when the
// final consumer is not ready (a single shared bubble, not full
// per-stage backpressure decoupling).
type ReadyValidStage func(si *StageInfo, in map[string]*wire.Sig) map[string]*wire.Sig

// ReadyValidPipeline wires a ready/valid handshaking pipeline: inValid
// marks the input data as present, downstreamReady marks the final
// consumer able to accept a result. Every stage's valid bit is held in
// its own register and the whole pipeline stalls (holds every register,
// data and valid alike) whenever downstreamReady reads 0. It returns the
// final stage's outputs, the pipeline's output valid signal, and the
// signal the caller should treat as "this pipeline is ready for new
// input this cycle".
func ReadyValidPipeline(reg Registrar, clk, resetSig, inValid, downstreamReady *wire.Sig, in map[string]*wire.Sig, stages ...ReadyValidStage) (out map[string]*wire.Sig, outValid, upstreamReady *wire.Sig) {
	stallAll := invert(downstreamReady)

	resetValues := map[string]lval.LV{}
	cur := in
	valid := inValid
	for i, stage := range stages {
		si := &StageInfo{reg: reg, clk: clk, stallActive: stallAll, resetSig: resetSig, resetValues: resetValues}
		nextData := stage(si, cur)

		registered := map[string]*wire.Sig{}
		for name, sig := range nextData {
			registered[name] = si.Register(name, sig)
		}
		validQ, seq := Flop(clk, valid, WithName(stageValidName(i)), WithEnable(invert(stallAll)), WithReset(resetSig, mustZero(1)))
		reg.RegisterSequential(seq)

		cur = registered
		valid = validQ
	}

	return cur, valid, downstreamReady
}

func stageValidName(i int) string {
	return "stage_valid_" + strconv.Itoa(i)
}
